package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/socialauth/internal/cache"
	tokens "github.com/dropDatabas3/socialauth/internal/security/token"
)

// HeaderName es el header usado por clientes app (sin cookies).
const HeaderName = "X-Session-Token"

// Config configura cookies y expiración.
type Config struct {
	CookieName   string        `yaml:"cookie_name"`
	CookieDomain string        `yaml:"cookie_domain"`
	SameSite     string        `yaml:"same_site"` // Lax | Strict | None
	Secure       bool          `yaml:"secure"`
	TTL          time.Duration `yaml:"ttl"`
}

// Manager carga y persiste sesiones en el cache.
type Manager struct {
	cache cache.Client
	cfg   Config
	now   func() time.Time
}

// NewManager crea un Manager con defaults (cookie "sid", 14 días).
func NewManager(c cache.Client, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "sid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 14 * 24 * time.Hour
	}
	return &Manager{cache: c, cfg: cfg, now: time.Now}
}

func cacheKey(token string) string { return "sess:" + tokens.SHA256Base64URL(token) }

// TokenFromRequest lee el token del header de app o de la cookie.
func (m *Manager) TokenFromRequest(r *http.Request) (token string, fromHeader bool) {
	if t := strings.TrimSpace(r.Header.Get(HeaderName)); t != "" {
		return t, true
	}
	if c, err := r.Cookie(m.cfg.CookieName); err == nil {
		return c.Value, false
	}
	return "", false
}

// Load retorna la sesión del token, o una nueva si no existe o expiró.
func (m *Manager) Load(ctx context.Context, token string) (*Session, error) {
	if token != "" {
		raw, err := m.cache.Get(ctx, cacheKey(token))
		switch {
		case err == nil:
			var rec record
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				return nil, fmt.Errorf("session: decode: %w", err)
			}
			return &Session{
				token:     token,
				userID:    rec.UserID,
				values:    rec.Values,
				createdAt: rec.CreatedAt,
			}, nil
		case !cache.IsNotFound(err):
			return nil, fmt.Errorf("session: load: %w", err)
		}
	}
	return &Session{isNew: true, createdAt: m.now().UTC()}, nil
}

// Save persiste la sesión si cambió. Asigna token a sesiones nuevas o rotadas.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s.rotatedFrom != "" {
		if err := m.cache.Delete(ctx, cacheKey(s.rotatedFrom)); err != nil {
			return fmt.Errorf("session: delete rotated: %w", err)
		}
		s.rotatedFrom = ""
	}
	if s.destroyed {
		if s.token != "" {
			return m.cache.Delete(ctx, cacheKey(s.token))
		}
		return nil
	}
	if !s.dirty {
		return nil
	}
	if s.token == "" {
		t, err := tokens.GenerateOpaqueToken(32)
		if err != nil {
			return err
		}
		s.token = t
	}

	raw, err := json.Marshal(record{UserID: s.userID, Values: s.values, CreatedAt: s.createdAt})
	if err != nil {
		return err
	}
	if err := m.cache.Set(ctx, cacheKey(s.token), string(raw), m.cfg.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	s.dirty = false
	s.isNew = false
	return nil
}

// Cookie construye la cookie de la sesión.
func (m *Manager) Cookie(s *Session) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    s.token,
		Path:     "/",
		Domain:   m.cfg.CookieDomain,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: m.sameSite(),
	}
}

// DeletionCookie expira la cookie inmediatamente.
func (m *Manager) DeletionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.cfg.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: m.sameSite(),
	}
}

func (m *Manager) sameSite() http.SameSite {
	switch m.cfg.SameSite {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

type ctxKey struct{}

// ToContext guarda la sesión del request.
func ToContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext retorna la sesión del request o nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
