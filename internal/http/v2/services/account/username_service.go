package account

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"unicode"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/security/password"
)

const (
	usernameMaxLength = 150
	generateAttempts  = 20
)

var (
	usernameRE    = regexp.MustCompile(`^[\w.@+-]+$`)
	usernameStrip = regexp.MustCompile(`[^\w.@+-]+`)
)

// UsernameService implementa social.UsernamePolicy.
type UsernameService struct {
	users     repository.UserRepository
	minLength int
	blacklist *password.Blacklist
}

func NewUsernameService(users repository.UserRepository, cfg Config) *UsernameService {
	cfg = cfg.withDefaults()
	return &UsernameService{
		users:     users,
		minLength: cfg.UsernameMinLength,
		blacklist: password.NewBlacklist(cfg.UsernameBlacklist...),
	}
}

// Clean valida formato, largo, blacklist y disponibilidad.
func (s *UsernameService) Clean(ctx context.Context, username string) (string, error) {
	name := strings.TrimSpace(username)
	if err := s.validate(name); err != nil {
		return "", err
	}
	exists, err := s.users.UsernameExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("username exists: %w", err)
	}
	if exists {
		return "", social.NewValidationError("username", social.CodeUsernameTaken)
	}
	return name, nil
}

func (s *UsernameService) validate(name string) error {
	switch {
	case name == "":
		return social.NewValidationError("username", social.CodeUsernameRequired)
	case len(name) > usernameMaxLength || !usernameRE.MatchString(name):
		return social.NewValidationError("username", social.CodeUsernameInvalid)
	case len([]rune(name)) < s.minLength:
		return social.NewValidationError("username", social.CodeUsernameTooShort)
	case s.blacklist.Contains(name):
		return social.NewValidationError("username", social.CodeUsernameBlacklisted)
	}
	return nil
}

// Generate arma un username disponible a partir del primer candidato
// utilizable (nombre, apellido, parte local del email, provider). Si está
// tomado agrega un sufijo numérico.
func (s *UsernameService) Generate(ctx context.Context, candidates ...string) (string, error) {
	base := ""
	for _, c := range candidates {
		if b := normalizeUsername(c); b != "" && s.validate(b) == nil {
			base = b
			break
		}
	}
	if base == "" {
		base = "user"
	}

	name := base
	for i := 0; i < generateAttempts; i++ {
		exists, err := s.users.UsernameExists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("username exists: %w", err)
		}
		if !exists {
			return name, nil
		}
		suffix := fmt.Sprintf("%d", rand.Intn(9000)+1000)
		if len(base)+len(suffix) > usernameMaxLength {
			base = base[:usernameMaxLength-len(suffix)]
		}
		name = base + suffix
	}
	return "", fmt.Errorf("no available username for %q after %d attempts", base, generateAttempts)
}

func normalizeUsername(candidate string) string {
	c := strings.TrimSpace(candidate)
	if at := strings.IndexByte(c, '@'); at >= 0 {
		c = c[:at]
	}
	c = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, c)
	c = usernameStrip.ReplaceAllString(c, "")
	if len(c) > usernameMaxLength {
		c = c[:usernameMaxLength]
	}
	return c
}
