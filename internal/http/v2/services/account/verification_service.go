package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/socialauth/internal/audit"
	"github.com/dropDatabas3/socialauth/internal/cache"
	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	tokens "github.com/dropDatabas3/socialauth/internal/security/token"
)

// ErrInvalidConfirmationKey: la key no existe, expiró o ya se usó.
var ErrInvalidConfirmationKey = errors.New("account: invalid or expired confirmation key")

// Confirmation es una verificación de email pendiente.
type Confirmation struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type VerificationDeps struct {
	Cache  cache.Client
	Users  repository.UserRepository
	Mailer Mailer
	Config Config
}

// VerificationService emite y confirma keys de verificación de email.
// En cache solo se guarda el hash de la key.
type VerificationService struct {
	deps VerificationDeps
	cfg  Config
}

func NewVerificationService(d VerificationDeps) *VerificationService {
	return &VerificationService{deps: d, cfg: d.Config.withDefaults()}
}

func verificationKey(key string) string { return "emailverify:" + tokens.SHA256Base64URL(key) }

// Send genera una key de un solo uso y envía el link de confirmación.
func (s *VerificationService) Send(ctx context.Context, userID, email string) error {
	key, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(Confirmation{UserID: userID, Email: email})
	if err != nil {
		return err
	}
	if err := s.deps.Cache.Set(ctx, verificationKey(key), string(raw), s.cfg.VerificationTTL); err != nil {
		return fmt.Errorf("store confirmation: %w", err)
	}

	link := strings.TrimRight(s.cfg.BaseURL, "/") + s.cfg.ConfirmEmailPath + key + "/"
	if err := s.deps.Mailer.SendVerification(ctx, email, link, s.cfg.VerificationTTL); err != nil {
		return fmt.Errorf("send verification: %w", err)
	}

	logger.From(ctx).Info("verification mail sent",
		logger.Layer("service"),
		logger.Component("account.verification"),
		logger.UserID(userID),
		logger.EmailMasked(email),
	)
	return nil
}

// Confirm consume la key y marca el email como verificado.
func (s *VerificationService) Confirm(ctx context.Context, key string) (*Confirmation, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrInvalidConfirmationKey
	}
	raw, err := s.deps.Cache.Take(ctx, verificationKey(key))
	if err != nil {
		if cache.IsNotFound(err) {
			logger.From(ctx).Info("confirmation key unknown or expired",
				logger.Component("account.verification"),
				logger.String("key", logger.MaskToken(key)),
			)
			return nil, ErrInvalidConfirmationKey
		}
		return nil, err
	}

	var c Confirmation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode confirmation: %w", err)
	}
	if err := s.deps.Users.MarkEmailVerified(ctx, c.UserID, c.Email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidConfirmationKey
		}
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	audit.Log(ctx, audit.EventEmailConfirmed, map[string]string{
		"user_id": c.UserID,
		"email":   logger.MaskEmail(c.Email),
	})
	return &c, nil
}
