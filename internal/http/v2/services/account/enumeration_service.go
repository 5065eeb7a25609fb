package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/socialauth/internal/audit"
	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// EnumerationGuard implementa social.EnumerationGuard.
type EnumerationGuard struct {
	users  repository.UserRepository
	mailer Mailer
	cfg    Config
}

func NewEnumerationGuard(users repository.UserRepository, mailer Mailer, cfg Config) *EnumerationGuard {
	return &EnumerationGuard{users: users, mailer: mailer, cfg: cfg.withDefaults()}
}

// AssessUniqueEmail decide qué puede decirse sobre email:
//   - nadie lo usa (o los emails no son únicos): EmailUnique
//   - prevención apagada: EmailTaken
//   - verificación obligatoria o modo strict: EmailHidden
//   - resto: EmailTaken
func (g *EnumerationGuard) AssessUniqueEmail(ctx context.Context, email string) (social.EmailAssessment, error) {
	if !g.cfg.UniqueEmail {
		return social.EmailUnique, nil
	}
	users, err := g.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return social.EmailHidden, fmt.Errorf("find by email: %w", err)
	}
	switch {
	case len(users) == 0:
		return social.EmailUnique, nil
	case g.cfg.PreventEnumeration == EnumerationOff:
		return social.EmailTaken, nil
	case g.cfg.EmailVerification == social.VerificationMandatory,
		g.cfg.PreventEnumeration == EnumerationStrict:
		return social.EmailHidden, nil
	default:
		return social.EmailTaken, nil
	}
}

// PreventEnumeration avisa por mail al dueño de la dirección y responde
// igual que un "te enviamos un mail de verificación". Un fallo de envío se
// loguea pero no cambia la respuesta.
func (g *EnumerationGuard) PreventEnumeration(ctx context.Context, _ social.Session, email string) (social.Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("account.enumeration"),
	)

	loginURL := strings.TrimRight(g.cfg.BaseURL, "/") + g.cfg.LoginURL
	if err := g.mailer.SendAccountExists(ctx, email, loginURL); err != nil {
		log.Warn("account exists mail not sent", logger.EmailMasked(email), logger.Err(err))
	}
	audit.Log(ctx, audit.EventEnumerationBlocked, map[string]string{"email": logger.MaskEmail(email)})

	return social.RedirectTo{URL: g.cfg.VerificationSentURL}, nil
}
