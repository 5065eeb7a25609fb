// Package account implementa los colaboradores de cuentas que consume el
// motor de social login: política de signup, usernames, prevención de
// enumeración, verificación de email, login final y registro de autenticación.
package account

import (
	"context"
	"time"

	"github.com/dropDatabas3/socialauth/internal/cache"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

// Mailer envía los mails del flujo de cuentas (lo implementa email.Mailer).
type Mailer interface {
	SendVerification(ctx context.Context, to, link string, ttl time.Duration) error
	SendAccountExists(ctx context.Context, to, loginURL string) error
}

// Deps contiene las dependencias para crear los services account.
type Deps struct {
	DAL    store.DataAccessLayer
	Cache  cache.Client
	Mailer Mailer
	Bus    *social.Bus
	Config Config
	Now    func() time.Time
}

// Services agrupa todos los services del dominio account.
type Services struct {
	Policy       *Policy
	Usernames    *UsernameService
	Guard        *EnumerationGuard
	Verification *VerificationService
	Finisher     *LoginService
	Recorder     *AuthRecorder
}

// NewServices crea el agregador de services account.
func NewServices(d Deps) Services {
	cfg := d.Config.withDefaults()
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	users := d.DAL.Users()
	policy := NewPolicy(cfg)
	verification := NewVerificationService(VerificationDeps{
		Cache:  d.Cache,
		Users:  users,
		Mailer: d.Mailer,
		Config: cfg,
	})
	recorder := NewAuthRecorder(d.Now)

	return Services{
		Policy:       policy,
		Usernames:    NewUsernameService(users, cfg),
		Guard:        NewEnumerationGuard(users, d.Mailer, cfg),
		Verification: verification,
		Finisher: NewLoginService(LoginDeps{
			Users:        users,
			Policy:       policy,
			Verification: verification,
			Recorder:     recorder,
			Bus:          d.Bus,
			Config:       cfg,
			Now:          d.Now,
		}),
		Recorder: recorder,
	}
}
