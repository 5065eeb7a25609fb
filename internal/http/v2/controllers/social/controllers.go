// Package social contiene los adapters HTTP del login social: la API
// headless (JSON) y las páginas server-rendered. Ambos delegan en el
// mismo Engine y solo difieren en cómo presentan cada Outcome.
package social

import (
	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/render"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/account"
	svc "github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
)

// URLs son las rutas de las páginas a las que redirigen los flujos.
type URLs struct {
	Login         string
	LoginRedirect string
	Signup        string
	Connections   string
}

func (u URLs) withDefaults() URLs {
	if u.Login == "" {
		u.Login = "/accounts/login/"
	}
	if u.LoginRedirect == "" {
		u.LoginRedirect = "/"
	}
	if u.Signup == "" {
		u.Signup = "/accounts/social/signup/"
	}
	if u.Connections == "" {
		u.Connections = "/accounts/social/connections/"
	}
	return u
}

// Deps contiene las dependencias de los controllers social.
type Deps struct {
	Social       svc.Services
	Verification *account.VerificationService
	Users        repository.UserRepository
	Providers    *providers.Registry
	Renderer     *render.Renderer
	URLs         URLs
}

// Controllers agrupa los controllers social.
type Controllers struct {
	Token     *TokenController
	Signup    *SignupController
	Providers *ProvidersController
	Session   *SessionController
	Pages     *PagesController
}

// NewControllers crea el agregador de controllers social.
func NewControllers(d Deps) *Controllers {
	d.URLs = d.URLs.withDefaults()
	return &Controllers{
		Token:     NewTokenController(d),
		Signup:    NewSignupController(d),
		Providers: NewProvidersController(d),
		Session:   NewSessionController(d),
		Pages:     NewPagesController(d),
	}
}
