package router

import (
	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/socialauth/internal/http/v2/controllers/social"
	mw "github.com/dropDatabas3/socialauth/internal/http/v2/middlewares"
)

// AccountPageRouterDeps contiene las dependencias de las páginas HTML.
type AccountPageRouterDeps struct {
	Controllers *ctrl.Controllers
	RateLimit   mw.Middleware
	LoginURL    string
}

// RegisterAccountPageRoutes registra el flujo server-rendered bajo /accounts.
// Todos los POST exigen token CSRF.
func RegisterAccountPageRoutes(r chi.Router, deps AccountPageRouterDeps) {
	p := deps.Controllers.Pages
	loginURL := deps.LoginURL
	if loginURL == "" {
		loginURL = "/accounts/login/"
	}

	r.Route("/accounts", func(r chi.Router) {
		r.Use(mw.WithPageSecurityHeaders(), mw.WithNoStore(), mw.WithCSRF())

		r.Get("/login/", p.Login)
		r.Post("/logout/", p.Logout)

		r.With(deps.RateLimit).Post("/social/{provider}/token/", p.TokenLogin)
		r.Get("/social/signup/", p.Signup)
		r.With(deps.RateLimit).Post("/social/signup/", p.Signup)
		r.Get("/social/login/cancelled/", p.LoginCancelled)
		r.Get("/social/login/error/", p.LoginError)

		r.With(mw.RequireUserOrRedirect(loginURL)).Get("/social/connections/", p.Connections)
		r.With(mw.RequireUserOrRedirect(loginURL)).Post("/social/connections/", p.Connections)

		r.Get("/confirm-email/", p.VerificationSent)
		r.Get("/confirm-email/{key}/", p.ConfirmEmail)
	})
}
