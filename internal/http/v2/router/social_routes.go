package router

import (
	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/socialauth/internal/http/v2/controllers/social"
	mw "github.com/dropDatabas3/socialauth/internal/http/v2/middlewares"
)

// SocialAPIRouterDeps contiene las dependencias de la API headless.
type SocialAPIRouterDeps struct {
	Controllers *ctrl.Controllers
	RateLimit   mw.Middleware
	CORSOrigins []string
}

// RegisterSocialAPIRoutes registra la API JSON:
//
//	POST   /v2/auth/social/token
//	GET    /v2/auth/social/providers
//	GET    /v2/auth/social/signup
//	POST   /v2/auth/social/signup
//	GET    /v2/auth/session
//	DELETE /v2/auth/session
//	GET    /v2/account/providers      (requiere usuario)
//	DELETE /v2/account/providers      (requiere usuario)
func RegisterSocialAPIRoutes(r chi.Router, deps SocialAPIRouterDeps) {
	c := deps.Controllers

	r.Route("/v2", func(r chi.Router) {
		r.Use(mw.WithSecurityHeaders(), mw.WithNoStore())
		if len(deps.CORSOrigins) > 0 {
			r.Use(mw.WithCORS(deps.CORSOrigins))
		}

		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimit).Post("/social/token", c.Token.Login)
			r.Get("/social/providers", c.Providers.Available)
			r.Get("/social/signup", c.Signup.Get)
			r.With(deps.RateLimit).Post("/social/signup", c.Signup.Post)

			r.Get("/session", c.Session.Status)
			r.Delete("/session", c.Session.Logout)
		})

		r.Route("/account", func(r chi.Router) {
			r.Use(mw.RequireUser())
			r.Get("/providers", c.Providers.List)
			r.Delete("/providers", c.Providers.Disconnect)
		})
	})
}
