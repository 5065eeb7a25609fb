// Package router registra las rutas HTTP V2 sobre un chi.Router.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/socialauth/internal/http/v2/controllers"
	httperrors "github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	mw "github.com/dropDatabas3/socialauth/internal/http/v2/middlewares"
	"github.com/dropDatabas3/socialauth/internal/metrics"
	"github.com/dropDatabas3/socialauth/internal/rate"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers
	Sessions    *session.Manager

	// Metrics es opcional; nil deshabilita /metrics y la instrumentación.
	Metrics     *metrics.Metrics
	MetricsPath string

	// RateLimiter es opcional; limita los POST de login y signup.
	RateLimiter rate.Limiter

	CORSOrigins []string
	LoginURL    string
}

// New arma el handler completo.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.WithRequestID(), mw.WithRecover())
	if d.Metrics != nil {
		r.Use(mw.WithMetrics(d.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrMethodNotAllowed)
	})

	// Infra: sin sesión ni logging (probes y scrapes muy frecuentes).
	RegisterHealthRoutes(r, HealthRouterDeps{Controllers: d.Controllers.Health})
	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.Metrics.Handler())
	}

	// App: sesión antes que logging para que el log lleve el user_id.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithSession(d.Sessions), mw.WithLogging())

		limit := mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:  d.RateLimiter,
			Methods:  []string{http.MethodPost},
			OnReject: d.rejectHook(),
		})

		RegisterSocialAPIRoutes(r, SocialAPIRouterDeps{
			Controllers: d.Controllers.Social,
			RateLimit:   limit,
			CORSOrigins: d.CORSOrigins,
		})
		RegisterAccountPageRoutes(r, AccountPageRouterDeps{
			Controllers: d.Controllers.Social,
			RateLimit:   limit,
			LoginURL:    d.LoginURL,
		})
	})

	return r
}

func (d Deps) rejectHook() func(string) {
	if d.Metrics == nil {
		return nil
	}
	return d.Metrics.RateLimited
}
