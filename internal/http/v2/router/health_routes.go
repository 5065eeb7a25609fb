package router

import (
	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/socialauth/internal/http/v2/controllers/health"
)

// HealthRouterDeps contiene las dependencias para el router de health.
type HealthRouterDeps struct {
	Controllers *ctrl.Controllers
}

// RegisterHealthRoutes registra rutas de health check. Son públicas.
func RegisterHealthRoutes(r chi.Router, deps HealthRouterDeps) {
	c := deps.Controllers
	r.Get("/healthz", c.Health.Healthz)
	r.Get("/readyz", c.Health.Readyz)
}
