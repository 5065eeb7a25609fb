// Package health contiene el controller de liveness y readiness.
package health

import (
	"net/http"

	dto "github.com/dropDatabas3/socialauth/internal/http/v2/dto/health"
	"github.com/dropDatabas3/socialauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/socialauth/internal/http/v2/services/health"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz: el proceso responde, no mira dependencias.
func (c *HealthController) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz. Solo "unavailable" (base caída) saca la
// instancia del balanceo; "degraded" (cache caído) sigue en 200.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := c.service.Check(ctx)

	h := w.Header()
	h.Set("Cache-Control", "no-store")
	if resp.Version != "" {
		h.Set("X-Service-Version", resp.Version)
	}

	code := http.StatusOK
	if resp.Status == dto.StatusUnavailable {
		code = http.StatusServiceUnavailable
		logger.From(ctx).Warn("not ready",
			logger.Layer("controller"),
			logger.Op("HealthController.Readyz"),
			logger.Any("components", resp.Components),
		)
	}
	helpers.WriteJSON(w, code, resp)
}
