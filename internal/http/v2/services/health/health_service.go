// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/socialauth/internal/http/v2/dto/health"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Version string
	Commit  string

	DBDriver   string
	DBCheck    func(ctx context.Context) error // crítico
	CacheCheck func(ctx context.Context) error // no crítico
	PoolStats  func() (store.PoolStats, bool)

	// Timeout por componente (default 2s).
	Timeout time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Version:    s.deps.Version,
		Commit:     s.deps.Commit,
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}

	hasErrors := false
	hasCriticalErrors := false

	// 1) DB (crítico)
	if err := s.probe(ctx, s.deps.DBCheck); err != nil {
		response.Components["db"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		hasCriticalErrors = true
		log.Error("db unavailable", logger.Err(err))
	} else {
		response.Components["db"] = dto.HealthStatus{Status: "ok", Message: s.deps.DBDriver}
	}

	// 2) Cache de sesiones (no crítico: sin cache no hay login, pero la API responde)
	if s.deps.CacheCheck == nil {
		response.Components["cache"] = dto.HealthStatus{Status: "disabled"}
	} else if err := s.probe(ctx, s.deps.CacheCheck); err != nil {
		response.Components["cache"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		hasErrors = true
		log.Error("cache unavailable", logger.Err(err))
	} else {
		response.Components["cache"] = dto.HealthStatus{Status: "ok"}
	}

	// 3) Pool (informativo)
	if s.deps.PoolStats != nil {
		if st, ok := s.deps.PoolStats(); ok {
			response.Components["db_pool"] = dto.HealthStatus{
				Status:  "ok",
				Message: fmt.Sprintf("acquired=%d idle=%d total=%d", st.Acquired, st.Idle, st.Total),
			}
		}
	}

	switch {
	case hasCriticalErrors:
		response.Status = dto.StatusUnavailable
	case hasErrors:
		response.Status = dto.StatusDegraded
	default:
		response.Status = dto.StatusReady
	}
	return response
}

func (s *healthService) probe(ctx context.Context, check func(context.Context) error) error {
	if check == nil {
		return fmt.Errorf("not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	return check(ctx)
}
