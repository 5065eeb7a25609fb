// Package metrics expone los collectors Prometheus del servicio.
//
// Cada Metrics usa su propio registry para que los tests no choquen con el
// registry global; Handler() sirve /metrics sobre ese registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	socialOutcomes *prometheus.CounterVec
	socialEvents   *prometheus.CounterVec
	rateLimited    *prometheus.CounterVec
}

// New crea y registra los collectors. Con reg nil usa un registry nuevo
// que además incluye los collectors de proceso y runtime.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		if err := registerCollector(reg, collectors.NewGoCollector()); err != nil {
			return nil, err
		}
		if err := registerCollector(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, err
		}
	}

	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"}),
		socialOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_login_outcomes_total",
			Help: "Resultados de social login por proceso",
		}, []string{"process", "outcome"}),
		socialEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_events_total",
			Help: "Eventos emitidos por el bus social (logins, signups, conexiones)",
		}, []string{"event"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"path"}),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
		m.socialOutcomes, m.socialEvents, m.rateLimited,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler sirve el endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry expone el registry (tests, collectors extra).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveOutcome implementa social.OutcomeObserver.
func (m *Metrics) ObserveOutcome(process, outcome string) {
	m.socialOutcomes.WithLabelValues(process, outcome).Inc()
}

// EventListener cuenta los eventos del bus social.
func (m *Metrics) EventListener() social.Listener {
	return func(_ context.Context, ev social.Event) {
		m.socialEvents.WithLabelValues(ev.Name).Inc()
	}
}

// RateLimited registra un rechazo por rate limit.
func (m *Metrics) RateLimited(path string) {
	m.rateLimited.WithLabelValues(normalizePath(path)).Inc()
}

// RegisterPool expone el pool de la base (solo drivers con pool).
func (m *Metrics) RegisterPool(stats func() (store.PoolStats, bool)) error {
	return registerCollector(m.registry, newDBPoolCollector(stats))
}

// Instrument mide requests HTTP (contadores, latencia, inflight).
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		m.httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.WithLabelValues(method, pathLabel).Dec()
			m.httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}
