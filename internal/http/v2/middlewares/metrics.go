package middlewares

import "net/http"

// Instrumenter lo implementa metrics.Metrics.
type Instrumenter interface {
	Instrument(next http.Handler) http.Handler
}

// WithMetrics instrumenta requests HTTP. Con i nil no hace nada.
func WithMetrics(i Instrumenter) Middleware {
	return func(next http.Handler) http.Handler {
		if i == nil {
			return next
		}
		return i.Instrument(next)
	}
}
