package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/rate"
)

// clientIP extrae la IP del cliente, considerando proxies.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// DefaultRateKey: IP + path.
func DefaultRateKey(r *http.Request) string {
	return clientIP(r) + "|" + r.URL.Path
}

// RateLimitConfig configura el middleware de rate limiting.
type RateLimitConfig struct {
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
	// Methods limitados; vacío = todos. Los GET de páginas no se limitan.
	Methods []string
	// OnReject se llama por cada rechazo (métricas).
	OnReject func(path string)
}

// WithRateLimit crea un middleware de rate limiting. Si el limiter falla
// el request pasa (fail-open).
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = DefaultRateKey
	}
	methods := make(map[string]struct{}, len(cfg.Methods))
	for _, m := range cfg.Methods {
		methods[strings.ToUpper(m)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(methods) > 0 {
				if _, ok := methods[r.Method]; !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limit error", logger.Layer("http"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if res.WindowTTL > 0 {
				resetAt := time.Now().Add(res.WindowTTL).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
			}
			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				if cfg.OnReject != nil {
					cfg.OnReject(r.URL.Path)
				}
				errors.WriteError(w, r, errors.ErrRateLimitExceeded)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

			next.ServeHTTP(w, r)
		})
	}
}
