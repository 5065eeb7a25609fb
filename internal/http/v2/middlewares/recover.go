package middlewares

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// WithRecover convierte un panic en 500. http.ErrAbortHandler se re-lanza:
// net/http lo usa para cortar la respuesta a propósito.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.From(r.Context()).Error("panic recovered",
					logger.Layer("http"),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.Any("panic", rec),
					zap.StackSkip("stack", 2),
				)
				errors.WriteError(w, r, errors.ErrInternalServerError.WithDetail("panic recovered"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
