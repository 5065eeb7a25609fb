package middlewares

import "net/http"

// WithNoStore marca la respuesta como no cacheable. Las respuestas de
// auth dependen de la sesión (cookie o X-Session-Token), de ahí el Vary.
func WithNoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Add("Vary", "Cookie")
			h.Add("Vary", "X-Session-Token")
			next.ServeHTTP(w, r)
		})
	}
}
