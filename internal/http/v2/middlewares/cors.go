package middlewares

import (
	"net/http"
	"strings"
)

// WithCORS habilita CORS para la API headless. Con "*" se acepta cualquier
// origen pero sin credenciales: las apps de otros orígenes usan
// X-Session-Token, no la cookie. Orígenes listados explícitamente sí
// reciben Allow-Credentials.
func WithCORS(allowed []string) Middleware {
	exact := make(map[string]struct{}, len(allowed))
	anyOrigin := false
	for _, a := range allowed {
		a = normalizeOrigin(a)
		switch a {
		case "":
		case "*":
			anyOrigin = true
		default:
			exact[a] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			_, listed := exact[normalizeOrigin(origin)]
			if origin != "" && (listed || anyOrigin) {
				h.Set("Access-Control-Allow-Origin", origin)
				if listed {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-Session-Token, Retry-After")
			}

			// preflight
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if origin != "" && (listed || anyOrigin) {
					h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Session-Token")
					h.Set("Access-Control-Max-Age", "600")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeOrigin(s string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(s), "/"))
}
