package middlewares

import (
	"net/http"
	"net/url"

	"github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	"github.com/dropDatabas3/socialauth/internal/session"
)

func authenticated(r *http.Request) bool {
	s := session.FromContext(r.Context())
	return s != nil && s.UserID() != ""
}

// RequireUser corta con 401 si la sesión es anónima (API JSON).
func RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticated(r) {
				errors.WriteError(w, r, errors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUserOrRedirect redirige a loginURL?next=<path> (páginas HTML).
func RequireUserOrRedirect(loginURL string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticated(r) {
				target := loginURL + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
