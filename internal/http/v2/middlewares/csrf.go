package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	tokens "github.com/dropDatabas3/socialauth/internal/security/token"
	"github.com/dropDatabas3/socialauth/internal/session"
)

const (
	// CSRFFieldName es el campo hidden de los formularios HTML.
	CSRFFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfSessionKey = "csrf_token"
)

var errCSRF = errors.New(http.StatusForbidden, "INVALID_CSRF_TOKEN", "CSRF token ausente o inválido.")

// CSRFToken retorna el token CSRF de la sesión, creándolo si falta.
func CSRFToken(r *http.Request) string {
	sess := session.FromContext(r.Context())
	if sess == nil {
		return ""
	}
	var tok string
	if ok, _ := sess.GetJSON(csrfSessionKey, &tok); ok && tok != "" {
		return tok
	}
	tok, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		logger.From(r.Context()).Error("csrf token generation failed", logger.Layer("http"), logger.Err(err))
		return ""
	}
	_ = sess.SetJSON(csrfSessionKey, tok)
	return tok
}

// WithCSRF exige el token de la sesión en métodos inseguros (synchronizer token).
// Los clientes que mandan X-Session-Token no usan cookies y se saltan el check.
func WithCSRF() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if strings.TrimSpace(r.Header.Get(session.HeaderName)) != "" {
				next.ServeHTTP(w, r)
				return
			}

			sess := session.FromContext(r.Context())
			var want string
			if sess != nil {
				_, _ = sess.GetJSON(csrfSessionKey, &want)
			}
			got := r.Header.Get(csrfHeaderName)
			if got == "" {
				got = r.PostFormValue(CSRFFieldName)
			}
			if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
				errors.WriteError(w, r, errCSRF)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
