package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID viaja en request y response.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID propaga X-Request-ID o genera uno nuevo (uuid v4).
// IDs vacíos, largos o con caracteres fuera de [A-Za-z0-9._-] se reemplazan.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if !validRequestID(rid) {
				rid = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, rid)
			ctx := context.WithValue(r.Context(), requestIDKey{}, rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID retorna "" fuera de WithRequestID.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey{}).(string)
	return s
}

func validRequestID(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
