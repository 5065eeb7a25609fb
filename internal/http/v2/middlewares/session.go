package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// WithSession carga la sesión del request y la persiste antes de que se
// escriba el primer byte de la respuesta. Si el token cambió (sesión nueva,
// login, logout) se emite la cookie y el header X-Session-Token.
func WithSession(m *session.Manager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, fromHeader := m.TokenFromRequest(r)

			sess, err := m.Load(ctx, token)
			if err != nil {
				logger.From(ctx).Warn("session load failed, starting a new one",
					logger.Layer("http"), logger.Err(err))
				sess, _ = m.Load(ctx, "")
			}

			sw := &sessionWriter{ResponseWriter: w, r: r, m: m, sess: sess, token: token, fromHeader: fromHeader}
			next.ServeHTTP(sw, r.WithContext(session.ToContext(ctx, sess)))
			sw.commit()
		})
	}
}

type sessionWriter struct {
	http.ResponseWriter
	r          *http.Request
	m          *session.Manager
	sess       *session.Session
	token      string
	fromHeader bool
	committed  bool
}

func (s *sessionWriter) WriteHeader(code int) {
	s.commit()
	s.ResponseWriter.WriteHeader(code)
}

func (s *sessionWriter) Write(b []byte) (int, error) {
	s.commit()
	return s.ResponseWriter.Write(b)
}

func (s *sessionWriter) commit() {
	if s.committed {
		return
	}
	s.committed = true

	if err := s.m.Save(s.r.Context(), s.sess); err != nil {
		logger.From(s.r.Context()).Error("session save failed", logger.Layer("http"), logger.Err(err))
		return
	}

	h := s.ResponseWriter.Header()
	switch {
	case s.sess.Destroyed():
		h.Set(session.HeaderName, "")
		if !s.fromHeader {
			http.SetCookie(s.ResponseWriter, s.m.DeletionCookie())
		}
	case s.sess.Token() != "" && s.sess.Token() != s.token:
		h.Set(session.HeaderName, s.sess.Token())
		if !s.fromHeader {
			http.SetCookie(s.ResponseWriter, s.m.Cookie(s.sess))
		}
	}
}
