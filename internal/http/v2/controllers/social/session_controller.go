package social

import (
	"net/http"

	"github.com/dropDatabas3/socialauth/internal/audit"
	httperrors "github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// SessionController expone el estado de autenticación de la sesión.
type SessionController struct {
	api apiResponder
}

func NewSessionController(d Deps) *SessionController {
	return &SessionController{api: apiResponder{social: d.Social, users: d.Users, providers: d.Providers}}
}

// Status maneja GET /v2/auth/session
func (c *SessionController) Status(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithDetail("session not loaded"))
		return
	}
	c.api.writeAuth(w, r, sess)
}

// Logout maneja DELETE /v2/auth/session
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithDetail("session not loaded"))
		return
	}
	if uid := sess.UserID(); uid != "" {
		audit.Log(r.Context(), audit.EventLoggedOut, map[string]string{"user_id": uid})
	}
	sess.Destroy()
	c.api.writeAuth(w, r, sess)
}
