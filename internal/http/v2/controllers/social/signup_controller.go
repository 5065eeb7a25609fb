package social

import (
	"net/http"

	dto "github.com/dropDatabas3/socialauth/internal/http/v2/dto/social"
	httperrors "github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	"github.com/dropDatabas3/socialauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// SignupController maneja el signup pendiente de la API headless.
type SignupController struct {
	social svc.Services
	api    apiResponder
}

func NewSignupController(d Deps) *SignupController {
	return &SignupController{
		social: d.Social,
		api:    apiResponder{social: d.Social, users: d.Users, providers: d.Providers},
	}
}

// pending carga el signup pendiente; escribe 409 si no hay ninguno y 403
// si el registro se cerró después de guardarlo.
func (c *SignupController) pending(w http.ResponseWriter, r *http.Request) (*session.Session, *svc.SocialLogin, bool) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		httperrors.WriteError(w, r, httperrors.ErrNoPendingSignup)
		return nil, nil, false
	}
	login, err := c.social.Pending.Load(sess)
	if err != nil {
		// Un registro corrupto o de otra versión equivale a no tener signup pendiente.
		logger.From(r.Context()).Warn("pending signup unreadable", logger.Layer("controller"), logger.Err(err))
		c.social.Pending.Clear(sess)
		login = nil
	}
	if login == nil {
		httperrors.WriteError(w, r, httperrors.ErrNoPendingSignup)
		return nil, nil, false
	}
	if !c.social.Engine.IsOpenForSignup(r.Context(), login) {
		httperrors.WriteError(w, r, httperrors.ErrSignupClosed)
		return nil, nil, false
	}
	return sess, login, true
}

// Get maneja GET /v2/auth/social/signup
func (c *SignupController) Get(w http.ResponseWriter, r *http.Request) {
	_, login, ok := c.pending(w, r)
	if !ok {
		return
	}

	data := dto.PendingSignupData{
		Provider: c.api.providerDTO(login.Provider),
		Email:    login.FirstEmail(),
		Emails:   make([]dto.EmailDTO, 0, len(login.Emails)),
	}
	if login.User != nil {
		data.Username = login.User.Username
		if data.Email == "" {
			data.Email = login.User.Email
		}
	}
	for _, e := range login.Emails {
		data.Emails = append(data.Emails, dto.EmailDTO{Email: e.Email, Verified: e.Verified, Primary: e.Primary})
	}
	helpers.WriteJSON(w, http.StatusOK, dto.PendingSignupResponse{Status: http.StatusOK, Data: data})
}

// Post maneja POST /v2/auth/social/signup
func (c *SignupController) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SignupController.Post"))

	sess, login, ok := c.pending(w, r)
	if !ok {
		return
	}
	var req dto.SignupRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	out, err := c.social.Engine.SignupByConfirmation(ctx, sess, login, svc.SignupForm{Email: req.Email, Username: req.Username})
	if err != nil {
		log.Error("signup by confirmation failed", logger.Provider(login.Provider), logger.Err(err))
		writeServiceError(w, r, err)
		return
	}
	c.api.writeOutcome(w, r, sess, login.Process, out)
}
