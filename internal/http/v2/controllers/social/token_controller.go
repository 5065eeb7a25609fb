package social

import (
	"net/http"

	dto "github.com/dropDatabas3/socialauth/internal/http/v2/dto/social"
	httperrors "github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	"github.com/dropDatabas3/socialauth/internal/http/v2/helpers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	svc "github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// TokenController maneja el login headless con tokens del provider.
type TokenController struct {
	engine    *svc.Engine
	providers *providers.Registry
	api       apiResponder
}

func NewTokenController(d Deps) *TokenController {
	return &TokenController{
		engine:    d.Social.Engine,
		providers: d.Providers,
		api:       apiResponder{social: d.Social, users: d.Users, providers: d.Providers},
	}
}

// Login maneja POST /v2/auth/social/token
func (c *TokenController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokenController.Login"))

	var req dto.ProviderTokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	login, err := verifyTokenInput(ctx, c.providers, tokenInput{
		Provider: req.Provider,
		Process:  req.Process,
		Token:    decodeTokenObject(req.Token),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	sess := session.FromContext(ctx)
	if sess == nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithDetail("session not loaded"))
		return
	}

	out, err := c.engine.CompleteOrRaise(ctx, sess, login)
	if err != nil {
		log.Info("token login failed", logger.Provider(login.Provider), logger.Err(err))
		writeServiceError(w, r, err)
		return
	}
	log.Debug("token login completed", logger.Provider(login.Provider), logger.Outcome(out.Kind()))
	c.api.writeOutcome(w, r, sess, login.Process, out)
}
