package social

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/socialauth/internal/http/v2/dto/social"
	"github.com/dropDatabas3/socialauth/internal/http/v2/helpers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	svc "github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// ProvidersController lista y desconecta cuentas externas (API headless).
type ProvidersController struct {
	connections *svc.Connections
	providers   *providers.Registry
	api         apiResponder
}

func NewProvidersController(d Deps) *ProvidersController {
	return &ProvidersController{
		connections: d.Social.Connections,
		providers:   d.Providers,
		api:         apiResponder{social: d.Social, users: d.Users, providers: d.Providers},
	}
}

// Available maneja GET /v2/auth/social/providers
func (c *ProvidersController) Available(w http.ResponseWriter, r *http.Request) {
	list := c.providers.List()
	resp := dto.ProvidersResponse{Status: http.StatusOK, Data: make([]dto.ProviderDTO, 0, len(list))}
	for _, p := range list {
		resp.Data = append(resp.Data, providerToDTO(p))
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// List maneja GET /v2/account/providers (requiere usuario)
func (c *ProvidersController) List(w http.ResponseWriter, r *http.Request) {
	c.api.writeAccounts(w, r, session.FromContext(r.Context()).UserID())
}

// Disconnect maneja DELETE /v2/account/providers (requiere usuario)
func (c *ProvidersController) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProvidersController.Disconnect"))

	var req dto.DisconnectRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	userID := session.FromContext(ctx).UserID()

	req.Provider = strings.TrimSpace(req.Provider)
	req.Account = strings.TrimSpace(req.Account)
	if req.Provider == "" || req.Account == "" {
		verr := &svc.ValidationError{}
		if req.Provider == "" {
			verr.Add("provider", svc.CodeRequired)
		}
		if req.Account == "" {
			verr.Add("account", svc.CodeRequired)
		}
		writeServiceError(w, r, verr)
		return
	}

	acc, err := c.connections.Find(ctx, userID, req.Provider, req.Account)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := c.connections.Disconnect(ctx, acc); err != nil {
		log.Info("disconnect failed", logger.Provider(acc.Provider), logger.Err(err))
		writeServiceError(w, r, err)
		return
	}
	c.api.writeAccounts(w, r, userID)
}
