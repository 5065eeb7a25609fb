package social

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	svc "github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// tokenInput es el input de un login por token antes de verificar.
type tokenInput struct {
	Provider string
	Process  string
	// Token es el objeto token crudo; nil si no era un objeto JSON.
	Token map[string]any
}

// verifyTokenInput valida el input y verifica el token con el provider.
// Cualquier falla se retorna como *svc.ValidationError.
func verifyTokenInput(ctx context.Context, reg *providers.Registry, in tokenInput) (*svc.SocialLogin, error) {
	process, ok := svc.ParseProcess(in.Process)
	if !ok || process == svc.ProcessRedirect {
		return nil, svc.NewValidationError("process", svc.CodeInvalidProcess)
	}

	p, ok := reg.Get(strings.TrimSpace(in.Provider))
	if !ok {
		return nil, svc.NewValidationError("provider", svc.CodeUnknownProvider)
	}
	if !p.SupportsTokenAuthentication() {
		return nil, svc.NewValidationError("provider", svc.CodeTokenAuthNotSupported)
	}
	if in.Token == nil {
		return nil, svc.NewValidationError("token", svc.CodeInvalidToken)
	}

	tok := providers.Token{}
	var badType bool
	tok.ClientID, badType = stringField(in.Token, "client_id", badType)
	tok.IDToken, badType = stringField(in.Token, "id_token", badType)
	tok.AccessToken, badType = stringField(in.Token, "access_token", badType)

	if p.UsesApps() {
		switch {
		case tok.ClientID == "":
			return nil, svc.NewValidationError("token", svc.CodeClientIDRequired)
		case tok.ClientID != p.ClientID():
			return nil, svc.NewValidationError("token", svc.CodeClientIDMismatch)
		}
	}
	if badType || (tok.IDToken == "" && tok.AccessToken == "") {
		return nil, svc.NewValidationError("token", svc.CodeTokenRequired)
	}

	login, err := p.VerifyToken(ctx, tok)
	if err != nil {
		logger.From(ctx).Info("provider token rejected",
			logger.Layer("controller"), logger.Provider(p.ID()), logger.Err(err))
		verr := svc.NewValidationError("token", svc.CodeInvalidToken)
		verr.Err = err
		return nil, verr
	}
	login.Process = process
	return login, nil
}

// stringField lee key de m; un valor presente que no es string marca badType.
func stringField(m map[string]any, key string, badType bool) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", badType
	}
	s, ok := v.(string)
	if !ok {
		return "", true
	}
	return strings.TrimSpace(s), badType
}

// decodeTokenObject retorna nil si raw no es un objeto JSON.
func decodeTokenObject(raw json.RawMessage) map[string]any {
	var m map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}
