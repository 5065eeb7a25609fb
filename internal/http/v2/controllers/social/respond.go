package social

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	dto "github.com/dropDatabas3/socialauth/internal/http/v2/dto/social"
	httperrors "github.com/dropDatabas3/socialauth/internal/http/v2/errors"
	"github.com/dropDatabas3/socialauth/internal/http/v2/helpers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/account"
	svc "github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// toFieldErrors convierte errores del dominio al formato del envelope HTTP.
func toFieldErrors(in []svc.FieldError) []httperrors.FieldError {
	out := make([]httperrors.FieldError, 0, len(in))
	for _, e := range in {
		out = append(out, httperrors.FieldError{Param: e.Field, Code: e.Code, Message: e.Message})
	}
	return out
}

// writeServiceError mapea errores del dominio social a AppError.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := svc.AsValidation(err); ok {
		httperrors.WriteError(w, r, httperrors.ErrValidation.WithFields(toFieldErrors(verr.Errors)...).WithCause(err))
		return
	}
	switch {
	case errors.Is(err, svc.ErrSignupClosed):
		httperrors.WriteError(w, r, httperrors.ErrSignupClosed)
	case errors.Is(err, svc.ErrNoPendingSignup):
		httperrors.WriteError(w, r, httperrors.ErrNoPendingSignup)
	default:
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
	}
}

// apiResponder arma las respuestas JSON comunes a la API headless.
type apiResponder struct {
	social    svc.Services
	users     repository.UserRepository
	providers *providers.Registry
}

func (a apiResponder) providerDTO(id string) dto.ProviderDTO {
	p, ok := a.providers.Get(id)
	if !ok {
		return dto.ProviderDTO{ID: id, Name: id}
	}
	return providerToDTO(p)
}

func providerToDTO(p providers.Provider) dto.ProviderDTO {
	out := dto.ProviderDTO{ID: p.ID(), Name: p.Name()}
	if p.UsesApps() {
		out.ClientID = p.ClientID()
	}
	if p.SupportsTokenAuthentication() {
		out.Flows = []string{dto.FlowProviderToken}
	}
	return out
}

// writeAuth escribe el estado de autenticación de la sesión. Con usuario
// responde 200; anónima responde 401 con los flujos disponibles.
func (a apiResponder) writeAuth(w http.ResponseWriter, r *http.Request, sess *session.Session, extra ...dto.FlowDTO) {
	resp := a.authState(r.Context(), sess)
	resp.Data.Flows = append(resp.Data.Flows, extra...)
	helpers.WriteJSON(w, resp.Status, resp)
}

func (a apiResponder) authState(ctx context.Context, sess *session.Session) dto.AuthResponse {
	if uid := sess.UserID(); uid != "" {
		if u, err := a.users.GetByID(ctx, uid); err == nil && u.IsActive {
			resp := dto.AuthResponse{
				Status: http.StatusOK,
				Data:   dto.AuthData{User: userToDTO(u)},
				Meta:   dto.AuthMeta{IsAuthenticated: true},
			}
			for _, m := range account.AuthenticationMethods(sess) {
				resp.Data.Methods = append(resp.Data.Methods, dto.AuthMethodDTO{
					Method:   m.Method,
					Provider: m.Attrs["provider"],
					UID:      m.Attrs["uid"],
					At:       time.Unix(m.At, 0).UTC(),
				})
			}
			return resp
		}
	}

	resp := dto.AuthResponse{Status: http.StatusUnauthorized}
	for _, p := range a.providers.List() {
		if p.SupportsTokenAuthentication() {
			pd := providerToDTO(p)
			resp.Data.Flows = append(resp.Data.Flows, dto.FlowDTO{ID: dto.FlowProviderToken, Provider: &pd})
		}
	}
	if pending, err := a.social.Pending.Load(sess); err == nil && pending != nil {
		pd := a.providerDTO(pending.Provider)
		resp.Data.Flows = append(resp.Data.Flows, dto.FlowDTO{ID: dto.FlowProviderSignup, Provider: &pd, IsPending: true})
	}
	return resp
}

// writeOutcome traduce un Outcome a la respuesta JSON.
func (a apiResponder) writeOutcome(w http.ResponseWriter, r *http.Request, sess *session.Session, process svc.Process, out svc.Outcome) {
	switch o := out.(type) {
	case svc.LoggedIn:
		a.writeAuth(w, r, sess)
	case svc.RedirectToSignup:
		a.writeAuth(w, r, sess)
	case svc.RedirectTo:
		if process == svc.ProcessConnect {
			a.writeAccounts(w, r, sess.UserID())
			return
		}
		// Verificación enviada y enumeración oculta comparten esta forma.
		a.writeAuth(w, r, sess, dto.FlowDTO{ID: dto.FlowVerifyEmail, IsPending: true})
	case svc.Rendered:
		switch o.Template {
		case svc.TemplateAccountInactive:
			httperrors.WriteError(w, r, httperrors.ErrAccountInactive)
		case svc.TemplateSignupClosed:
			httperrors.WriteError(w, r, httperrors.ErrSignupClosed)
		default:
			httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithDetail("unexpected page outcome"))
		}
	case svc.SignupClosed:
		httperrors.WriteError(w, r, httperrors.ErrSignupClosed)
	case svc.ValidationFailed:
		httperrors.WriteError(w, r, httperrors.ErrValidation.WithFields(toFieldErrors(o.Errors)...))
	default:
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithDetail("unknown outcome"))
	}
}

func (a apiResponder) writeAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	accounts, err := a.social.Connections.List(r.Context(), userID)
	if err != nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	resp := dto.ProviderAccountsResponse{Status: http.StatusOK, Data: make([]dto.ProviderAccountDTO, 0, len(accounts))}
	for _, acc := range accounts {
		resp.Data = append(resp.Data, dto.ProviderAccountDTO{
			ID:       acc.ID,
			UID:      acc.UID,
			Display:  accountDisplay(acc),
			Provider: a.providerDTO(acc.Provider),
		})
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

func userToDTO(u *repository.User) *dto.UserDTO {
	display := u.Username
	if name := joinName(u.FirstName, u.LastName); name != "" {
		display = name
	} else if display == "" {
		display = u.Email
	}
	return &dto.UserDTO{ID: u.ID, Username: u.Username, Email: u.Email, Display: display}
}

func joinName(first, last string) string {
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	}
	return last
}

// accountDisplay elige un nombre legible de la extra_data del provider.
func accountDisplay(acc repository.SocialAccount) string {
	for _, k := range []string{"name", "login", "email"} {
		if v, ok := acc.ExtraData[k].(string); ok && v != "" {
			return v
		}
	}
	return acc.UID
}
