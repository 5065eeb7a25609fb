package social

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/render"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/account"
	svc "github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// Template keys de las páginas propias del adapter.
const (
	pageLogin             = "account/login"
	pageVerificationSent  = "account/verification_sent"
	pageEmailConfirmed    = "account/email_confirmed"
	pageEmailInvalid      = "account/email_confirm_invalid"
	pageSignup            = "socialaccount/signup"
	pageConnections       = "socialaccount/connections"
	pageLoginCancelled    = "socialaccount/login_cancelled"
	pageAuthenticationErr = "socialaccount/authentication_error"
)

// PagesController implementa el flujo server-rendered.
type PagesController struct {
	social       svc.Services
	verification *account.VerificationService
	providers    *providers.Registry
	render       *render.Renderer
	urls         URLs
}

func NewPagesController(d Deps) *PagesController {
	return &PagesController{
		social:       d.Social,
		verification: d.Verification,
		providers:    d.Providers,
		render:       d.Renderer,
		urls:         d.URLs.withDefaults(),
	}
}

// safeNext acepta solo paths locales ("/x", no "//host").
func safeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// writeOutcome traduce un Outcome a redirect o página.
func (c *PagesController) writeOutcome(w http.ResponseWriter, r *http.Request, out svc.Outcome) {
	switch o := out.(type) {
	case svc.LoggedIn:
		http.Redirect(w, r, safeNext(o.RedirectURL, c.urls.LoginRedirect), http.StatusFound)
	case svc.RedirectToSignup:
		http.Redirect(w, r, c.urls.Signup, http.StatusFound)
	case svc.RedirectTo:
		http.Redirect(w, r, o.URL, http.StatusFound)
	case svc.Rendered:
		c.render.Render(w, r, http.StatusOK, o.Template, o.Data)
	case svc.SignupClosed:
		c.render.Render(w, r, http.StatusForbidden, svc.TemplateSignupClosed, nil)
	case svc.ValidationFailed:
		c.render.Render(w, r, http.StatusBadRequest, pageAuthenticationErr, map[string]any{
			"Errors":   o.Errors,
			"LoginURL": c.urls.Login,
		})
	default:
		c.fail(w, r, errors.New("unknown outcome"))
	}
}

func (c *PagesController) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.From(r.Context()).Error("page flow failed", logger.Layer("controller"), logger.Err(err))
	c.render.Render(w, r, http.StatusInternalServerError, pageAuthenticationErr, map[string]any{"LoginURL": c.urls.Login})
}

// Login maneja GET /accounts/login/
func (c *PagesController) Login(w http.ResponseWriter, r *http.Request) {
	c.render.Render(w, r, http.StatusOK, pageLogin, map[string]any{
		"Title":     "Ingresar",
		"Providers": c.providers.List(),
		"Next":      safeNext(r.URL.Query().Get("next"), ""),
	})
}

// Logout maneja POST /accounts/logout/
func (c *PagesController) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.Destroy()
	}
	http.Redirect(w, r, c.urls.Login, http.StatusFound)
}

// TokenLogin maneja POST /accounts/social/{provider}/token/
func (c *PagesController) TokenLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		c.writeOutcome(w, r, svc.ValidationFailed{Errors: svc.NewValidationError("", svc.CodeRequired).Errors})
		return
	}

	tok := map[string]any{}
	for _, k := range []string{"client_id", "id_token", "access_token"} {
		if v := r.PostFormValue(k); v != "" {
			tok[k] = v
		}
	}
	login, err := verifyTokenInput(ctx, c.providers, tokenInput{
		Provider: chi.URLParam(r, "provider"),
		Process:  r.PostFormValue("process"),
		Token:    tok,
	})
	if err != nil {
		if verr, ok := svc.AsValidation(err); ok {
			c.writeOutcome(w, r, svc.ValidationFailed{Errors: verr.Errors})
			return
		}
		c.fail(w, r, err)
		return
	}
	if next := safeNext(r.PostFormValue("next"), ""); next != "" {
		login.SetRedirectURL(next)
	}

	out, err := c.social.Engine.CompleteOrRender(ctx, session.FromContext(ctx), login)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.writeOutcome(w, r, out)
}

// Signup maneja GET|POST /accounts/social/signup/
func (c *PagesController) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	login, err := c.social.Pending.Load(sess)
	if err != nil || login == nil {
		c.social.Pending.Clear(sess)
		http.Redirect(w, r, c.urls.Login, http.StatusFound)
		return
	}
	if !c.social.Engine.IsOpenForSignup(ctx, login) {
		c.render.Render(w, r, http.StatusForbidden, svc.TemplateSignupClosed, nil)
		return
	}

	view := map[string]any{
		"Title":        "Registro",
		"Action":       c.urls.Signup,
		"ProviderName": c.providers.Name(login.Provider),
		"Email":        login.FirstEmail(),
	}
	if login.User != nil {
		view["Username"] = login.User.Username
		if login.FirstEmail() == "" {
			view["Email"] = login.User.Email
		}
	}

	if r.Method != http.MethodPost {
		c.render.Render(w, r, http.StatusOK, pageSignup, view)
		return
	}

	form := svc.SignupForm{Email: r.PostFormValue("email"), Username: r.PostFormValue("username")}
	out, err := c.social.Engine.SignupByConfirmation(ctx, sess, login, form)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if vf, ok := out.(svc.ValidationFailed); ok {
		view["Email"], view["Username"], view["Errors"] = form.Email, form.Username, vf.Errors
		c.render.Render(w, r, http.StatusOK, pageSignup, view)
		return
	}
	c.writeOutcome(w, r, out)
}

type connectionView struct {
	ID           string
	UID          string
	ProviderName string
}

// Connections maneja GET|POST /accounts/social/connections/ (requiere usuario).
// POST con "account" desconecta esa cuenta.
func (c *PagesController) Connections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := session.FromContext(ctx).UserID()

	var errs []svc.FieldError
	if r.Method == http.MethodPost {
		err := c.disconnect(r, userID, r.PostFormValue("account"))
		if err == nil {
			http.Redirect(w, r, c.urls.Connections, http.StatusFound)
			return
		}
		verr, ok := svc.AsValidation(err)
		if !ok {
			c.fail(w, r, err)
			return
		}
		errs = verr.Errors
	}

	accounts, err := c.social.Connections.List(ctx, userID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.render.Render(w, r, http.StatusOK, pageConnections, map[string]any{
		"Title":    "Cuentas conectadas",
		"Action":   c.urls.Connections,
		"Accounts": c.connectionViews(accounts),
		"Errors":   errs,
	})
}

func (c *PagesController) disconnect(r *http.Request, userID, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return svc.NewValidationError("account", svc.CodeRequired)
	}
	acc, err := c.social.Connections.Find(r.Context(), userID, "", accountID)
	if err != nil {
		return err
	}
	return c.social.Connections.Disconnect(r.Context(), acc)
}

func (c *PagesController) connectionViews(accounts []repository.SocialAccount) []connectionView {
	out := make([]connectionView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, connectionView{ID: a.ID, UID: a.UID, ProviderName: c.providers.Name(a.Provider)})
	}
	return out
}

// LoginCancelled maneja GET /accounts/social/login/cancelled/
func (c *PagesController) LoginCancelled(w http.ResponseWriter, r *http.Request) {
	c.render.Render(w, r, http.StatusOK, pageLoginCancelled, map[string]any{"LoginURL": c.urls.Login})
}

// LoginError maneja GET /accounts/social/login/error/
func (c *PagesController) LoginError(w http.ResponseWriter, r *http.Request) {
	c.render.Render(w, r, http.StatusOK, pageAuthenticationErr, map[string]any{"LoginURL": c.urls.Login})
}

// VerificationSent maneja GET /accounts/confirm-email/
func (c *PagesController) VerificationSent(w http.ResponseWriter, r *http.Request) {
	c.render.Render(w, r, http.StatusOK, pageVerificationSent, nil)
}

// ConfirmEmail maneja GET /accounts/confirm-email/{key}/
func (c *PagesController) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	key, _ := url.PathUnescape(chi.URLParam(r, "key"))
	conf, err := c.verification.Confirm(r.Context(), key)
	switch {
	case errors.Is(err, account.ErrInvalidConfirmationKey):
		c.render.Render(w, r, http.StatusNotFound, pageEmailInvalid, nil)
	case err != nil:
		c.fail(w, r, err)
	default:
		c.render.Render(w, r, http.StatusOK, pageEmailConfirmed, map[string]any{
			"Email":    conf.Email,
			"LoginURL": c.urls.Login,
		})
	}
}
