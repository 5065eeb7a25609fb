package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialauth/internal/config"
	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	dto "github.com/dropDatabas3/socialauth/internal/http/v2/dto/social"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// fakeProvider acepta cualquier id_token y lo usa como uid.
type fakeProvider struct{}

func (fakeProvider) ID() string                        { return "acme" }
func (fakeProvider) Name() string                      { return "Acme" }
func (fakeProvider) ClientID() string                  { return "" }
func (fakeProvider) UsesApps() bool                    { return false }
func (fakeProvider) SupportsTokenAuthentication() bool { return true }

func (fakeProvider) VerifyToken(_ context.Context, tok providers.Token) (*social.SocialLogin, error) {
	if tok.IDToken == "" || tok.IDToken == "bad" {
		return nil, providers.ErrInvalidToken
	}
	email := tok.IDToken + "@example.com"
	return &social.SocialLogin{
		Provider:  "acme",
		UID:       tok.IDToken,
		ExtraData: map[string]any{"name": "Ana " + tok.IDToken},
		Emails:    []social.EmailAddress{{Email: email, Verified: true, Primary: true}},
		User:      &repository.User{Username: tok.IDToken, Email: email, IsActive: true},
	}, nil
}

func newTestApp(t *testing.T, yaml string) *App {
	t.Helper()
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if yaml != "" {
		path = writeConfig(t, yaml)
	}
	cfg, err := config.Load(path)
	require.NoError(t, err)

	app, err := Build(context.Background(), cfg, WithProvider(fakeProvider{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeFile(p, body))
	return p
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(session.HeaderName, c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if tok, ok := rec.Header()[http.CanonicalHeaderKey(session.HeaderName)]; ok {
		c.token = strings.Join(tok, "")
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func tokenBody(uid, process string) map[string]any {
	return map[string]any{
		"provider": "acme",
		"process":  process,
		"token":    map[string]any{"id_token": uid},
	}
}

func TestTokenLogin_AutoSignupThenSessionAndLogout(t *testing.T) {
	app := newTestApp(t, "")
	c := &client{t: t, h: app.Handler}

	rec := c.do(http.MethodPost, "/v2/auth/social/token", tokenBody("ana", "login"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	auth := decode[dto.AuthResponse](t, rec)
	assert.True(t, auth.Meta.IsAuthenticated)
	require.NotNil(t, auth.Data.User)
	assert.Equal(t, "ana@example.com", auth.Data.User.Email)
	require.NotEmpty(t, c.token)

	rec = c.do(http.MethodGet, "/v2/auth/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/v2/account/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	accounts := decode[dto.ProviderAccountsResponse](t, rec)
	require.Len(t, accounts.Data, 1)
	assert.Equal(t, "ana", accounts.Data[0].UID)
	assert.Equal(t, "Ana ana", accounts.Data[0].Display)

	// única forma de entrar y sin password: no se puede desconectar
	rec = c.do(http.MethodDelete, "/v2/account/providers", map[string]any{"provider": "acme", "account": "ana"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = c.do(http.MethodDelete, "/v2/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, decode[dto.AuthResponse](t, rec).Meta.IsAuthenticated)
}

func TestTokenLogin_ConnectSecondIdentity(t *testing.T) {
	app := newTestApp(t, "")
	c := &client{t: t, h: app.Handler}

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/v2/auth/social/token", tokenBody("ana", "login")).Code)

	rec := c.do(http.MethodPost, "/v2/auth/social/token", tokenBody("ana-work", "connect"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accounts := decode[dto.ProviderAccountsResponse](t, rec)
	assert.Len(t, accounts.Data, 2)

	// con dos conexiones sí se puede quitar una
	rec = c.do(http.MethodDelete, "/v2/account/providers", map[string]any{"provider": "acme", "account": "ana-work"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[dto.ProviderAccountsResponse](t, rec).Data, 1)
}

func TestTokenLogin_PendingSignup(t *testing.T) {
	app := newTestApp(t, "socialaccount:\n  auto_signup: false\n")
	c := &client{t: t, h: app.Handler}

	rec := c.do(http.MethodPost, "/v2/auth/social/token", tokenBody("bob", "login"))
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
	auth := decode[dto.AuthResponse](t, rec)
	var pending bool
	for _, f := range auth.Data.Flows {
		if f.ID == dto.FlowProviderSignup && f.IsPending {
			pending = true
		}
	}
	assert.True(t, pending, "expected a pending provider_signup flow")

	rec = c.do(http.MethodGet, "/v2/auth/social/signup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	form := decode[dto.PendingSignupResponse](t, rec)
	assert.Equal(t, "bob@example.com", form.Data.Email)
	assert.Equal(t, "acme", form.Data.Provider.ID)

	rec = c.do(http.MethodPost, "/v2/auth/social/signup", map[string]any{"email": "bob@example.com", "username": "bobby"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	auth = decode[dto.AuthResponse](t, rec)
	require.NotNil(t, auth.Data.User)
	assert.Equal(t, "bobby", auth.Data.User.Username)

	// el pendiente se consumió
	assert.Equal(t, http.StatusConflict, c.do(http.MethodGet, "/v2/auth/social/signup", nil).Code)
}

func TestTokenLogin_Errors(t *testing.T) {
	app := newTestApp(t, "")
	c := &client{t: t, h: app.Handler}

	rec := c.do(http.MethodPost, "/v2/auth/social/token", tokenBody("bad", "login"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/v2/auth/social/token", map[string]any{"provider": "nope", "process": "login", "token": map[string]any{"id_token": "x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/v2/auth/social/token", tokenBody("ana", "redirect"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/v2/account/providers", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupClosed(t *testing.T) {
	app := newTestApp(t, "account:\n  signup_open: false\n")
	c := &client{t: t, h: app.Handler}

	rec := c.do(http.MethodPost, "/v2/auth/social/token", tokenBody("carl", "login"))
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, "metrics:\n  enabled: true\n")
	c := &client{t: t, h: app.Handler}

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/readyz", nil).Code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/v2/auth/social/token", tokenBody("dan", "login")).Code)

	rec := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "social_events_total")
}

func TestProvidersEndpoint(t *testing.T) {
	app := newTestApp(t, "")
	c := &client{t: t, h: app.Handler}

	rec := c.do(http.MethodGet, "/v2/auth/social/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dto.ProvidersResponse](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "acme", resp.Data[0].ID)
	assert.Equal(t, []string{dto.FlowProviderToken}, resp.Data[0].Flows)
}

func writeFile(p, body string) error { return os.WriteFile(p, []byte(body), 0o600) }
