package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
)

func apiServer(t *testing.T, emailsStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(userInfo{ID: 42, Login: "octo", Name: "Octo Cat", Email: "public@example.com"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if emailsStatus != http.StatusOK {
			w.WriteHeader(emailsStatus)
			return
		}
		_ = json.NewEncoder(w).Encode([]emailInfo{
			{Email: "old@example.com", Verified: false},
			{Email: "work@example.com", Verified: true},
			{Email: "main@example.com", Verified: true, Primary: true},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(url string) *Provider {
	return NewWithClient(providers.Config{Enabled: true, TokenAuth: true, Extra: map[string]string{"api_url": url}}, http.DefaultClient)
}

func TestVerifyToken_OrdersEmails(t *testing.T) {
	srv := apiServer(t, http.StatusOK)
	login, err := newProvider(srv.URL).VerifyToken(context.Background(), providers.Token{AccessToken: "gho_ok"})
	require.NoError(t, err)

	assert.Equal(t, "42", login.UID)
	require.Len(t, login.Emails, 3)
	assert.Equal(t, "main@example.com", login.Emails[0].Email)
	assert.Equal(t, "work@example.com", login.Emails[1].Email)
	assert.Equal(t, "main@example.com", login.User.Email)
	assert.Equal(t, "octo", login.User.Username)
	assert.Equal(t, "Octo", login.User.FirstName)
	assert.Equal(t, "Cat", login.User.LastName)
}

func TestVerifyToken_EmailsForbiddenFallsBackToPublic(t *testing.T) {
	srv := apiServer(t, http.StatusForbidden)
	login, err := newProvider(srv.URL).VerifyToken(context.Background(), providers.Token{AccessToken: "gho_ok"})
	require.NoError(t, err)
	require.Len(t, login.Emails, 1)
	assert.False(t, login.Emails[0].Verified)
	assert.Equal(t, "public@example.com", login.FirstEmail())
}

func TestVerifyToken_Invalid(t *testing.T) {
	srv := apiServer(t, http.StatusOK)
	p := newProvider(srv.URL)

	_, err := p.VerifyToken(context.Background(), providers.Token{AccessToken: "bad"})
	assert.ErrorIs(t, err, providers.ErrInvalidToken)

	_, err = p.VerifyToken(context.Background(), providers.Token{IDToken: "x"})
	assert.ErrorIs(t, err, providers.ErrInvalidToken)
}
