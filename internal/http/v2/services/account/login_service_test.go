package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
)

func TestPerformLogin_InactiveUser(t *testing.T) {
	f := newFixture(t, Config{})
	sess := f.newSession(t)

	out, err := f.svcs.Finisher.PerformLogin(context.Background(), sess, &repository.User{ID: "u1", IsActive: false}, "", nil)
	require.NoError(t, err)
	r, ok := out.(social.Rendered)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, social.TemplateAccountInactive, r.Template)
	assert.Empty(t, sess.UserID())
}

func TestPerformLogin_MandatoryVerificationDefersLogin(t *testing.T) {
	f := newFixture(t, Config{EmailVerification: social.VerificationMandatory, VerificationSentURL: "/sent/"})
	u := f.seedUser(t, "ana", "ana@example.com", false)
	sess := f.newSession(t)

	out, err := f.svcs.Finisher.PerformLogin(context.Background(), sess, u, "/next", nil)
	require.NoError(t, err)
	assert.Equal(t, social.RedirectTo{URL: "/sent/"}, out)
	assert.Empty(t, sess.UserID())
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "verify", f.mailer.sent[0].kind)
	assert.NotContains(t, f.events, social.EventUserLoggedIn)
}

func TestPerformLogin_BindsSession(t *testing.T) {
	f := newFixture(t, Config{EmailVerification: social.VerificationMandatory, LoginRedirectURL: "/home"})
	u := f.seedUser(t, "ana", "ana@example.com", true)
	sess := f.newSession(t)
	ctx := context.Background()

	out, err := f.svcs.Finisher.PerformLogin(ctx, sess, u, "", nil)
	require.NoError(t, err)
	li, ok := out.(social.LoggedIn)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "/home", li.RedirectURL)
	assert.Equal(t, u.ID, sess.UserID())
	assert.Equal(t, []string{social.EventUserLoggedIn}, f.events)

	reloaded, err := f.conn.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLoginAt)
	assert.Empty(t, f.mailer.sent)
}

func TestCompleteSignup_OptionalVerificationMailsAndLogsIn(t *testing.T) {
	f := newFixture(t, Config{EmailVerification: social.VerificationOptional})
	u := f.seedUser(t, "ana", "ana@example.com", false)
	sess := f.newSession(t)
	login := &social.SocialLogin{Provider: "google", UID: "123"}

	out, err := f.svcs.Finisher.CompleteSignup(context.Background(), sess, u, "/welcome", login)
	require.NoError(t, err)
	li, ok := out.(social.LoggedIn)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "/welcome", li.RedirectURL)
	assert.Equal(t, []string{social.EventUserSignedUp, social.EventUserLoggedIn}, f.events)
	require.Len(t, f.mailer.sent, 1)

	records := AuthenticationMethods(sess)
	require.Len(t, records, 1)
	assert.Equal(t, social.AuthMethodSocial, records[0].Method)
	assert.Equal(t, "google", records[0].Attrs["provider"])
}
