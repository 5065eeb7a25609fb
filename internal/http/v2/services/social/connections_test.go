package social

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

func TestConnect_FreshIdentityKeepsCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "ada@example.com", true)

	var events []string
	f.bus.Subscribe(func(_ context.Context, ev Event) { events = append(events, ev.Name) })

	sess := newSession()
	sess.userID = user.ID
	login := googleLogin("g-1")
	login.Process = ProcessConnect

	out, err := f.engine.CompleteOrRaise(ctx, sess, login)
	require.NoError(t, err)
	assert.Equal(t, RedirectTo{URL: "/accounts/social/connections/"}, out)
	assert.Equal(t, user.ID, sess.UserID())
	assert.Equal(t, []string{EventSocialAccountAdded}, events)

	acc, err := f.db.SocialAccounts().GetByProviderUID(ctx, "google", "g-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, acc.UserID)
}

func TestConnect_AlreadyConnectedToOtherUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "owner@example.com", true, repository.SocialAccountInput{Provider: "google", UID: "g-1"})
	me := f.seedUser(t, "me@example.com", true)

	newConnect := func() *SocialLogin {
		l := googleLogin("g-1")
		l.Process = ProcessConnect
		return l
	}

	sess := newSession()
	sess.userID = me.ID
	_, err := f.engine.CompleteOrRaise(ctx, sess, newConnect())
	verr, ok := AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.True(t, verr.HasCode(CodeAccountAlreadyConnected))

	out, err := f.engine.CompleteOrRender(ctx, sess, newConnect())
	require.NoError(t, err)
	vf, ok := out.(ValidationFailed)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, CodeAccountAlreadyConnected, vf.Errors[0].Code)
	assert.Equal(t, me.ID, sess.UserID())
}

func TestConnect_SameUserRefreshesToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	me := f.seedUser(t, "me@example.com", true, repository.SocialAccountInput{Provider: "google", UID: "g-1"})

	sess := newSession()
	sess.userID = me.ID
	login := googleLogin("g-1")
	login.Process = ProcessConnect
	login.SetRedirectURL("/settings/")
	login.Token = &repository.SocialToken{Token: "new"}

	out, err := f.engine.CompleteOrRaise(ctx, sess, login)
	require.NoError(t, err)
	assert.Equal(t, RedirectTo{URL: "/settings/"}, out)

	acc, _ := f.db.SocialAccounts().GetByProviderUID(ctx, "google", "g-1")
	assert.Equal(t, "new", acc.Token.Token)
}

func TestConnect_RequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	login := googleLogin("g-1")
	login.Process = ProcessConnect

	_, err := f.engine.CompleteOrRaise(context.Background(), newSession(), login)
	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.True(t, verr.HasCode(CodeNotAuthenticated))
}

func TestDisconnect_LastConnectionWithoutPasswordFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "ada@example.com", false, repository.SocialAccountInput{Provider: "google", UID: "g-1"})

	acc, err := f.connections.Find(ctx, user.ID, "google", "g-1")
	require.NoError(t, err)

	err = f.connections.Disconnect(ctx, acc)
	verr, ok := AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.True(t, verr.HasCode(CodeNoPassword))

	list, _ := f.connections.List(ctx, user.ID)
	assert.Len(t, list, 1, "no deletion may happen")
}

func TestDisconnect_ChecksPostRemovalState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "ada@example.com", false,
		repository.SocialAccountInput{Provider: "google", UID: "g-1"},
		repository.SocialAccountInput{Provider: "github", UID: "gh-1"},
	)

	var removed []string
	f.bus.Subscribe(func(_ context.Context, ev Event) {
		if ev.Name == EventSocialAccountRemoved {
			removed = append(removed, ev.Account.Provider)
		}
	})

	first, err := f.connections.Find(ctx, user.ID, "google", "g-1")
	require.NoError(t, err)
	require.NoError(t, f.connections.Disconnect(ctx, first))

	second, err := f.connections.Find(ctx, user.ID, "github", "gh-1")
	require.NoError(t, err)
	assert.Error(t, f.connections.Disconnect(ctx, second), "removing the last method must fail")
	assert.Equal(t, []string{"google"}, removed)
}

func TestDisconnect_WithPasswordSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "ada@example.com", true, repository.SocialAccountInput{Provider: "google", UID: "g-1"})

	acc, err := f.connections.Find(ctx, user.ID, "google", "g-1")
	require.NoError(t, err)
	require.NoError(t, f.connections.Disconnect(ctx, acc))

	list, _ := f.connections.List(ctx, user.ID)
	assert.Empty(t, list)
}

func TestDisconnect_MandatoryVerificationNeedsVerifiedEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.policy.verification = VerificationMandatory
	user := f.seedUser(t, "ada@example.com", true, repository.SocialAccountInput{Provider: "google", UID: "g-1"})

	acc, _ := f.connections.Find(ctx, user.ID, "google", "g-1")
	verr, ok := AsValidation(f.connections.Disconnect(ctx, acc))
	require.True(t, ok)
	assert.True(t, verr.HasCode(CodeNoVerifiedEmail))

	require.NoError(t, f.db.Users().MarkEmailVerified(ctx, user.ID, "ada@example.com"))
	assert.NoError(t, f.connections.Disconnect(ctx, acc))
}

func TestDisconnect_MandatoryVerificationOnlyGuardsLastConnection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.policy.verification = VerificationMandatory
	user := f.seedUser(t, "ada@example.com", true,
		repository.SocialAccountInput{Provider: "google", UID: "g-1"},
		repository.SocialAccountInput{Provider: "github", UID: "gh-1"},
	)

	google, err := f.connections.Find(ctx, user.ID, "google", "g-1")
	require.NoError(t, err)
	require.NoError(t, f.connections.Disconnect(ctx, google))

	github, err := f.connections.Find(ctx, user.ID, "github", "gh-1")
	require.NoError(t, err)
	verr, ok := AsValidation(f.connections.Disconnect(ctx, github))
	require.True(t, ok)
	assert.True(t, verr.HasCode(CodeNoVerifiedEmail))

	list, _ := f.connections.List(ctx, user.ID)
	assert.Len(t, list, 1)
}

func TestDisconnect_PreObserverVeto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "ada@example.com", true, repository.SocialAccountInput{Provider: "google", UID: "g-1"})
	veto := errors.New("locked by admin")
	f.bus.OnPreDisconnect(func(context.Context, *repository.SocialAccount) error { return veto })

	acc, _ := f.connections.Find(ctx, user.ID, "google", "g-1")
	assert.ErrorIs(t, f.connections.Disconnect(ctx, acc), veto)
	list, _ := f.connections.List(ctx, user.ID)
	assert.Len(t, list, 1)
}

func TestFind_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "ada@example.com", true)
	f.seedUser(t, "bob@example.com", true, repository.SocialAccountInput{Provider: "google", UID: "g-1"})

	_, err := f.connections.Find(ctx, user.ID, "google", "g-1")
	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.True(t, verr.HasCode(CodeAccountNotFound))
}
