package social

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

func TestComplete_ExistingUserLogsInWithoutSignup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// closed signup proves the signup sub-flow never runs
	f.policy.closed = true
	user := f.seedUser(t, "ada@example.com", false, repository.SocialAccountInput{Provider: "google", UID: "123"})

	sess := newSession()
	login := googleLogin("123")
	login.Token = &repository.SocialToken{Token: "fresh"}

	out, err := f.engine.CompleteOrRaise(ctx, sess, login)
	require.NoError(t, err)

	li, ok := out.(LoggedIn)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, user.ID, li.User.ID)
	assert.Equal(t, user.ID, sess.UserID())
	assert.Equal(t, 0, f.finisher.signups)

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, AuthMethodSocial, f.recorder.records[0].method)
	assert.Equal(t, map[string]string{"provider": "google", "uid": "123"}, f.recorder.records[0].attrs)

	acc, err := f.db.SocialAccounts().GetByProviderUID(ctx, "google", "123")
	require.NoError(t, err)
	assert.Equal(t, "fresh", acc.Token.Token)
	assert.Equal(t, f.now, acc.LastLogin)
	assert.Equal(t, 1, f.metrics.seen["login/logged_in"])
}

func TestComplete_ExistingUserLogsOutDifferentCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "ada@example.com", false, repository.SocialAccountInput{Provider: "google", UID: "123"})

	sess := newSession()
	sess.userID = "someone-else"

	out, err := f.engine.CompleteOrRender(ctx, sess, googleLogin("123"))
	require.NoError(t, err)
	assert.IsType(t, LoggedIn{}, out)
	assert.Equal(t, user.ID, sess.UserID())
}

func TestComplete_NoMatchAutoSignupDisabledStoresPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.policy.noAuto = true

	sess := newSession()
	out, err := f.engine.CompleteOrRaise(ctx, sess, googleLogin("123", EmailAddress{Email: "a@b.com", Verified: true}))
	require.NoError(t, err)
	assert.Equal(t, RedirectToSignup{}, out)

	pending, err := f.engine.Pending().Load(sess)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "123", pending.UID)

	users, _ := f.db.Users().FindByEmail(ctx, "a@b.com")
	assert.Empty(t, users)
	f.guard.AssertNotCalled(t, "AssessUniqueEmail", mock.Anything, mock.Anything)
}

func TestComplete_NoEmailAndEmailRequiredRedirectsToSignup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.policy.emailRequired = true

	sess := newSession()
	login := &SocialLogin{Provider: "google", UID: "123", Emails: []EmailAddress{}, Process: ProcessLogin}

	out, err := f.engine.CompleteOrRaise(ctx, sess, login)
	require.NoError(t, err)
	assert.Equal(t, RedirectToSignup{}, out)

	pending, err := f.engine.Pending().Load(sess)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "google", pending.Provider)
	_, err = f.db.SocialAccounts().GetByProviderUID(ctx, "google", "123")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestComplete_AutoSignupCreatesUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.guard.On("AssessUniqueEmail", mock.Anything, "a@b.com").Return(EmailUnique, nil)

	sess := newSession()
	out, err := f.engine.CompleteOrRaise(ctx, sess, googleLogin("123", EmailAddress{Email: "a@b.com", Verified: true}))
	require.NoError(t, err)

	li, ok := out.(LoggedIn)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "a@b.com", li.User.Email)
	assert.Equal(t, li.User.ID, sess.UserID())
	assert.Equal(t, 1, f.finisher.signups)

	acc, err := f.db.SocialAccounts().GetByProviderUID(ctx, "google", "123")
	require.NoError(t, err)
	assert.Equal(t, li.User.ID, acc.UserID)

	emails, err := f.db.Users().ListEmails(ctx, li.User.ID)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.True(t, emails[0].Verified)
	assert.True(t, emails[0].Primary)
	f.guard.AssertExpectations(t)
}

func TestComplete_OnlyFirstEmailIsAssessed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.guard.On("AssessUniqueEmail", mock.Anything, "first@b.com").Return(EmailUnique, nil)

	out, err := f.engine.CompleteOrRaise(ctx, newSession(), googleLogin("123",
		EmailAddress{Email: "first@b.com"},
		EmailAddress{Email: "second@b.com"},
	))
	require.NoError(t, err)
	assert.IsType(t, LoggedIn{}, out)
	f.guard.AssertNotCalled(t, "AssessUniqueEmail", mock.Anything, "second@b.com")
}

func TestComplete_EmailTakenFallsBackToSignupForm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "a@b.com", true)
	f.guard.On("AssessUniqueEmail", mock.Anything, "a@b.com").Return(EmailTaken, nil)

	sess := newSession()
	out, err := f.engine.CompleteOrRaise(ctx, sess, googleLogin("123", EmailAddress{Email: "a@b.com"}))
	require.NoError(t, err)
	assert.Equal(t, RedirectToSignup{}, out)

	_, err = f.db.SocialAccounts().GetByProviderUID(ctx, "google", "123")
	assert.ErrorIs(t, err, repository.ErrNotFound, "must not link to the existing account silently")
}

func TestComplete_EnumerationHiddenLooksLikeVerificationSent(t *testing.T) {
	ctx := context.Background()

	// Hidden: another account owns the address but we may not say so.
	hidden := newFixture(t)
	hidden.seedUser(t, "a@b.com", true)
	hidden.guard.On("AssessUniqueEmail", mock.Anything, "a@b.com").Return(EmailHidden, nil)
	hidden.guard.On("PreventEnumeration", mock.Anything, mock.Anything, "a@b.com").
		Return(RedirectTo{URL: verificationSentURL}, nil)

	outHidden, err := hidden.engine.CompleteOrRaise(ctx, newSession(), googleLogin("123", EmailAddress{Email: "a@b.com"}))
	require.NoError(t, err)
	_, err = hidden.db.SocialAccounts().GetByProviderUID(ctx, "google", "123")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	users, _ := hidden.db.Users().FindByEmail(ctx, "a@b.com")
	assert.Len(t, users, 1, "no account may be created")

	// Available: the address is free and verification is mandatory.
	free := newFixture(t)
	free.finisher.verification = VerificationMandatory
	free.guard.On("AssessUniqueEmail", mock.Anything, "a@b.com").Return(EmailUnique, nil)

	outFree, err := free.engine.CompleteOrRaise(ctx, newSession(), googleLogin("123", EmailAddress{Email: "a@b.com"}))
	require.NoError(t, err)

	assert.IsType(t, outFree, outHidden)
	assert.Equal(t, outFree, outHidden)
}

func TestComplete_SignupClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.policy.closed = true

	out, err := f.engine.CompleteOrRender(ctx, newSession(), googleLogin("1"))
	require.NoError(t, err)
	assert.Equal(t, SignupClosed{}, out)

	out, err = f.engine.CompleteOrRaise(ctx, newSession(), googleLogin("2"))
	assert.ErrorIs(t, err, ErrSignupClosed)
	assert.Nil(t, out)
}

func TestComplete_RedirectProcess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	login := googleLogin("1")
	login.Process = ProcessRedirect
	out, err := f.engine.CompleteOrRaise(ctx, newSession(), login)
	require.NoError(t, err)
	assert.Equal(t, RedirectTo{URL: "/"}, out)

	login = googleLogin("2")
	login.Process = ProcessRedirect
	login.SetRedirectURL("/next/")
	out, err = f.engine.CompleteOrRaise(ctx, newSession(), login)
	require.NoError(t, err)
	assert.Equal(t, RedirectTo{URL: "/next/"}, out)
}

func TestComplete_ClearsStalePendingSignup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "ada@example.com", false, repository.SocialAccountInput{Provider: "google", UID: "123"})

	sess := newSession()
	require.NoError(t, f.engine.Pending().Save(sess, googleLogin("stale")))

	_, err := f.engine.CompleteOrRaise(ctx, sess, googleLogin("123"))
	require.NoError(t, err)

	pending, err := f.engine.Pending().Load(sess)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestComplete_ReentryIsInvariantError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "ada@example.com", false, repository.SocialAccountInput{Provider: "google", UID: "123"})

	login := googleLogin("123")
	_, err := f.engine.CompleteOrRaise(ctx, newSession(), login)
	require.NoError(t, err)

	_, err = f.engine.CompleteOrRaise(ctx, newSession(), login)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestComplete_ObserverChangingProcessIsInvariantError(t *testing.T) {
	f := newFixture(t)
	f.bus.OnPreLogin(func(_ context.Context, _ Session, l *SocialLogin) (Outcome, error) {
		l.Process = ProcessConnect
		return nil, nil
	})

	_, err := f.engine.CompleteOrRaise(context.Background(), newSession(), googleLogin("1"))
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestComplete_FirstObserverOutcomeShortCircuits(t *testing.T) {
	f := newFixture(t)
	thirdCalled := false
	f.bus.OnPreLogin(func(context.Context, Session, *SocialLogin) (Outcome, error) {
		return nil, nil
	})
	f.bus.OnPreLogin(func(context.Context, Session, *SocialLogin) (Outcome, error) {
		return Rendered{Template: "account/blocked"}, nil
	})
	f.bus.OnPreLogin(func(context.Context, Session, *SocialLogin) (Outcome, error) {
		thirdCalled = true
		return nil, nil
	})

	out, err := f.engine.CompleteOrRender(context.Background(), newSession(), googleLogin("1"))
	require.NoError(t, err)
	assert.Equal(t, Rendered{Template: "account/blocked"}, out)
	assert.False(t, thirdCalled)
	assert.Equal(t, 0, f.finisher.signups+f.finisher.logins)
}

func TestComplete_ObserverVetoPropagates(t *testing.T) {
	f := newFixture(t)
	veto := errors.New("banned domain")
	f.bus.OnPreLogin(func(context.Context, Session, *SocialLogin) (Outcome, error) {
		return nil, veto
	})

	_, err := f.engine.CompleteOrRender(context.Background(), newSession(), googleLogin("1"))
	assert.ErrorIs(t, err, veto)
}

func TestComplete_FailuresAreCountedAsOutcomes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	veto := errors.New("store down")
	f.bus.OnPreLogin(func(context.Context, Session, *SocialLogin) (Outcome, error) {
		return nil, veto
	})

	_, err := f.engine.CompleteOrRender(ctx, newSession(), googleLogin("1"))
	require.ErrorIs(t, err, veto)
	_, err = f.engine.CompleteOrRaise(ctx, newSession(), googleLogin("2"))
	require.ErrorIs(t, err, veto)

	assert.Equal(t, 2, f.metrics.seen["login/"+OutcomeError])
}

func TestComplete_RaisedValidationErrorIsCounted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "owner@example.com", true, repository.SocialAccountInput{Provider: "google", UID: "g-1"})
	me := f.seedUser(t, "me@example.com", true)

	sess := newSession()
	sess.userID = me.ID
	login := googleLogin("g-1")
	login.Process = ProcessConnect

	_, err := f.engine.CompleteOrRaise(ctx, sess, login)
	_, ok := AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, 1, f.metrics.seen["connect/validation_failed"])
}

func TestComplete_ObserverMayMergeEmails(t *testing.T) {
	f := newFixture(t)
	f.bus.OnPreLogin(func(_ context.Context, _ Session, l *SocialLogin) (Outcome, error) {
		l.Emails = append(l.Emails, EmailAddress{Email: "merged@b.com", Verified: true})
		return nil, nil
	})
	f.guard.On("AssessUniqueEmail", mock.Anything, "merged@b.com").Return(EmailUnique, nil)

	out, err := f.engine.CompleteOrRaise(context.Background(), newSession(), googleLogin("1"))
	require.NoError(t, err)
	li := out.(LoggedIn)
	assert.Equal(t, "merged@b.com", li.User.Email)
}

func TestComplete_RejectedProviderUsernameIsRegenerated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.policy.usernameRequired = true
	f.usernames.rejected["admin"] = true
	f.guard.On("AssessUniqueEmail", mock.Anything, "a@b.com").Return(EmailUnique, nil)

	login := googleLogin("1", EmailAddress{Email: "a@b.com"})
	login.User.Username = "admin"

	out, err := f.engine.CompleteOrRaise(ctx, newSession(), login)
	require.NoError(t, err)
	assert.Equal(t, "user1", out.(LoggedIn).User.Username)
}

func TestSignupByConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("email taken keeps pending signup", func(t *testing.T) {
		f := newFixture(t)
		f.guard.On("AssessUniqueEmail", mock.Anything, "taken@b.com").Return(EmailTaken, nil)
		sess := newSession()
		login := googleLogin("1")
		require.NoError(t, f.engine.Pending().Save(sess, login))

		out, err := f.engine.SignupByConfirmation(ctx, sess, login, SignupForm{Email: "taken@b.com", Username: "ada"})
		require.NoError(t, err)
		vf, ok := out.(ValidationFailed)
		require.True(t, ok, "got %T", out)
		require.Len(t, vf.Errors, 1)
		assert.Equal(t, "email", vf.Errors[0].Field)
		assert.Equal(t, CodeEmailTaken, vf.Errors[0].Code)

		pending, _ := f.engine.Pending().Load(sess)
		assert.NotNil(t, pending)
	})

	t.Run("valid form creates user and clears pending", func(t *testing.T) {
		f := newFixture(t)
		f.policy.emailRequired = true
		f.guard.On("AssessUniqueEmail", mock.Anything, "new@b.com").Return(EmailUnique, nil)
		sess := newSession()
		login := googleLogin("1", EmailAddress{Email: "other@b.com", Verified: true})
		require.NoError(t, f.engine.Pending().Save(sess, login))

		pending, err := f.engine.Pending().Load(sess)
		require.NoError(t, err)

		out, err := f.engine.SignupByConfirmation(ctx, sess, pending, SignupForm{Email: "New@b.com", Username: "ada"})
		require.NoError(t, err)
		li, ok := out.(LoggedIn)
		require.True(t, ok, "got %T", out)
		assert.Equal(t, "ada", li.User.Username)
		assert.Equal(t, "new@b.com", li.User.Email)

		emails, _ := f.db.Users().ListEmails(ctx, li.User.ID)
		require.Len(t, emails, 2)
		assert.Equal(t, "new@b.com", emails[0].Email)
		assert.False(t, emails[0].Verified)

		again, _ := f.engine.Pending().Load(sess)
		assert.Nil(t, again)
	})

	t.Run("required fields", func(t *testing.T) {
		f := newFixture(t)
		f.policy.emailRequired = true
		f.policy.usernameRequired = true

		out, err := f.engine.SignupByConfirmation(ctx, newSession(), googleLogin("1"), SignupForm{})
		require.NoError(t, err)
		vf := out.(ValidationFailed)
		assert.Len(t, vf.Errors, 2)
	})

	t.Run("hidden email answers like verification sent", func(t *testing.T) {
		f := newFixture(t)
		f.guard.On("AssessUniqueEmail", mock.Anything, "x@b.com").Return(EmailHidden, nil)
		f.guard.On("PreventEnumeration", mock.Anything, mock.Anything, "x@b.com").
			Return(RedirectTo{URL: verificationSentURL}, nil)
		sess := newSession()
		login := googleLogin("1")
		require.NoError(t, f.engine.Pending().Save(sess, login))

		out, err := f.engine.SignupByConfirmation(ctx, sess, login, SignupForm{Email: "x@b.com"})
		require.NoError(t, err)
		assert.Equal(t, RedirectTo{URL: verificationSentURL}, out)
		_, err = f.db.SocialAccounts().GetByProviderUID(ctx, "google", "1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		pending, _ := f.engine.Pending().Load(sess)
		assert.Nil(t, pending)
	})

	t.Run("signup closed", func(t *testing.T) {
		f := newFixture(t)
		f.policy.closed = true
		out, err := f.engine.SignupByConfirmation(ctx, newSession(), googleLogin("1"), SignupForm{Email: "a@b.com"})
		require.NoError(t, err)
		assert.Equal(t, SignupClosed{}, out)
	})
}
