package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

func TestCreateUser_WithSocialAccountIsAtomic(t *testing.T) {
	ctx := context.Background()
	c := New()

	u, err := c.Users().Create(ctx, repository.CreateUserInput{
		Username: "jane",
		Email:    "jane@example.com",
		EmailAddresses: []repository.EmailAddressInput{
			{Email: "Jane@Example.com", Verified: true, Primary: true},
		},
		SocialAccount: &repository.SocialAccountInput{Provider: "google", UID: "g-1"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	acc, err := c.SocialAccounts().GetByProviderUID(ctx, "google", "g-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, acc.UserID)

	// mismo provider+uid: conflicto y no se crea el usuario
	_, err = c.Users().Create(ctx, repository.CreateUserInput{
		Username:      "other",
		SocialAccount: &repository.SocialAccountInput{Provider: "google", UID: "g-1"},
	})
	require.ErrorIs(t, err, repository.ErrConflict)
	exists, err := c.Users().UsernameExists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUsernameUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.Users().Create(ctx, repository.CreateUserInput{Username: "Jane"})
	require.NoError(t, err)

	exists, err := c.Users().UsernameExists(ctx, "jane")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = c.Users().Create(ctx, repository.CreateUserInput{Username: "JANE"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	// username vacío nunca colisiona
	_, err = c.Users().Create(ctx, repository.CreateUserInput{})
	require.NoError(t, err)
	_, err = c.Users().Create(ctx, repository.CreateUserInput{})
	require.NoError(t, err)
}

func TestFindByEmail_MatchesSecondaryAddresses(t *testing.T) {
	ctx := context.Background()
	c := New()

	u, err := c.Users().Create(ctx, repository.CreateUserInput{
		Username: "a",
		Email:    "primary@example.com",
		EmailAddresses: []repository.EmailAddressInput{
			{Email: "primary@example.com", Primary: true},
			{Email: "alt@example.com"},
		},
	})
	require.NoError(t, err)

	got, err := c.Users().FindByEmail(ctx, "ALT@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, u.ID, got[0].ID)

	got, err = c.Users().FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMarkEmailVerified(t *testing.T) {
	ctx := context.Background()
	c := New()

	u, err := c.Users().Create(ctx, repository.CreateUserInput{
		EmailAddresses: []repository.EmailAddressInput{{Email: "x@example.com", Primary: true}},
	})
	require.NoError(t, err)

	require.NoError(t, c.Users().MarkEmailVerified(ctx, u.ID, "X@example.com"))
	emails, err := c.Users().ListEmails(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.True(t, emails[0].Verified)

	assert.ErrorIs(t, c.Users().MarkEmailVerified(ctx, u.ID, "y@example.com"), repository.ErrNotFound)
}

func TestSocialAccounts_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	c := New()
	accounts := c.SocialAccounts()

	_, err := accounts.Create(ctx, "missing-user", repository.SocialAccountInput{Provider: "github", UID: "1"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	u, err := c.Users().Create(ctx, repository.CreateUserInput{Username: "dev"})
	require.NoError(t, err)

	acc, err := accounts.Create(ctx, u.ID, repository.SocialAccountInput{
		Provider: "github",
		UID:      "1",
		Token:    &repository.SocialToken{Token: "t1"},
	})
	require.NoError(t, err)

	_, err = accounts.Create(ctx, u.ID, repository.SocialAccountInput{Provider: "github", UID: "1"})
	require.ErrorIs(t, err, repository.ErrConflict)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, accounts.UpdateLogin(ctx, acc.ID, map[string]any{"login": "dev"}, nil, at))

	got, err := accounts.GetByProviderUID(ctx, "github", "1")
	require.NoError(t, err)
	assert.Equal(t, "dev", got.ExtraData["login"])
	require.NotNil(t, got.Token)
	assert.Equal(t, "t1", got.Token.Token, "a nil token keeps the stored one")
	assert.Equal(t, at, got.LastLogin)

	list, err := accounts.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, accounts.Delete(ctx, acc.ID))
	assert.ErrorIs(t, accounts.Delete(ctx, acc.ID), repository.ErrNotFound)
}
