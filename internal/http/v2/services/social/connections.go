package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// ConnectionsDeps contains the collaborators of the connection manager.
type ConnectionsDeps struct {
	Users    repository.UserRepository
	Accounts repository.SocialAccountRepository
	Policy   SignupPolicy
	Bus      *Bus
	// ConnectionsURL is where a successful connect redirects by default.
	ConnectionsURL string
	Now            func() time.Time
}

// Connections links and unlinks external identities.
type Connections struct {
	deps ConnectionsDeps
}

func NewConnections(d ConnectionsDeps) *Connections {
	if d.Bus == nil {
		d.Bus = NewBus()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.ConnectionsURL == "" {
		d.ConnectionsURL = "/"
	}
	return &Connections{deps: d}
}

// Connect binds the login to the session's user. The logged-in user is
// never changed by a connect.
func (c *Connections) Connect(ctx context.Context, sess Session, login *SocialLogin) (Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.connections"),
		logger.Op("Connect"),
		logger.Provider(login.Provider),
	)

	userID := sess.UserID()
	if userID == "" {
		return nil, NewValidationError("", CodeNotAuthenticated)
	}

	next := login.RedirectURL()
	if next == "" {
		next = c.deps.ConnectionsURL
	}

	if login.IsExisting() {
		if login.Account.UserID != userID {
			log.Info("identity connected to another user", logger.UserID(userID))
			return nil, NewValidationError("", CodeAccountAlreadyConnected)
		}
		if err := login.accept(); err != nil {
			return nil, err
		}
		if err := c.deps.Accounts.UpdateLogin(ctx, login.Account.ID, login.ExtraData, login.Token, c.deps.Now()); err != nil {
			return nil, fmt.Errorf("refresh social account: %w", err)
		}
		c.deps.Bus.Emit(ctx, Event{Name: EventSocialAccountUpdated, UserID: userID, Login: login, Account: login.Account})
		return RedirectTo{URL: next}, nil
	}

	acc, err := c.deps.Accounts.Create(ctx, userID, repository.SocialAccountInput{
		Provider:  login.Provider,
		UID:       login.UID,
		ExtraData: login.ExtraData,
		Token:     login.Token,
	})
	if err != nil {
		// lost a race against another connect of the same identity
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewValidationError("", CodeAccountAlreadyConnected)
		}
		return nil, fmt.Errorf("create social account: %w", err)
	}
	login.Account = acc
	if err := login.accept(); err != nil {
		return nil, err
	}

	log.Info("social account connected", logger.UserID(userID), logger.UID(login.UID))
	c.deps.Bus.Emit(ctx, Event{Name: EventSocialAccountAdded, UserID: userID, Login: login, Account: acc})
	return RedirectTo{URL: next}, nil
}

// List returns the user's connections.
func (c *Connections) List(ctx context.Context, userID string) ([]repository.SocialAccount, error) {
	return c.deps.Accounts.ListByUser(ctx, userID)
}

// Find resolves a connection of userID by provider and uid (or by id
// when uid is empty). Unknown accounts yield account_not_found.
func (c *Connections) Find(ctx context.Context, userID, provider, uidOrID string) (*repository.SocialAccount, error) {
	accounts, err := c.deps.Accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		a := &accounts[i]
		if (provider == "" && a.ID == uidOrID) || (a.Provider == provider && a.UID == uidOrID) {
			return a, nil
		}
	}
	return nil, NewValidationError("account", CodeAccountNotFound)
}

// ValidateDisconnect checks the state after removing account: the user
// must keep a way to sign in. Password and verified-email requirements
// only apply when account is the last connection.
func (c *Connections) ValidateDisconnect(ctx context.Context, account *repository.SocialAccount) error {
	user, err := c.deps.Users.GetByID(ctx, account.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	accounts, err := c.deps.Accounts.ListByUser(ctx, account.UserID)
	if err != nil {
		return err
	}
	remaining := 0
	for _, a := range accounts {
		if a.ID != account.ID {
			remaining++
		}
	}

	// Other connections remain, so the user can still sign in.
	if remaining > 0 {
		return nil
	}
	if !user.HasUsablePassword() {
		return NewValidationError("account", CodeNoPassword)
	}

	if c.deps.Policy.EmailVerification() == VerificationMandatory {
		emails, err := c.deps.Users.ListEmails(ctx, account.UserID)
		if err != nil {
			return err
		}
		verified := false
		for _, e := range emails {
			if e.Verified {
				verified = true
				break
			}
		}
		if !verified {
			return NewValidationError("account", CodeNoVerifiedEmail)
		}
	}
	return nil
}

// Disconnect validates and removes the connection.
func (c *Connections) Disconnect(ctx context.Context, account *repository.SocialAccount) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.connections"),
		logger.Op("Disconnect"),
		logger.Provider(account.Provider),
		logger.UserID(account.UserID),
	)

	if err := c.ValidateDisconnect(ctx, account); err != nil {
		log.Info("disconnect rejected", logger.Err(err))
		return err
	}
	if err := c.deps.Bus.RunPreDisconnect(ctx, account); err != nil {
		return err
	}
	if err := c.deps.Accounts.Delete(ctx, account.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewValidationError("account", CodeAccountNotFound)
		}
		return fmt.Errorf("delete social account: %w", err)
	}

	log.Info("social account disconnected", logger.UID(account.UID))
	c.deps.Bus.Emit(ctx, Event{Name: EventSocialAccountRemoved, UserID: account.UserID, Account: account})
	return nil
}
