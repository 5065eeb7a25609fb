package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/security/password"
)

// AuthMethodSocial tags authentication records produced by social logins.
const AuthMethodSocial = "socialaccount"

// EngineDeps contains the collaborators of the completion engine.
type EngineDeps struct {
	Users       repository.UserRepository
	Accounts    repository.SocialAccountRepository
	Policy      SignupPolicy
	Usernames   UsernamePolicy
	Finisher    LoginFinisher
	Recorder    AuthRecorder
	AutoSignup  *AutoSignup
	Guard       EnumerationGuard
	Connections *Connections
	Bus         *Bus
	Metrics     OutcomeObserver
	Now         func() time.Time
}

// Engine runs the social login completion state machine.
type Engine struct {
	deps    EngineDeps
	pending PendingSignupStore
}

func NewEngine(d EngineDeps) *Engine {
	if d.Bus == nil {
		d.Bus = NewBus()
	}
	if d.Metrics == nil {
		d.Metrics = nopObserver{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{deps: d}
}

// Pending exposes the pending signup store used by the engine.
func (e *Engine) Pending() PendingSignupStore { return e.pending }

// IsOpenForSignup reports whether login may still become a new user.
func (e *Engine) IsOpenForSignup(ctx context.Context, login *SocialLogin) bool {
	return e.deps.Policy.IsOpenForSignup(ctx, login)
}

// completion is the typed result of a run: either an outcome or "closed".
type completion struct {
	outcome Outcome
	closed  bool
}

// CompleteOrRender completes the login. Signup closed becomes a
// SignupClosed outcome and validation errors become ValidationFailed.
func (e *Engine) CompleteOrRender(ctx context.Context, sess Session, login *SocialLogin) (Outcome, error) {
	c, err := e.complete(ctx, sess, login)
	if err != nil {
		if verr, ok := AsValidation(err); ok {
			return e.observe(login, ValidationFailed{Errors: verr.Errors}), nil
		}
		return nil, e.observeErr(login, err)
	}
	if c.closed {
		return e.observe(login, SignupClosed{}), nil
	}
	return e.observe(login, c.outcome), nil
}

// CompleteOrRaise completes the login. Signup closed is returned as
// ErrSignupClosed and validation errors as *ValidationError.
func (e *Engine) CompleteOrRaise(ctx context.Context, sess Session, login *SocialLogin) (Outcome, error) {
	c, err := e.complete(ctx, sess, login)
	if err != nil {
		return nil, e.observeErr(login, err)
	}
	if c.closed {
		e.deps.Metrics.ObserveOutcome(string(login.Process), SignupClosed{}.Kind())
		return nil, ErrSignupClosed
	}
	return e.observe(login, c.outcome), nil
}

func (e *Engine) observe(login *SocialLogin, out Outcome) Outcome {
	e.deps.Metrics.ObserveOutcome(string(login.Process), out.Kind())
	return out
}

// observeErr records a flow that ended in err and returns it unchanged.
func (e *Engine) observeErr(login *SocialLogin, err error) error {
	kind := OutcomeError
	if _, ok := AsValidation(err); ok {
		kind = ValidationFailed{}.Kind()
	}
	e.deps.Metrics.ObserveOutcome(string(login.Process), kind)
	return err
}

func (e *Engine) complete(ctx context.Context, sess Session, login *SocialLogin) (completion, error) {
	if login.Process == "" {
		login.Process = ProcessLogin
	}
	process := login.Process

	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.engine"),
		logger.Provider(login.Provider),
		logger.Process(string(process)),
	)

	if err := e.preLogin(ctx, sess, login); err != nil {
		return completion{}, err
	}

	if out, err := e.deps.Bus.RunPreLogin(ctx, sess, login); err != nil {
		log.Info("pre login observer vetoed", logger.Err(err))
		return completion{}, err
	} else if out != nil {
		log.Debug("pre login observer short-circuited", logger.Outcome(out.Kind()))
		return completion{outcome: out}, nil
	}
	if login.Process != process {
		return completion{}, fmt.Errorf("%w: process changed from %q to %q during completion", ErrInvariant, process, login.Process)
	}

	switch process {
	case ProcessRedirect:
		next := login.RedirectURL()
		if next == "" {
			next = "/"
		}
		return completion{outcome: RedirectTo{URL: next}}, nil
	case ProcessConnect:
		out, err := e.deps.Connections.Connect(ctx, sess, login)
		if err != nil {
			return completion{}, err
		}
		return completion{outcome: out}, nil
	default:
		return e.authenticate(ctx, sess, login)
	}
}

// preLogin clears a stale pending signup and resolves the login against
// persisted connections.
func (e *Engine) preLogin(ctx context.Context, sess Session, login *SocialLogin) error {
	e.pending.Clear(sess)

	if err := login.enter(); err != nil {
		return err
	}
	if login.Provider == "" || login.UID == "" {
		return fmt.Errorf("%w: social login without provider/uid", ErrInvariant)
	}

	acc, err := e.deps.Accounts.GetByProviderUID(ctx, login.Provider, login.UID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if login.User == nil {
			login.User = &repository.User{IsActive: true}
		}
		return nil
	case err != nil:
		return fmt.Errorf("lookup social account: %w", err)
	}

	user, err := e.deps.Users.GetByID(ctx, acc.UserID)
	if err != nil {
		return fmt.Errorf("load user of social account %s: %w", acc.ID, err)
	}
	login.Account = acc
	login.User = user
	return nil
}

func (e *Engine) authenticate(ctx context.Context, sess Session, login *SocialLogin) (completion, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.engine"),
		logger.Op("authenticate"),
		logger.Provider(login.Provider),
	)

	if cur := sess.UserID(); cur != "" && (!login.IsExisting() || cur != login.User.ID) {
		log.Debug("logging out current user before social login", logger.UserID(cur))
		sess.SetUserID("")
	}

	if !login.IsExisting() {
		return e.processSignup(ctx, sess, login)
	}

	if err := login.accept(); err != nil {
		return completion{}, err
	}
	if err := e.deps.Accounts.UpdateLogin(ctx, login.Account.ID, login.ExtraData, login.Token, e.deps.Now()); err != nil {
		return completion{}, fmt.Errorf("refresh social account: %w", err)
	}
	e.deps.Recorder.RecordAuthentication(ctx, sess, AuthMethodSocial, map[string]string{
		"provider": login.Account.Provider,
		"uid":      login.Account.UID,
	})

	out, err := e.deps.Finisher.PerformLogin(ctx, sess, login.User, login.RedirectURL(), login)
	if err != nil {
		return completion{}, err
	}
	log.Info("social login completed", logger.UserID(login.User.ID), logger.Outcome(out.Kind()))
	return completion{outcome: out}, nil
}

func (e *Engine) processSignup(ctx context.Context, sess Session, login *SocialLogin) (completion, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.engine"),
		logger.Op("processSignup"),
		logger.Provider(login.Provider),
	)

	if !e.deps.Policy.IsOpenForSignup(ctx, login) {
		log.Info("signup closed")
		return completion{closed: true}, nil
	}

	allowed, out, err := e.deps.AutoSignup.Evaluate(ctx, sess, login)
	if err != nil {
		return completion{}, err
	}
	if out != nil {
		return completion{outcome: out}, nil
	}
	if !allowed {
		if err := e.pending.Save(sess, login); err != nil {
			return completion{}, fmt.Errorf("save pending signup: %w", err)
		}
		log.Debug("signup requires confirmation")
		return completion{outcome: RedirectToSignup{}}, nil
	}

	// The provider's username suggestion is only a hint.
	if name := login.User.Username; name != "" {
		if _, err := e.deps.Usernames.Clean(ctx, name); err != nil {
			if _, ok := AsValidation(err); !ok {
				return completion{}, err
			}
			log.Debug("provider username rejected", logger.String("username", name))
			login.User.Username = ""
		}
	}

	user, err := e.saveUser(ctx, login)
	if err != nil {
		return completion{}, err
	}
	log.Info("user auto signed up", logger.UserID(user.ID))

	out, err = e.deps.Finisher.CompleteSignup(ctx, sess, user, login.RedirectURL(), login)
	if err != nil {
		return completion{}, err
	}
	return completion{outcome: out}, nil
}

// SignupForm is the user-confirmed data of a pending signup.
type SignupForm struct {
	Email    string
	Username string
}

// SignupByConfirmation finishes a pending signup with the data the user
// confirmed. Form errors are returned as a ValidationFailed outcome.
func (e *Engine) SignupByConfirmation(ctx context.Context, sess Session, login *SocialLogin, form SignupForm) (Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.engine"),
		logger.Op("SignupByConfirmation"),
		logger.Provider(login.Provider),
	)

	if !e.deps.Policy.IsOpenForSignup(ctx, login) {
		return e.observe(login, SignupClosed{}), nil
	}

	email, username, hidden, verr, err := e.cleanSignupForm(ctx, form)
	if err != nil {
		return nil, e.observeErr(login, err)
	}
	if verr.HasErrors() {
		return e.observe(login, ValidationFailed{Errors: verr.Errors}), nil
	}

	e.pending.Clear(sess)

	if hidden {
		out, err := e.deps.Guard.PreventEnumeration(ctx, sess, email)
		if err != nil {
			return nil, e.observeErr(login, err)
		}
		return e.observe(login, out), nil
	}

	if login.User == nil {
		login.User = &repository.User{IsActive: true}
	}
	login.User.Username = username
	login.User.Email = email
	login.Emails = withPrimaryEmail(login.Emails, email)

	user, err := e.saveUser(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			verr := NewValidationError("username", CodeUsernameTaken)
			if _, lerr := e.deps.Accounts.GetByProviderUID(ctx, login.Provider, login.UID); lerr == nil {
				verr = NewValidationError("", CodeAccountAlreadyConnected)
			}
			return e.observe(login, ValidationFailed{Errors: verr.Errors}), nil
		}
		return nil, e.observeErr(login, err)
	}
	log.Info("user signed up by confirmation", logger.UserID(user.ID))

	out, err := e.deps.Finisher.CompleteSignup(ctx, sess, user, login.RedirectURL(), login)
	if err != nil {
		return nil, e.observeErr(login, err)
	}
	return e.observe(login, out), nil
}

func (e *Engine) cleanSignupForm(ctx context.Context, form SignupForm) (email, username string, hidden bool, verr *ValidationError, err error) {
	verr = &ValidationError{}
	email = strings.ToLower(strings.TrimSpace(form.Email))
	username = strings.TrimSpace(form.Username)

	switch {
	case email == "" && e.deps.Policy.EmailRequired():
		verr.Add("email", CodeEmailRequired)
	case email != "" && !looksLikeEmail(email):
		verr.Add("email", CodeEmailInvalid)
	case email != "":
		a, aerr := e.deps.Guard.AssessUniqueEmail(ctx, email)
		if aerr != nil {
			return "", "", false, nil, aerr
		}
		switch a {
		case EmailTaken:
			verr.Add("email", CodeEmailTaken)
		case EmailHidden:
			hidden = true
		}
	}

	switch {
	case username == "" && e.deps.Policy.UsernameRequired():
		verr.Add("username", CodeUsernameRequired)
	case username != "":
		cleaned, cerr := e.deps.Usernames.Clean(ctx, username)
		if cerr != nil {
			uerr, ok := AsValidation(cerr)
			if !ok {
				return "", "", false, nil, cerr
			}
			verr.Errors = append(verr.Errors, uerr.Errors...)
		} else {
			username = cleaned
		}
	}
	return email, username, hidden, verr, nil
}

// saveUser persists the candidate user together with its connection.
func (e *Engine) saveUser(ctx context.Context, login *SocialLogin) (*repository.User, error) {
	u := login.User
	if u.Username == "" && e.deps.Policy.UsernameRequired() {
		name, err := e.deps.Usernames.Generate(ctx, u.FirstName, u.LastName, u.Email, login.FirstEmail(), login.Provider)
		if err != nil {
			return nil, fmt.Errorf("generate username: %w", err)
		}
		u.Username = name
	}
	if u.Email == "" {
		u.Email = login.FirstEmail()
	}
	if u.PasswordHash == nil {
		h := password.Unusable()
		u.PasswordHash = &h
	}

	input := repository.CreateUserInput{
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		SocialAccount: &repository.SocialAccountInput{
			Provider:  login.Provider,
			UID:       login.UID,
			ExtraData: login.ExtraData,
			Token:     login.Token,
		},
	}
	for i, em := range withPrimaryEmail(login.Emails, u.Email) {
		input.EmailAddresses = append(input.EmailAddresses, repository.EmailAddressInput{
			Email:    em.Email,
			Verified: em.Verified,
			Primary:  i == 0,
		})
	}

	user, err := e.deps.Users.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	acc, err := e.deps.Accounts.GetByProviderUID(ctx, login.Provider, login.UID)
	if err != nil {
		return nil, fmt.Errorf("reload social account: %w", err)
	}
	login.User = user
	login.Account = acc
	if err := login.accept(); err != nil {
		return nil, err
	}
	return user, nil
}

// withPrimaryEmail moves primary to the front, adding it as unverified
// when the provider did not report it.
func withPrimaryEmail(emails []EmailAddress, primary string) []EmailAddress {
	if primary == "" {
		return emails
	}
	out := make([]EmailAddress, 0, len(emails)+1)
	found := EmailAddress{Email: primary}
	for _, e := range emails {
		if strings.EqualFold(e.Email, primary) {
			found.Verified = found.Verified || e.Verified
			continue
		}
		out = append(out, e)
	}
	found.Primary = true
	return append([]EmailAddress{found}, out...)
}

func looksLikeEmail(s string) bool {
	at := strings.LastIndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n") && strings.Contains(s[at:], ".")
}
