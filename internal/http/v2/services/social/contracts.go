package social

import (
	"context"
	"encoding/json"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

// Session is the browser session scope of the current request.
type Session interface {
	Get(key string) (json.RawMessage, bool)
	Set(key string, value json.RawMessage)
	Delete(key string)

	// UserID is "" for anonymous sessions.
	UserID() string
	// SetUserID binds the session to a user; "" logs out.
	SetUserID(userID string)
}

// VerificationMode is the email verification policy.
type VerificationMode string

const (
	VerificationNone      VerificationMode = "none"
	VerificationOptional  VerificationMode = "optional"
	VerificationMandatory VerificationMode = "mandatory"
)

// SignupPolicy decides whether new accounts may be created.
type SignupPolicy interface {
	IsOpenForSignup(ctx context.Context, login *SocialLogin) bool
	IsAutoSignupAllowed(ctx context.Context, login *SocialLogin) bool
	EmailRequired() bool
	UsernameRequired() bool
	EmailVerification() VerificationMode
}

// EmailAssessment is the answer to "does another account own this email?".
type EmailAssessment int

const (
	// EmailUnique: no other account owns the address.
	EmailUnique EmailAssessment = iota
	// EmailTaken: another account owns it and saying so is allowed.
	EmailTaken
	// EmailHidden: the answer must not be revealed (enumeration prevention).
	EmailHidden
)

func (a EmailAssessment) String() string {
	switch a {
	case EmailUnique:
		return "unique"
	case EmailTaken:
		return "taken"
	default:
		return "hidden"
	}
}

// EnumerationGuard keeps signup responses from revealing registered emails.
type EnumerationGuard interface {
	AssessUniqueEmail(ctx context.Context, email string) (EmailAssessment, error)
	// PreventEnumeration handles a signup for a hidden address and returns
	// the same outcome a real "verification sent" would produce.
	PreventEnumeration(ctx context.Context, sess Session, email string) (Outcome, error)
}

// UsernamePolicy validates and generates usernames.
type UsernamePolicy interface {
	// Clean returns the normalized username or a *ValidationError.
	Clean(ctx context.Context, username string) (string, error)
	// Generate derives an available username from the candidates.
	Generate(ctx context.Context, candidates ...string) (string, error)
}

// LoginFinisher performs the final login/signup steps (activity check,
// email verification, session binding, post signals).
type LoginFinisher interface {
	PerformLogin(ctx context.Context, sess Session, user *repository.User, redirectURL string, login *SocialLogin) (Outcome, error)
	CompleteSignup(ctx context.Context, sess Session, user *repository.User, redirectURL string, login *SocialLogin) (Outcome, error)
}

// AuthRecorder records how the session authenticated.
type AuthRecorder interface {
	RecordAuthentication(ctx context.Context, sess Session, method string, attrs map[string]string)
}

// OutcomeObserver receives one call per finished flow (metrics).
type OutcomeObserver interface {
	ObserveOutcome(process, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(string, string) {}
