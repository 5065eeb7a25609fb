package social

import (
	"context"

	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// AutoSignup decides whether an account may be created without asking.
type AutoSignup struct {
	policy SignupPolicy
	guard  EnumerationGuard
}

func NewAutoSignup(policy SignupPolicy, guard EnumerationGuard) *AutoSignup {
	return &AutoSignup{policy: policy, guard: guard}
}

// Evaluate returns (allowed, nil, nil), (false, nil, nil), or
// (false, outcome, nil) when the guard must answer without revealing
// whether the address is registered. Only the first email is considered.
func (a *AutoSignup) Evaluate(ctx context.Context, sess Session, login *SocialLogin) (bool, Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.autosignup"),
		logger.Provider(login.Provider),
	)

	if !a.policy.IsAutoSignupAllowed(ctx, login) {
		return false, nil, nil
	}

	email := login.FirstEmail()
	if email == "" {
		if a.policy.EmailRequired() {
			log.Debug("auto signup needs an email and provider sent none")
			return false, nil, nil
		}
		return true, nil, nil
	}

	assessment, err := a.guard.AssessUniqueEmail(ctx, email)
	if err != nil {
		return false, nil, err
	}
	log.Debug("email assessed", logger.EmailMasked(email), logger.String("assessment", assessment.String()))

	switch assessment {
	case EmailUnique:
		return true, nil, nil
	case EmailTaken:
		// The other account's address may be unverified, so never link silently.
		return false, nil, nil
	default:
		out, err := a.guard.PreventEnumeration(ctx, sess, email)
		if err != nil {
			return false, nil, err
		}
		return false, out, nil
	}
}
