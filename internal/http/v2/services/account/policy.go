package account

import (
	"context"

	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
)

// Policy implementa social.SignupPolicy sobre la configuración.
type Policy struct {
	cfg Config
}

func NewPolicy(cfg Config) *Policy { return &Policy{cfg: cfg.withDefaults()} }

func (p *Policy) IsOpenForSignup(context.Context, *social.SocialLogin) bool { return p.cfg.SignupOpen }

func (p *Policy) IsAutoSignupAllowed(context.Context, *social.SocialLogin) bool {
	return p.cfg.AutoSignup
}

func (p *Policy) EmailRequired() bool    { return p.cfg.EmailRequired }
func (p *Policy) UsernameRequired() bool { return p.cfg.UsernameRequired }

func (p *Policy) EmailVerification() social.VerificationMode { return p.cfg.EmailVerification }
