package account

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/socialauth/internal/audit"
	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// Verifier envía mails de verificación (VerificationService).
type Verifier interface {
	Send(ctx context.Context, userID, email string) error
}

type LoginDeps struct {
	Users        repository.UserRepository
	Policy       social.SignupPolicy
	Verification Verifier
	Recorder     social.AuthRecorder
	Bus          *social.Bus
	Config       Config
	Now          func() time.Time
}

// LoginService implementa social.LoginFinisher.
type LoginService struct {
	deps LoginDeps
	cfg  Config
}

func NewLoginService(d LoginDeps) *LoginService {
	if d.Bus == nil {
		d.Bus = social.NewBus()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return &LoginService{deps: d, cfg: d.Config.withDefaults()}
}

// PerformLogin liga la sesión al usuario salvo que esté inactivo o deba
// verificar su email primero.
func (s *LoginService) PerformLogin(ctx context.Context, sess social.Session, user *repository.User, redirectURL string, login *social.SocialLogin) (social.Outcome, error) {
	return s.perform(ctx, sess, user, redirectURL, login, false)
}

// CompleteSignup emite user_signed_up y continúa con el login.
func (s *LoginService) CompleteSignup(ctx context.Context, sess social.Session, user *repository.User, redirectURL string, login *social.SocialLogin) (social.Outcome, error) {
	s.deps.Bus.Emit(ctx, social.Event{Name: social.EventUserSignedUp, UserID: user.ID, Login: login})

	attrs := map[string]string{"user_id": user.ID}
	if login != nil {
		attrs["provider"] = login.Provider
		s.deps.Recorder.RecordAuthentication(ctx, sess, social.AuthMethodSocial, map[string]string{
			"provider": login.Provider,
			"uid":      login.UID,
		})
	}
	audit.Log(ctx, audit.EventSignedUp, attrs)

	return s.perform(ctx, sess, user, redirectURL, login, true)
}

func (s *LoginService) perform(ctx context.Context, sess social.Session, user *repository.User, redirectURL string, login *social.SocialLogin, signup bool) (social.Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("account.login"),
		logger.UserID(user.ID),
	)

	if !user.IsActive {
		log.Info("login refused: inactive user")
		return social.Rendered{
			Template: social.TemplateAccountInactive,
			Data:     map[string]any{"user_id": user.ID},
		}, nil
	}

	if mode := s.deps.Policy.EmailVerification(); mode != social.VerificationNone {
		verified, email, err := s.verificationState(ctx, user)
		if err != nil {
			return nil, err
		}
		if !verified && email != "" && (signup || mode == social.VerificationMandatory) {
			if err := s.deps.Verification.Send(ctx, user.ID, email); err != nil {
				return nil, err
			}
		}
		if !verified && mode == social.VerificationMandatory {
			log.Info("login deferred until email is verified")
			return social.RedirectTo{URL: s.cfg.VerificationSentURL}, nil
		}
	}

	sess.SetUserID(user.ID)
	if err := s.deps.Users.TouchLastLogin(ctx, user.ID, s.deps.Now()); err != nil {
		return nil, fmt.Errorf("touch last login: %w", err)
	}
	s.deps.Bus.Emit(ctx, social.Event{Name: social.EventUserLoggedIn, UserID: user.ID, Login: login})

	if redirectURL == "" {
		redirectURL = s.cfg.LoginRedirectURL
	}
	log.Info("user logged in", logger.Bool("signup", signup))
	return social.LoggedIn{User: user, RedirectURL: redirectURL, Login: login}, nil
}

// verificationState retorna si el usuario tiene algún email verificado y la
// dirección a verificar (la primaria, o la primera).
func (s *LoginService) verificationState(ctx context.Context, user *repository.User) (bool, string, error) {
	emails, err := s.deps.Users.ListEmails(ctx, user.ID)
	if err != nil {
		return false, "", fmt.Errorf("list emails: %w", err)
	}
	target := user.Email
	for _, e := range emails {
		if e.Verified {
			return true, "", nil
		}
		if e.Primary || target == "" {
			target = e.Email
		}
	}
	return false, target, nil
}
