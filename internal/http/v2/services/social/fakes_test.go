package social

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/store/v2/adapters/memory"
)

// ─── session ───

type memSession struct {
	data   map[string]json.RawMessage
	userID string
}

func newSession() *memSession { return &memSession{data: map[string]json.RawMessage{}} }

func (s *memSession) Get(k string) (json.RawMessage, bool) {
	v, ok := s.data[k]
	return v, ok
}

func (s *memSession) Set(k string, v json.RawMessage) { s.data[k] = v }
func (s *memSession) Delete(k string)                 { delete(s.data, k) }
func (s *memSession) UserID() string                  { return s.userID }
func (s *memSession) SetUserID(id string)             { s.userID = id }

// ─── policy ───

type stubPolicy struct {
	closed           bool
	noAuto           bool
	emailRequired    bool
	usernameRequired bool
	verification     VerificationMode
}

func (p *stubPolicy) IsOpenForSignup(context.Context, *SocialLogin) bool     { return !p.closed }
func (p *stubPolicy) IsAutoSignupAllowed(context.Context, *SocialLogin) bool { return !p.noAuto }
func (p *stubPolicy) EmailRequired() bool                                    { return p.emailRequired }
func (p *stubPolicy) UsernameRequired() bool                                 { return p.usernameRequired }
func (p *stubPolicy) EmailVerification() VerificationMode {
	if p.verification == "" {
		return VerificationOptional
	}
	return p.verification
}

// ─── enumeration guard (testify mock) ───

type mockGuard struct{ mock.Mock }

func (m *mockGuard) AssessUniqueEmail(ctx context.Context, email string) (EmailAssessment, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(EmailAssessment), args.Error(1)
}

func (m *mockGuard) PreventEnumeration(ctx context.Context, sess Session, email string) (Outcome, error) {
	args := m.Called(ctx, sess, email)
	out, _ := args.Get(0).(Outcome)
	return out, args.Error(1)
}

// ─── usernames ───

type stubUsernames struct {
	rejected map[string]bool
	n        int
}

func (u *stubUsernames) Clean(_ context.Context, name string) (string, error) {
	if u.rejected[strings.ToLower(name)] {
		return "", NewValidationError("username", CodeUsernameBlacklisted)
	}
	return name, nil
}

func (u *stubUsernames) Generate(context.Context, ...string) (string, error) {
	u.n++
	return fmt.Sprintf("user%d", u.n), nil
}

// ─── finisher ───

const verificationSentURL = "/accounts/confirm-email/"

type stubFinisher struct {
	verification VerificationMode
	logins       int
	signups      int
}

func (f *stubFinisher) finish(sess Session, user *repository.User, redirectURL string, login *SocialLogin) Outcome {
	if f.verification == VerificationMandatory && !login.IsEmailVerified(user.Email) {
		return RedirectTo{URL: verificationSentURL}
	}
	sess.SetUserID(user.ID)
	if redirectURL == "" {
		redirectURL = "/profile/"
	}
	return LoggedIn{User: user, RedirectURL: redirectURL, Login: login}
}

func (f *stubFinisher) PerformLogin(_ context.Context, sess Session, user *repository.User, redirectURL string, login *SocialLogin) (Outcome, error) {
	f.logins++
	return f.finish(sess, user, redirectURL, login), nil
}

func (f *stubFinisher) CompleteSignup(_ context.Context, sess Session, user *repository.User, redirectURL string, login *SocialLogin) (Outcome, error) {
	f.signups++
	return f.finish(sess, user, redirectURL, login), nil
}

// ─── auth recorder ───

type authRecord struct {
	method string
	attrs  map[string]string
}

type stubRecorder struct{ records []authRecord }

func (r *stubRecorder) RecordAuthentication(_ context.Context, _ Session, method string, attrs map[string]string) {
	r.records = append(r.records, authRecord{method: method, attrs: attrs})
}

// ─── metrics ───

type countingObserver struct{ seen map[string]int }

func (o *countingObserver) ObserveOutcome(process, outcome string) {
	if o.seen == nil {
		o.seen = map[string]int{}
	}
	o.seen[process+"/"+outcome]++
}

// ─── fixture ───

type fixture struct {
	db          *memory.Conn
	policy      *stubPolicy
	guard       *mockGuard
	usernames   *stubUsernames
	finisher    *stubFinisher
	recorder    *stubRecorder
	metrics     *countingObserver
	bus         *Bus
	engine      *Engine
	connections *Connections
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:        memory.New(),
		policy:    &stubPolicy{},
		guard:     &mockGuard{},
		usernames: &stubUsernames{rejected: map[string]bool{}},
		finisher:  &stubFinisher{},
		recorder:  &stubRecorder{},
		metrics:   &countingObserver{},
		bus:       NewBus(),
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svcs := NewServices(Deps{
		DAL:            f.db,
		Policy:         f.policy,
		Guard:          f.guard,
		Usernames:      f.usernames,
		Finisher:       f.finisher,
		Recorder:       f.recorder,
		Bus:            f.bus,
		Metrics:        f.metrics,
		ConnectionsURL: "/accounts/social/connections/",
		Now:            func() time.Time { return f.now },
	})
	f.engine = svcs.Engine
	f.connections = svcs.Connections
	return f
}

// seedUser creates a user, optionally with a password and a connection.
func (f *fixture) seedUser(t *testing.T, email string, password bool, conns ...repository.SocialAccountInput) *repository.User {
	t.Helper()
	in := repository.CreateUserInput{
		Username: strings.Split(email, "@")[0],
		Email:    email,
		EmailAddresses: []repository.EmailAddressInput{
			{Email: email, Primary: true},
		},
	}
	if password {
		h := "$argon2id$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"
		in.PasswordHash = &h
	}
	u, err := f.db.Users().Create(context.Background(), in)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for _, c := range conns {
		if _, err := f.db.SocialAccounts().Create(context.Background(), u.ID, c); err != nil {
			t.Fatalf("seed connection: %v", err)
		}
	}
	return u
}

func googleLogin(uid string, emails ...EmailAddress) *SocialLogin {
	return &SocialLogin{
		Provider: "google",
		UID:      uid,
		Emails:   emails,
		Token:    &repository.SocialToken{Token: "tok-" + uid},
		Process:  ProcessLogin,
		User:     &repository.User{FirstName: "Ada", LastName: "Lovelace", IsActive: true},
	}
}
