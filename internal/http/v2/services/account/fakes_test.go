package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialauth/internal/cache"
	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/session"
	"github.com/dropDatabas3/socialauth/internal/store/v2/adapters/memory"
)

type sentMail struct {
	kind, to, link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendVerification(_ context.Context, to, link string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "verify", to: to, link: link})
	return m.err
}

func (m *fakeMailer) SendAccountExists(_ context.Context, to, loginURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "exists", to: to, link: loginURL})
	return m.err
}

type fixture struct {
	conn   *memory.Conn
	cache  cache.Client
	mailer *fakeMailer
	bus    *social.Bus
	events []string
	svcs   Services
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		conn:   memory.New(),
		cache:  cache.NewMemory(""),
		mailer: &fakeMailer{},
		bus:    social.NewBus(),
	}
	f.bus.Subscribe(func(_ context.Context, ev social.Event) { f.events = append(f.events, ev.Name) })
	f.svcs = NewServices(Deps{
		DAL:    f.conn,
		Cache:  f.cache,
		Mailer: f.mailer,
		Bus:    f.bus,
		Config: cfg,
	})
	return f
}

func (f *fixture) newSession(t *testing.T) *session.Session {
	t.Helper()
	m := session.NewManager(f.cache, session.Config{})
	s, err := m.Load(context.Background(), "")
	require.NoError(t, err)
	return s
}

func (f *fixture) seedUser(t *testing.T, username, email string, verified bool) *repository.User {
	t.Helper()
	u, err := f.conn.Users().Create(context.Background(), repository.CreateUserInput{
		Username: username,
		Email:    email,
		EmailAddresses: []repository.EmailAddressInput{
			{Email: email, Verified: verified, Primary: true},
		},
	})
	require.NoError(t, err)
	return u
}
