// Package social contiene el núcleo del login social: completion engine,
// auto-signup, pending signups y conexiones.
package social

import (
	"time"

	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

// Deps contiene las dependencias para crear los services social.
type Deps struct {
	DAL       store.DataAccessLayer
	Policy    SignupPolicy
	Guard     EnumerationGuard
	Usernames UsernamePolicy
	Finisher  LoginFinisher
	Recorder  AuthRecorder
	Bus       *Bus            // opcional, se crea si es nil
	Metrics   OutcomeObserver // opcional

	ConnectionsURL string
	Now            func() time.Time
}

// Services agrupa todos los services del dominio social.
type Services struct {
	Engine      *Engine
	Connections *Connections
	AutoSignup  *AutoSignup
	Pending     PendingSignupStore
	Bus         *Bus
}

// NewServices crea el agregador de services social.
func NewServices(d Deps) Services {
	bus := d.Bus
	if bus == nil {
		bus = NewBus()
	}

	connections := NewConnections(ConnectionsDeps{
		Users:          d.DAL.Users(),
		Accounts:       d.DAL.SocialAccounts(),
		Policy:         d.Policy,
		Bus:            bus,
		ConnectionsURL: d.ConnectionsURL,
		Now:            d.Now,
	})
	auto := NewAutoSignup(d.Policy, d.Guard)

	engine := NewEngine(EngineDeps{
		Users:       d.DAL.Users(),
		Accounts:    d.DAL.SocialAccounts(),
		Policy:      d.Policy,
		Usernames:   d.Usernames,
		Finisher:    d.Finisher,
		Recorder:    d.Recorder,
		AutoSignup:  auto,
		Guard:       d.Guard,
		Connections: connections,
		Bus:         bus,
		Metrics:     d.Metrics,
		Now:         d.Now,
	})

	return Services{
		Engine:      engine,
		Connections: connections,
		AutoSignup:  auto,
		Pending:     engine.Pending(),
		Bus:         bus,
	}
}
