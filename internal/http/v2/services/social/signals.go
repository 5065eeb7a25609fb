package social

import (
	"context"
	"fmt"
	"sync"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// Event names emitted on the Bus.
const (
	EventUserLoggedIn         = "user_logged_in"
	EventUserSignedUp         = "user_signed_up"
	EventSocialAccountAdded   = "social_account_added"
	EventSocialAccountUpdated = "social_account_updated"
	EventSocialAccountRemoved = "social_account_removed"
)

// Event is a post-fact notification. Listeners cannot veto it.
type Event struct {
	Name    string
	UserID  string
	Login   *SocialLogin
	Account *repository.SocialAccount
}

// PreLoginObserver runs after lookup and before dispatch. It may mutate
// the login, veto with an error, or short-circuit with an outcome.
type PreLoginObserver func(ctx context.Context, sess Session, login *SocialLogin) (Outcome, error)

// PreDisconnectObserver may veto removing a connection.
type PreDisconnectObserver func(ctx context.Context, account *repository.SocialAccount) error

// Listener receives events.
type Listener func(ctx context.Context, ev Event)

// Bus holds observers in registration order.
type Bus struct {
	mu            sync.RWMutex
	preLogin      []PreLoginObserver
	preDisconnect []PreDisconnectObserver
	listeners     []Listener
}

// NewBus creates an empty bus.
func NewBus() *Bus { return &Bus{} }

func (b *Bus) OnPreLogin(fn PreLoginObserver) {
	b.mu.Lock()
	b.preLogin = append(b.preLogin, fn)
	b.mu.Unlock()
}

func (b *Bus) OnPreDisconnect(fn PreDisconnectObserver) {
	b.mu.Lock()
	b.preDisconnect = append(b.preDisconnect, fn)
	b.mu.Unlock()
}

func (b *Bus) Subscribe(fn Listener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// RunPreLogin calls observers in order and stops at the first outcome or error.
func (b *Bus) RunPreLogin(ctx context.Context, sess Session, login *SocialLogin) (Outcome, error) {
	b.mu.RLock()
	obs := append([]PreLoginObserver(nil), b.preLogin...)
	b.mu.RUnlock()

	for _, fn := range obs {
		out, err := fn(ctx, sess, login)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// RunPreDisconnect stops at the first veto.
func (b *Bus) RunPreDisconnect(ctx context.Context, account *repository.SocialAccount) error {
	b.mu.RLock()
	obs := append([]PreDisconnectObserver(nil), b.preDisconnect...)
	b.mu.RUnlock()

	for _, fn := range obs {
		if err := fn(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// Emit delivers ev to every listener. A panicking listener is logged and
// does not stop the others.
func (b *Bus) Emit(ctx context.Context, ev Event) {
	b.mu.RLock()
	ls := append([]Listener(nil), b.listeners...)
	b.mu.RUnlock()

	for _, fn := range ls {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.From(ctx).Error("signal listener panic",
						logger.Component("social.bus"),
						logger.String("event", ev.Name),
						logger.Err(fmt.Errorf("%v", r)),
					)
				}
			}()
			fn(ctx, ev)
		}()
	}
}
