// Package memory implementa un adapter en memoria para store/v2.
// Pensado para desarrollo y tests; los datos no sobreviven al proceso.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(_ context.Context, _ store.AdapterConfig) (store.AdapterConnection, error) {
	return New(), nil
}

// Conn es una base en memoria. Todos los repos comparten el mismo lock
// para que Create(user+emails+social) sea atómico.
type Conn struct {
	mu       sync.RWMutex
	users    map[string]*repository.User
	emails   map[string][]repository.EmailAddress // userID -> emails
	accounts map[string]*repository.SocialAccount // id -> account
	now      func() time.Time
}

// New crea una conexión vacía.
func New() *Conn {
	return &Conn{
		users:    make(map[string]*repository.User),
		emails:   make(map[string][]repository.EmailAddress),
		accounts: make(map[string]*repository.SocialAccount),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *Conn) Name() string                     { return "memory" }
func (c *Conn) Ping(context.Context) error       { return nil }
func (c *Conn) Close() error                     { return nil }
func (c *Conn) Users() repository.UserRepository { return (*userRepo)(c) }

func (c *Conn) SocialAccounts() repository.SocialAccountRepository {
	return (*socialAccountRepo)(c)
}

// ─── UserRepository ───

type userRepo Conn

func (r *userRepo) GetByID(_ context.Context, userID string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) ([]repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.TrimSpace(email)
	var out []repository.User
	for id, u := range r.users {
		if strings.EqualFold(u.Email, email) || hasEmail(r.emails[id], email) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func hasEmail(list []repository.EmailAddress, email string) bool {
	for _, e := range list {
		if strings.EqualFold(e.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.usernameTaken(username), nil
}

func (r *userRepo) usernameTaken(username string) bool {
	if username == "" {
		return false
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.usernameTaken(input.Username) {
		return nil, repository.ErrConflict
	}
	if sa := input.SocialAccount; sa != nil && (*socialAccountRepo)(r).find(sa.Provider, sa.UID) != nil {
		return nil, repository.ErrConflict
	}

	now := r.now()
	u := &repository.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: input.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
	}
	r.users[u.ID] = u

	for _, e := range input.EmailAddresses {
		r.addEmail(u.ID, e, now)
	}
	if input.SocialAccount != nil {
		(*socialAccountRepo)(r).insert(u.ID, *input.SocialAccount, now)
	}

	cp := *u
	return &cp, nil
}

func (r *userRepo) addEmail(userID string, in repository.EmailAddressInput, now time.Time) {
	list := r.emails[userID]
	for i := range list {
		if strings.EqualFold(list[i].Email, in.Email) {
			list[i].Verified = list[i].Verified || in.Verified
			return
		}
	}
	r.emails[userID] = append(list, repository.EmailAddress{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     strings.ToLower(in.Email),
		Verified:  in.Verified,
		Primary:   in.Primary,
		CreatedAt: now,
	})
}

func (r *userRepo) SetPasswordHash(_ context.Context, userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = &hash
	return nil
}

func (r *userRepo) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (r *userRepo) ListEmails(_ context.Context, userID string) ([]repository.EmailAddress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]repository.EmailAddress(nil), r.emails[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Primary && !out[j].Primary })
	return out, nil
}

func (r *userRepo) MarkEmailVerified(_ context.Context, userID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.emails[userID]
	for i := range list {
		if strings.EqualFold(list[i].Email, email) {
			list[i].Verified = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// ─── SocialAccountRepository ───

type socialAccountRepo Conn

func (r *socialAccountRepo) find(provider, uid string) *repository.SocialAccount {
	for _, a := range r.accounts {
		if a.Provider == provider && a.UID == uid {
			return a
		}
	}
	return nil
}

func (r *socialAccountRepo) insert(userID string, in repository.SocialAccountInput, now time.Time) *repository.SocialAccount {
	a := &repository.SocialAccount{
		ID:        uuid.NewString(),
		UserID:    userID,
		Provider:  in.Provider,
		UID:       in.UID,
		ExtraData: in.ExtraData,
		Token:     in.Token,
		CreatedAt: now,
		LastLogin: now,
	}
	r.accounts[a.ID] = a
	return a
}

func (r *socialAccountRepo) GetByProviderUID(_ context.Context, provider, uid string) (*repository.SocialAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.find(provider, uid)
	if a == nil {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *socialAccountRepo) ListByUser(_ context.Context, userID string) ([]repository.SocialAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []repository.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *socialAccountRepo) Create(_ context.Context, userID string, in repository.SocialAccountInput) (*repository.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	if r.find(in.Provider, in.UID) != nil {
		return nil, repository.ErrConflict
	}
	cp := *r.insert(userID, in, r.now())
	return &cp, nil
}

func (r *socialAccountRepo) UpdateLogin(_ context.Context, accountID string, extra map[string]any, tok *repository.SocialToken, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	a.ExtraData = extra
	if tok != nil && tok.Token != "" {
		a.Token = tok
	}
	a.LastLogin = at
	return nil
}

func (r *socialAccountRepo) Delete(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[accountID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, accountID)
	return nil
}
