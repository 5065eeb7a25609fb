package repository

import (
	"context"
	"strings"
	"time"
)

// UnusablePasswordPrefix marca un hash que nunca valida (usuarios creados vía social).
const UnusablePasswordPrefix = "!"

// User representa una cuenta local.
type User struct {
	ID           string
	Username     string
	Email        string // email primario, puede estar vacío
	FirstName    string
	LastName     string
	PasswordHash *string
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// HasUsablePassword indica si el usuario puede autenticarse con password.
func (u *User) HasUsablePassword() bool {
	if u == nil || u.PasswordHash == nil {
		return false
	}
	h := *u.PasswordHash
	return h != "" && !strings.HasPrefix(h, UnusablePasswordPrefix)
}

// IsPersisted indica si el usuario ya existe en el store.
func (u *User) IsPersisted() bool {
	return u != nil && u.ID != ""
}

// EmailAddress es una dirección asociada a un usuario.
type EmailAddress struct {
	ID        string
	UserID    string
	Email     string
	Verified  bool
	Primary   bool
	CreatedAt time.Time
}

// EmailAddressInput describe una dirección a crear.
type EmailAddressInput struct {
	Email    string
	Verified bool
	Primary  bool
}

// CreateUserInput contiene los datos para crear un usuario.
// Si SocialAccount no es nil se crea en la misma transacción.
type CreateUserInput struct {
	Username       string
	Email          string
	FirstName      string
	LastName       string
	PasswordHash   *string
	EmailAddresses []EmailAddressInput
	SocialAccount  *SocialAccountInput
}

// UserRepository define operaciones sobre usuarios y sus emails.
type UserRepository interface {
	// GetByID retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, userID string) (*User, error)

	// FindByEmail lista los usuarios que tienen esa dirección (case-insensitive),
	// ya sea como email primario o como EmailAddress secundaria.
	FindByEmail(ctx context.Context, email string) ([]User, error)

	// UsernameExists verifica unicidad de username (case-insensitive).
	UsernameExists(ctx context.Context, username string) (bool, error)

	// Create crea el usuario, sus emails y opcionalmente la SocialAccount.
	// Retorna ErrConflict si el username o el par provider+uid ya existen.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// SetPasswordHash reemplaza el hash de password.
	SetPasswordHash(ctx context.Context, userID, hash string) error

	// TouchLastLogin registra el último login.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	// ListEmails lista las direcciones del usuario (primaria primero).
	ListEmails(ctx context.Context, userID string) ([]EmailAddress, error)

	// MarkEmailVerified marca como verificada una dirección del usuario.
	// Retorna ErrNotFound si el usuario no tiene esa dirección.
	MarkEmailVerified(ctx context.Context, userID, email string) error
}
