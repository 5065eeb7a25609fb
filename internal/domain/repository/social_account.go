package repository

import (
	"context"
	"time"
)

// SocialToken es el token opaco que entregó el provider.
type SocialToken struct {
	Token       string     `json:"token"`
	TokenSecret string     `json:"token_secret,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// SocialAccount es la conexión persistida entre un usuario y una identidad externa.
type SocialAccount struct {
	ID        string
	UserID    string
	Provider  string // "google", "github", ...
	UID       string // id del usuario en el provider
	ExtraData map[string]any
	Token     *SocialToken
	CreatedAt time.Time
	LastLogin time.Time
}

// SocialAccountInput contiene los datos para crear una conexión.
type SocialAccountInput struct {
	Provider  string
	UID       string
	ExtraData map[string]any
	Token     *SocialToken
}

// SocialAccountRepository define operaciones sobre conexiones sociales.
type SocialAccountRepository interface {
	// GetByProviderUID busca por (provider, uid). Retorna ErrNotFound si no existe.
	GetByProviderUID(ctx context.Context, provider, uid string) (*SocialAccount, error)

	// ListByUser lista las conexiones de un usuario por fecha de creación.
	ListByUser(ctx context.Context, userID string) ([]SocialAccount, error)

	// Create vincula una identidad a un usuario existente.
	// Retorna ErrConflict si (provider, uid) ya está vinculado.
	Create(ctx context.Context, userID string, input SocialAccountInput) (*SocialAccount, error)

	// UpdateLogin refresca extra data, token y last_login tras un login o reconexión.
	UpdateLogin(ctx context.Context, accountID string, extra map[string]any, token *SocialToken, at time.Time) error

	// Delete elimina la conexión. Retorna ErrNotFound si no existe.
	Delete(ctx context.Context, accountID string) error
}
