package social

import "time"

// Flow ids reportados en AuthResponse.
const (
	FlowProviderSignup = "provider_signup"
	FlowVerifyEmail    = "verify_email"
	FlowProviderToken  = "provider_token"
)

type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Display  string `json:"display"`
}

type AuthMethodDTO struct {
	Method   string    `json:"method"`
	Provider string    `json:"provider,omitempty"`
	UID      string    `json:"uid,omitempty"`
	At       time.Time `json:"at"`
}

type ProviderDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ClientID string   `json:"client_id,omitempty"`
	Flows    []string `json:"flows,omitempty"`
}

type FlowDTO struct {
	ID        string       `json:"id"`
	Provider  *ProviderDTO `json:"provider,omitempty"`
	IsPending bool         `json:"is_pending,omitempty"`
}

type AuthData struct {
	User    *UserDTO        `json:"user,omitempty"`
	Methods []AuthMethodDTO `json:"methods,omitempty"`
	Flows   []FlowDTO       `json:"flows,omitempty"`
}

type AuthMeta struct {
	IsAuthenticated bool `json:"is_authenticated"`
}

// AuthResponse es el estado de autenticación de la sesión. Status replica el
// código HTTP (200 autenticado, 401 anónimo o con un flujo pendiente).
type AuthResponse struct {
	Status int      `json:"status"`
	Data   AuthData `json:"data"`
	Meta   AuthMeta `json:"meta"`
}

type EmailDTO struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	Primary  bool   `json:"primary"`
}

// PendingSignupResponse describe el login que espera confirmación.
type PendingSignupResponse struct {
	Status int               `json:"status"`
	Data   PendingSignupData `json:"data"`
}

type PendingSignupData struct {
	Provider ProviderDTO `json:"provider"`
	Email    string      `json:"email,omitempty"`
	Username string      `json:"username,omitempty"`
	Emails   []EmailDTO  `json:"emails"`
}

type ProviderAccountDTO struct {
	ID       string      `json:"id"`
	UID      string      `json:"uid"`
	Display  string      `json:"display"`
	Provider ProviderDTO `json:"provider"`
}

type ProviderAccountsResponse struct {
	Status int                  `json:"status"`
	Data   []ProviderAccountDTO `json:"data"`
}

type ProvidersResponse struct {
	Status int           `json:"status"`
	Data   []ProviderDTO `json:"data"`
}
