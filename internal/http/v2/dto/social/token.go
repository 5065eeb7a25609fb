// Package social contiene los DTOs de la API headless de social login.
package social

import "encoding/json"

// ProviderTokenRequest es el body de POST /v2/auth/social/token.
// Token queda crudo: se valida que sea un objeto y que sus campos sean strings.
type ProviderTokenRequest struct {
	Provider string          `json:"provider"`
	Process  string          `json:"process"`
	Token    json.RawMessage `json:"token"`
}

// SignupRequest es el body de POST /v2/auth/social/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// DisconnectRequest es el body de DELETE /v2/account/providers.
type DisconnectRequest struct {
	Provider string `json:"provider"`
	Account  string `json:"account"`
}
