// Package providers define los providers de social login que verifican
// tokens emitidos por terceros (login headless por token).
//
// Cada provider vive en su sub-paquete y se registra en el Registry con una
// factory; el Registry construye solo los providers habilitados en config.
package providers

import (
	"context"
	"errors"

	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
)

// ErrInvalidToken lo retornan los providers cuando el token no verifica.
var ErrInvalidToken = errors.New("providers: invalid token")

// Token es el token que el cliente obtuvo del provider.
type Token struct {
	ClientID    string
	IDToken     string
	AccessToken string
}

// Provider verifica tokens de un tercero y arma el SocialLogin.
type Provider interface {
	ID() string
	Name() string

	// ClientID es el client id de la app configurada.
	ClientID() string
	// UsesApps indica que el token pertenece a una app y requiere client_id.
	UsesApps() bool
	SupportsTokenAuthentication() bool

	// VerifyToken retorna un SocialLogin sin procesar (Process vacío).
	VerifyToken(ctx context.Context, tok Token) (*social.SocialLogin, error)
}

// Config contiene la configuración de una app de provider.
type Config struct {
	ClientID     string            `yaml:"client_id"`
	ClientSecret string            `yaml:"client_secret"`
	Enabled      bool              `yaml:"enabled"`
	TokenAuth    bool              `yaml:"token_auth"`
	Extra        map[string]string `yaml:"extra"`
}
