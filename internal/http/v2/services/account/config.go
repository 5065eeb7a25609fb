package account

import (
	"time"

	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
)

// Modos de prevención de enumeración.
const (
	EnumerationOff    = "off"
	EnumerationOn     = "on"
	EnumerationStrict = "strict"
)

// Config es la configuración ya resuelta del dominio account (los valores
// de socialaccount pisan a los de account en la capa de config).
type Config struct {
	SignupOpen         bool
	AutoSignup         bool
	EmailRequired      bool
	UniqueEmail        bool
	UsernameRequired   bool
	EmailVerification  social.VerificationMode
	PreventEnumeration string

	UsernameMinLength int
	UsernameBlacklist []string

	VerificationTTL time.Duration

	BaseURL             string
	LoginURL            string
	LoginRedirectURL    string
	VerificationSentURL string
	ConfirmEmailPath    string
}

func (c Config) withDefaults() Config {
	if c.EmailVerification == "" {
		c.EmailVerification = social.VerificationOptional
	}
	if c.PreventEnumeration == "" {
		c.PreventEnumeration = EnumerationOn
	}
	if c.UsernameMinLength <= 0 {
		c.UsernameMinLength = 1
	}
	if c.VerificationTTL <= 0 {
		c.VerificationTTL = 72 * time.Hour
	}
	if c.LoginURL == "" {
		c.LoginURL = "/accounts/login/"
	}
	if c.LoginRedirectURL == "" {
		c.LoginRedirectURL = "/"
	}
	if c.VerificationSentURL == "" {
		c.VerificationSentURL = "/accounts/confirm-email/"
	}
	if c.ConfirmEmailPath == "" {
		c.ConfirmEmailPath = "/accounts/confirm-email/"
	}
	return c
}
