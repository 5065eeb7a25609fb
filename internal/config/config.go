// Package config carga la configuración del servicio: YAML + overrides por
// variables de entorno + defaults. Un archivo inexistente equivale a YAML vacío.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/socialauth/internal/cache"
	"github.com/dropDatabas3/socialauth/internal/email"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/account"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/session"
)

// DefaultPath es el archivo leído si CONFIG_PATH no está definido.
const DefaultPath = "configs/config.yaml"

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr               string        `yaml:"addr"`
		BaseURL            string        `yaml:"base_url"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver       string `yaml:"driver"` // memory | postgres
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"storage"`

	Cache cache.Config `yaml:"cache"`

	Session session.Config `yaml:"session"`

	Account Account `yaml:"account"`

	SocialAccount SocialAccount `yaml:"socialaccount"`

	SMTP email.SMTPConfig `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		MaxRequests int           `yaml:"max_requests"`
		Window      time.Duration `yaml:"window"`
	} `yaml:"rate"`
}

// Account es la configuración general de cuentas.
// Los *bool distinguen "no configurado" de false.
type Account struct {
	SignupOpen          *bool         `yaml:"signup_open"`
	EmailRequired       bool          `yaml:"email_required"`
	UniqueEmail         *bool         `yaml:"unique_email"`
	EmailVerification   string        `yaml:"email_verification"`  // none | optional | mandatory
	PreventEnumeration  string        `yaml:"prevent_enumeration"` // off | on | strict
	UsernameRequired    *bool         `yaml:"username_required"`
	UsernameMinLength   int           `yaml:"username_min_length"`
	UsernameBlacklist   []string      `yaml:"username_blacklist"`
	VerificationTTL     time.Duration `yaml:"verification_ttl"`
	LoginURL            string        `yaml:"login_url"`
	LoginRedirectURL    string        `yaml:"login_redirect_url"`
	VerificationSentURL string        `yaml:"verification_sent_url"`
}

// SocialAccount pisa a Account para los logins sociales.
type SocialAccount struct {
	AutoSignup        *bool  `yaml:"auto_signup"`
	EmailRequired     *bool  `yaml:"email_required"`
	EmailVerification string `yaml:"email_verification"`
	LoginRedirectURL  string `yaml:"login_redirect_url"`
	SignupURL         string `yaml:"signup_url"`
	ConnectionsURL    string `yaml:"connections_url"`

	Providers map[string]providers.Config `yaml:"providers"`
}

// Load lee path (si existe), aplica defaults, overrides de entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "socialauth"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost" + c.Server.Addr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Rate.MaxRequests <= 0 {
		c.Rate.MaxRequests = 20
	}
	if c.Rate.Window <= 0 {
		c.Rate.Window = time.Minute
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
	// En prod la cookie de sesión siempre viaja solo por HTTPS.
	if strings.EqualFold(c.App.Env, "prod") {
		c.Session.Secure = true
	}
}

// Validate revisa los valores críticos.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("config: storage.dsn required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("config: unknown cache.driver %q", c.Cache.Driver)
	}

	for _, v := range []string{c.Account.EmailVerification, c.SocialAccount.EmailVerification} {
		switch social.VerificationMode(v) {
		case "", social.VerificationNone, social.VerificationOptional, social.VerificationMandatory:
		default:
			return fmt.Errorf("config: invalid email_verification %q", v)
		}
	}
	switch c.Account.PreventEnumeration {
	case "", account.EnumerationOff, account.EnumerationOn, account.EnumerationStrict:
	default:
		return fmt.Errorf("config: invalid prevent_enumeration %q", c.Account.PreventEnumeration)
	}

	if c.SMTP.Host != "" && c.SMTP.FromEmail == "" {
		return errors.New("config: smtp.from required when smtp.host is set")
	}
	return nil
}

// AccountServiceConfig resuelve la config de account para los flujos
// sociales: los valores de socialaccount pisan a los de account.
func (c *Config) AccountServiceConfig() account.Config {
	a, s := c.Account, c.SocialAccount

	out := account.Config{
		SignupOpen:          boolOr(a.SignupOpen, true),
		AutoSignup:          boolOr(s.AutoSignup, true),
		EmailRequired:       boolOr(s.EmailRequired, a.EmailRequired),
		UniqueEmail:         boolOr(a.UniqueEmail, true),
		UsernameRequired:    boolOr(a.UsernameRequired, true),
		EmailVerification:   social.VerificationMode(a.EmailVerification),
		PreventEnumeration:  a.PreventEnumeration,
		UsernameMinLength:   a.UsernameMinLength,
		UsernameBlacklist:   a.UsernameBlacklist,
		VerificationTTL:     a.VerificationTTL,
		BaseURL:             strings.TrimRight(c.Server.BaseURL, "/"),
		LoginURL:            a.LoginURL,
		LoginRedirectURL:    a.LoginRedirectURL,
		VerificationSentURL: a.VerificationSentURL,
	}
	if s.EmailVerification != "" {
		out.EmailVerification = social.VerificationMode(s.EmailVerification)
	}
	if s.LoginRedirectURL != "" {
		out.LoginRedirectURL = s.LoginRedirectURL
	}
	return out
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVICE_VERSION"); ok {
		c.App.Version = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("REDIS_HOST"); ok {
		c.Cache.Host = v
	}
	if v, ok := getEnvInt("REDIS_PORT"); ok {
		c.Cache.Port = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Password = v
	}

	// SESSION
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}
	if v, ok := getEnvStr("SESSION_COOKIE_DOMAIN"); ok {
		c.Session.CookieDomain = v
	}
	if v, ok := getEnvDur("SESSION_TTL"); ok {
		c.Session.TTL = v
	}

	// ACCOUNT
	if v, ok := getEnvBool("ACCOUNT_SIGNUP_OPEN"); ok {
		c.Account.SignupOpen = &v
	}
	if v, ok := getEnvStr("ACCOUNT_EMAIL_VERIFICATION"); ok {
		c.Account.EmailVerification = strings.ToLower(v)
	}
	if v, ok := getEnvStr("ACCOUNT_PREVENT_ENUMERATION"); ok {
		c.Account.PreventEnumeration = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SOCIAL_AUTO_SIGNUP"); ok {
		c.SocialAccount.AutoSignup = &v
	}

	// PROVIDERS: SOCIAL_<ID>_CLIENT_ID / SOCIAL_<ID>_CLIENT_SECRET
	for _, id := range []string{"google", "github"} {
		prefix := "SOCIAL_" + strings.ToUpper(id) + "_"
		cid, okID := getEnvStr(prefix + "CLIENT_ID")
		secret, okSecret := getEnvStr(prefix + "CLIENT_SECRET")
		if !okID && !okSecret {
			continue
		}
		if c.SocialAccount.Providers == nil {
			c.SocialAccount.Providers = map[string]providers.Config{}
		}
		p := c.SocialAccount.Providers[id]
		if okID {
			p.ClientID = cid
			p.Enabled = true
		}
		if okSecret {
			p.ClientSecret = secret
		}
		c.SocialAccount.Providers[id] = p
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.FromEmail = v
	}

	// OBSERVABILITY
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
}
