// Package google implementa el provider de Google: verifica id_tokens
// (RS256 contra el JWKS de Google) y access_tokens (tokeninfo + userinfo).
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
)

const ProviderID = "google"

const (
	defaultJWKSURL      = "https://www.googleapis.com/oauth2/v3/certs"
	defaultUserinfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"
	defaultTokeninfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

var validIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Provider verifica tokens de Google.
type Provider struct {
	cfg          providers.Config
	userinfoURL  string
	tokeninfoURL string
	http         *http.Client
	keys         *keyCache
	leeway       time.Duration
}

// New crea el provider. Extra admite jwks_url, userinfo_url y tokeninfo_url.
func New(cfg providers.Config) (providers.Provider, error) {
	return NewWithClient(cfg, &http.Client{Timeout: 10 * time.Second})
}

// NewWithClient permite inyectar el http.Client (tests).
func NewWithClient(cfg providers.Config, hc *http.Client) (*Provider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("google: client_id required")
	}
	jwksURL := firstNonEmpty(cfg.Extra["jwks_url"], defaultJWKSURL)
	return &Provider{
		cfg:          cfg,
		userinfoURL:  firstNonEmpty(cfg.Extra["userinfo_url"], defaultUserinfoURL),
		tokeninfoURL: firstNonEmpty(cfg.Extra["tokeninfo_url"], defaultTokeninfoURL),
		http:         hc,
		keys:         newKeyCache(jwksURL, hc, time.Hour),
		leeway:       time.Minute,
	}, nil
}

func (p *Provider) ID() string                        { return ProviderID }
func (p *Provider) Name() string                      { return "Google" }
func (p *Provider) ClientID() string                  { return p.cfg.ClientID }
func (p *Provider) UsesApps() bool                    { return true }
func (p *Provider) SupportsTokenAuthentication() bool { return p.cfg.TokenAuth }

// VerifyToken prefiere el id_token. Sin él, el access_token tiene que haber
// sido emitido para nuestro client_id (tokeninfo) antes de consultar userinfo.
func (p *Provider) VerifyToken(ctx context.Context, tok providers.Token) (*social.SocialLogin, error) {
	if tok.IDToken != "" {
		claims, err := p.verifyIDToken(ctx, tok.IDToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", providers.ErrInvalidToken, err)
		}
		login := p.loginFromClaims(claims)
		login.Token = &repository.SocialToken{Token: firstNonEmpty(tok.AccessToken, tok.IDToken)}
		return login, nil
	}
	if tok.AccessToken != "" {
		sub, err := p.tokeninfo(ctx, tok.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", providers.ErrInvalidToken, err)
		}
		claims, err := p.userinfo(ctx, tok.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", providers.ErrInvalidToken, err)
		}
		if sub != "" && claims["sub"] != sub {
			return nil, fmt.Errorf("%w: tokeninfo and userinfo subjects differ", providers.ErrInvalidToken)
		}
		login := p.loginFromClaims(claims)
		login.Token = &repository.SocialToken{Token: tok.AccessToken}
		return login, nil
	}
	return nil, providers.ErrInvalidToken
}

func (p *Provider) verifyIDToken(ctx context.Context, raw string) (jwtv5.MapClaims, error) {
	claims := jwtv5.MapClaims{}
	_, err := jwtv5.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("missing kid")
		}
		return p.keys.key(ctx, kid)
	},
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithAudience(p.cfg.ClientID),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithLeeway(p.leeway),
	)
	if err != nil {
		return nil, err
	}
	iss, _ := claims.GetIssuer()
	if !validIssuer(iss) {
		return nil, fmt.Errorf("bad issuer %q", iss)
	}
	return claims, nil
}

// tokeninfo devuelve el sub del access_token si su aud o azp es nuestro client_id.
func (p *Provider) tokeninfo(ctx context.Context, accessToken string) (string, error) {
	u, err := url.Parse(p.tokeninfoURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("tokeninfo http %d", resp.StatusCode)
	}
	var info struct {
		Aud string `json:"aud"`
		Azp string `json:"azp"`
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.Aud != p.cfg.ClientID && info.Azp != p.cfg.ClientID {
		return "", fmt.Errorf("access token issued for %q", firstNonEmpty(info.Aud, info.Azp))
	}
	return info.Sub, nil
}

func (p *Provider) userinfo(ctx context.Context, accessToken string) (map[string]any, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("userinfo http %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if sub, _ := out["sub"].(string); sub == "" {
		return nil, fmt.Errorf("userinfo without sub")
	}
	return out, nil
}

func (p *Provider) loginFromClaims(claims map[string]any) *social.SocialLogin {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	given, _ := claims["given_name"].(string)
	family, _ := claims["family_name"].(string)

	login := &social.SocialLogin{
		Provider:  ProviderID,
		UID:       sub,
		ExtraData: claims,
		User: &repository.User{
			Email:     email,
			FirstName: given,
			LastName:  family,
			IsActive:  true,
		},
	}
	if email != "" {
		login.Emails = []social.EmailAddress{{Email: email, Verified: truthy(claims["email_verified"]), Primary: true}}
	}
	return login
}

func validIssuer(iss string) bool {
	for _, v := range validIssuers {
		if iss == v {
			return true
		}
	}
	return false
}

// truthy acepta bool o "true" (Google manda ambos según el endpoint).
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
