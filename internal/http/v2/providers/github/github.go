// Package github implementa el provider de GitHub. GitHub no emite
// id_tokens: el access_token se verifica llamando a la API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
)

const ProviderID = "github"

const defaultAPIURL = "https://api.github.com"

type userInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type emailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

type Provider struct {
	cfg    providers.Config
	apiURL string
	http   *http.Client
}

// New crea el provider. Extra admite api_url (GitHub Enterprise, tests).
func New(cfg providers.Config) (providers.Provider, error) {
	return NewWithClient(cfg, &http.Client{Timeout: 10 * time.Second}), nil
}

func NewWithClient(cfg providers.Config, hc *http.Client) *Provider {
	api := strings.TrimRight(cfg.Extra["api_url"], "/")
	if api == "" {
		api = defaultAPIURL
	}
	return &Provider{cfg: cfg, apiURL: api, http: hc}
}

func (p *Provider) ID() string                        { return ProviderID }
func (p *Provider) Name() string                      { return "GitHub" }
func (p *Provider) ClientID() string                  { return p.cfg.ClientID }
func (p *Provider) UsesApps() bool                    { return false }
func (p *Provider) SupportsTokenAuthentication() bool { return p.cfg.TokenAuth }

func (p *Provider) VerifyToken(ctx context.Context, tok providers.Token) (*social.SocialLogin, error) {
	if tok.AccessToken == "" {
		return nil, providers.ErrInvalidToken
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok.AccessToken}))

	var u userInfo
	if err := p.get(ctx, client, "/user", &u); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrInvalidToken, err)
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("%w: user without id", providers.ErrInvalidToken)
	}

	// Sin scope user:email el endpoint falla; nos quedamos con el email público.
	var emails []emailInfo
	if err := p.get(ctx, client, "/user/emails", &emails); err != nil {
		emails = nil
		if u.Email != "" {
			emails = []emailInfo{{Email: u.Email, Primary: true}}
		}
	}

	first, last, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
	login := &social.SocialLogin{
		Provider: ProviderID,
		UID:      strconv.FormatInt(u.ID, 10),
		ExtraData: map[string]any{
			"login":      u.Login,
			"name":       u.Name,
			"avatar_url": u.AvatarURL,
			"html_url":   u.HTMLURL,
		},
		Emails: orderEmails(emails),
		Token:  &repository.SocialToken{Token: tok.AccessToken},
		User: &repository.User{
			Username:  u.Login,
			FirstName: first,
			LastName:  strings.TrimSpace(last),
			IsActive:  true,
		},
	}
	login.User.Email = login.FirstEmail()
	return login, nil
}

func (p *Provider) get(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("github %s: http %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// orderEmails deja primero el primario verificado, luego verificados, luego el resto.
func orderEmails(in []emailInfo) []social.EmailAddress {
	rank := func(e emailInfo) int {
		switch {
		case e.Primary && e.Verified:
			return 0
		case e.Verified:
			return 1
		case e.Primary:
			return 2
		}
		return 3
	}
	sorted := append([]emailInfo(nil), in...)
	sort.SliceStable(sorted, func(i, j int) bool { return rank(sorted[i]) < rank(sorted[j]) })

	out := make([]social.EmailAddress, 0, len(sorted))
	for _, e := range sorted {
		if e.Email == "" {
			continue
		}
		out = append(out, social.EmailAddress{Email: e.Email, Verified: e.Verified, Primary: e.Primary})
	}
	return out
}
