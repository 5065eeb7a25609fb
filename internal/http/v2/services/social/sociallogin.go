package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

// Process is the disposition the caller chose for a social login.
type Process string

const (
	ProcessLogin    Process = "login"
	ProcessConnect  Process = "connect"
	ProcessRedirect Process = "redirect"
)

// ParseProcess maps the wire value to a Process. Empty means login.
func ParseProcess(s string) (Process, bool) {
	switch Process(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProcessLogin:
		return ProcessLogin, true
	case ProcessConnect:
		return ProcessConnect, true
	case ProcessRedirect:
		return ProcessRedirect, true
	}
	return "", false
}

// EmailAddress is an address reported by the provider, in provider order.
type EmailAddress struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	Primary  bool   `json:"primary,omitempty"`
}

// SocialLogin is a verified external identity plus the state of its
// processing. Providers build it with a candidate User (not persisted);
// the engine replaces it with the matched user when (Provider, UID) is known.
type SocialLogin struct {
	Provider  string
	UID       string
	ExtraData map[string]any
	Emails    []EmailAddress
	Token     *repository.SocialToken
	Process   Process

	// State holds per-attempt values such as "next".
	State map[string]string

	// User is the candidate user before lookup and the matched user after it.
	User *repository.User
	// Account is set only when the identity is already connected.
	Account *repository.SocialAccount

	entered  bool
	accepted bool
}

// IsExisting reports whether lookup matched a persisted connection.
func (l *SocialLogin) IsExisting() bool { return l.Account != nil }

// RedirectURL is the "next" URL requested for this attempt, if any.
func (l *SocialLogin) RedirectURL() string {
	if l.State == nil {
		return ""
	}
	return l.State["next"]
}

// SetRedirectURL stores the "next" URL for this attempt.
func (l *SocialLogin) SetRedirectURL(u string) {
	if l.State == nil {
		l.State = make(map[string]string)
	}
	l.State["next"] = u
}

// FirstEmail returns the provider's highest priority address, or "".
func (l *SocialLogin) FirstEmail() string {
	if len(l.Emails) == 0 {
		return ""
	}
	return strings.TrimSpace(l.Emails[0].Email)
}

// IsEmailVerified reports whether the provider vouched for email.
func (l *SocialLogin) IsEmailVerified(email string) bool {
	for _, e := range l.Emails {
		if e.Verified && strings.EqualFold(e.Email, email) {
			return true
		}
	}
	return false
}

// enter marks the start of a completion; a login can only be completed once.
func (l *SocialLogin) enter() error {
	if l.entered {
		return fmt.Errorf("%w: social login %s/%s entered completion twice", ErrInvariant, l.Provider, l.UID)
	}
	if l.IsExisting() {
		return fmt.Errorf("%w: social login %s/%s already matched before lookup", ErrInvariant, l.Provider, l.UID)
	}
	l.entered = true
	return nil
}

func (l *SocialLogin) accept() error {
	if l.accepted {
		return fmt.Errorf("%w: social login %s/%s accepted twice", ErrInvariant, l.Provider, l.UID)
	}
	l.accepted = true
	return nil
}

// ─── Serialization ───

const serializationVersion = 1

var errUnsupportedVersion = errors.New("social: unsupported serialized login version")

type serializedUser struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type serializedLogin struct {
	Version   int                     `json:"v"`
	Provider  string                  `json:"provider"`
	UID       string                  `json:"uid"`
	ExtraData map[string]any          `json:"extra_data,omitempty"`
	Emails    []EmailAddress          `json:"email_addresses"`
	Token     *repository.SocialToken `json:"token,omitempty"`
	Process   Process                 `json:"process"`
	State     map[string]string       `json:"state,omitempty"`
	User      serializedUser          `json:"user"`
}

// Serialize encodes the login as a versioned record. Only a pending
// (not yet persisted) login is meant to be serialized.
func (l *SocialLogin) Serialize() ([]byte, error) {
	rec := serializedLogin{
		Version:   serializationVersion,
		Provider:  l.Provider,
		UID:       l.UID,
		ExtraData: l.ExtraData,
		Emails:    l.Emails,
		Token:     l.Token,
		Process:   l.Process,
		State:     l.State,
	}
	if rec.Emails == nil {
		rec.Emails = []EmailAddress{}
	}
	if u := l.User; u != nil {
		rec.User = serializedUser{
			Username:  u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		}
	}
	return json.Marshal(rec)
}

// Deserialize is the inverse of Serialize.
func Deserialize(raw []byte) (*SocialLogin, error) {
	var rec serializedLogin
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("social: decode login: %w", err)
	}
	if rec.Version != serializationVersion {
		return nil, fmt.Errorf("%w: %d", errUnsupportedVersion, rec.Version)
	}
	if rec.Provider == "" || rec.UID == "" {
		return nil, errors.New("social: serialized login without provider/uid")
	}
	return &SocialLogin{
		Provider:  rec.Provider,
		UID:       rec.UID,
		ExtraData: rec.ExtraData,
		Emails:    rec.Emails,
		Token:     rec.Token,
		Process:   rec.Process,
		State:     rec.State,
		User: &repository.User{
			Username:  rec.User.Username,
			Email:     rec.User.Email,
			FirstName: rec.User.FirstName,
			LastName:  rec.User.LastName,
			IsActive:  true,
		},
	}, nil
}
