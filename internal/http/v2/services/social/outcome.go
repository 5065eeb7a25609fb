package social

import "github.com/dropDatabas3/socialauth/internal/domain/repository"

// Outcome is the terminal result of a flow. Adapters switch on the
// concrete type and map it to their transport.
type Outcome interface {
	Kind() string
}

// LoggedIn: the session is now bound to User.
type LoggedIn struct {
	User        *repository.User
	RedirectURL string
	Login       *SocialLogin
}

// RedirectToSignup: the login was stored as a pending signup and the
// user must confirm it on the signup form.
type RedirectToSignup struct{}

// RedirectTo sends the client to URL. It is also the shape used for
// "verification sent", so it must not reveal why it was produced.
type RedirectTo struct {
	URL string
}

// Rendered asks the adapter to render a page by template key.
type Rendered struct {
	Template string
	Data     map[string]any
}

// SignupClosed: signup is not allowed right now.
type SignupClosed struct{}

// ValidationFailed carries field level errors.
type ValidationFailed struct {
	Errors []FieldError
}

func (LoggedIn) Kind() string         { return "logged_in" }
func (RedirectToSignup) Kind() string { return "redirect_to_signup" }
func (RedirectTo) Kind() string       { return "redirect" }
func (Rendered) Kind() string         { return "rendered" }
func (SignupClosed) Kind() string     { return "signup_closed" }
func (ValidationFailed) Kind() string { return "validation_failed" }

// OutcomeError is the metric kind of a flow that ended in an error.
const OutcomeError = "error"

// Template keys produced by the flows.
const (
	TemplateSignupClosed    = "account/signup_closed"
	TemplateAccountInactive = "account/account_inactive"
)
