package social

import (
	"errors"
	"strings"
)

var (
	// ErrSignupClosed is returned by CompleteOrRaise when signup is closed.
	ErrSignupClosed = errors.New("social: signup closed")

	// ErrInvariant marks programmer errors (e.g. completing a login twice).
	ErrInvariant = errors.New("social: invariant violated")

	// ErrNoPendingSignup means the session holds no login awaiting confirmation.
	ErrNoPendingSignup = errors.New("social: no pending signup")
)

// Error codes used in FieldError.Code.
const (
	CodeInvalidToken            = "invalid_token"
	CodeTokenRequired           = "token_required"
	CodeClientIDRequired        = "client_id_required"
	CodeClientIDMismatch        = "client_id_mismatch"
	CodeUnknownProvider         = "unknown_provider"
	CodeTokenAuthNotSupported   = "token_authentication_not_supported"
	CodeInvalidProcess          = "invalid_process"
	CodeAccountNotFound         = "account_not_found"
	CodeAccountAlreadyConnected = "account_already_connected"
	CodeNotAuthenticated        = "not_authenticated"
	CodeNoPassword              = "no_password"
	CodeNoVerifiedEmail         = "no_verified_email"
	CodeEmailRequired           = "email_required"
	CodeEmailInvalid            = "email_invalid"
	CodeEmailTaken              = "email_taken"
	CodeUsernameRequired        = "username_required"
	CodeUsernameInvalid         = "username_invalid"
	CodeUsernameBlacklisted     = "username_blacklisted"
	CodeUsernameTaken           = "username_taken"
	CodeUsernameTooShort        = "username_too_short"
	CodeRequired                = "required"
)

var messages = map[string]string{
	CodeInvalidToken:            "Invalid token.",
	CodeTokenRequired:           "An id_token or access_token is required.",
	CodeClientIDRequired:        "A client_id is required for this provider.",
	CodeClientIDMismatch:        "The client_id does not match the configured app.",
	CodeUnknownProvider:         "Unknown provider.",
	CodeTokenAuthNotSupported:   "Provider does not support token authentication.",
	CodeInvalidProcess:          "Process must be login or connect.",
	CodeAccountNotFound:         "Unknown account.",
	CodeAccountAlreadyConnected: "The third-party account is already connected to a different account.",
	CodeNotAuthenticated:        "You must be signed in to connect an account.",
	CodeNoPassword:              "Your account has no password set up.",
	CodeNoVerifiedEmail:         "Your account has no verified email address.",
	CodeEmailRequired:           "An email address is required.",
	CodeEmailInvalid:            "Enter a valid email address.",
	CodeEmailTaken:              "A user is already registered with this email address.",
	CodeUsernameRequired:        "A username is required.",
	CodeUsernameInvalid:         "Usernames can only contain letters, digits and @/./+/-/_.",
	CodeUsernameBlacklisted:     "Username can not be used. Please use another username.",
	CodeUsernameTaken:           "A user with that username already exists.",
	CodeUsernameTooShort:        "Username is too short.",
	CodeRequired:                "This field is required.",
}

// Message returns the default human message for code.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return code
}

// FieldError is one validation failure. Field is empty for non-field errors.
type FieldError struct {
	Field   string `json:"param,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError groups field errors. It is always surfaced to the caller.
type ValidationError struct {
	Errors []FieldError
	// Err is the underlying cause (e.g. provider verification failure).
	Err error
}

// NewValidationError builds a single-field error with the default message.
func NewValidationError(field, code string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, code)
	return v
}

// Add appends an error with the default message.
func (v *ValidationError) Add(field, code string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Code: code, Message: Message(code)})
}

// HasErrors reports whether anything was added.
func (v *ValidationError) HasErrors() bool { return v != nil && len(v.Errors) > 0 }

// HasCode reports whether any error carries code.
func (v *ValidationError) HasCode(code string) bool {
	if v == nil {
		return false
	}
	for _, e := range v.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		if e.Field != "" {
			parts = append(parts, e.Field+": "+e.Code)
		} else {
			parts = append(parts, e.Code)
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (v *ValidationError) Unwrap() error { return v.Err }

// AsValidation extracts a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
