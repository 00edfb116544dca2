package auth

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the HTTP boundary. Business code returns
// kinds; only WriteError turns them into status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredentials
	KindUnauthorized
	KindNotFound
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type returned by Service operations.
// Message is safe to show to clients; Err carries the internal cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Unauthorized is the error the session guard reports for a missing session.
func Unauthorized() *Error {
	return newError(KindUnauthorized, msgNotAuthorized, ErrNoSession)
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindInternal
}

// Client-facing messages.
const (
	msgMissingFields      = "email and password are required"
	msgPasswordRequired   = "password is required"
	msgUserExists         = "user already exists"
	msgInvalidCredentials = "invalid email or password"
	msgNotAuthorized      = "not authorized"
	msgUserNotFound       = "user not found"
	msgTooManyAttempts    = "too many login attempts"
	msgInternal           = "internal server error"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateIdentity = errors.New("user with this email already exists")
	ErrNoSession         = errors.New("no session token")
	ErrEmailRequired     = errors.New("email is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrEmailTooLong      = errors.New("email exceeds maximum length of 254 characters")
	ErrNameTooLong       = errors.New("name exceeds maximum length of 100 characters")
)
