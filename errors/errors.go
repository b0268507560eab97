package errors

import (
	"errors"
	"net/http"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrNoRecipient        = errors.New("no recipient found")
	ErrDiscussionNotFound = errors.New("discussion not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrUserNotFound       = errors.New("user not found")

	// ErrDiscussionExists is raised by the store when a second writer races
	// on the same canonical participant set. The resolver re-reads instead
	// of surfacing it.
	ErrDiscussionExists = errors.New("discussion already exists")

	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("password does not meet complexity rules")
	ErrTokenGeneration    = errors.New("token generation failed")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenMissing       = errors.New("no token provided")
)

// Failure is the structured error payload sent over the wire.
type Failure struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ToFailure maps an error to its wire representation. The transport layer
// reuses the code as HTTP status or as the `code` field of an error event.
func ToFailure(err error) Failure {
	return Failure{Message: err.Error(), Code: CodeOf(err)}
}

func CodeOf(err error) int {
	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrNoRecipient),
		errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenMissing):
		return http.StatusUnauthorized
	case errors.Is(err, ErrDiscussionNotFound),
		errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDiscussionExists),
		errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
