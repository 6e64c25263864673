package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusInvalidToken is returned when a one-time token (email verification,
// password reset) is well formed but rejected: unknown hash or past expiry.
// Nonstandard on purpose so clients can offer "request a new link" instead
// of treating it as a generic client error.
const StatusInvalidToken = 489

// Error is the single error type services raise for domain failures.
// Status is the HTTP code the boundary handler responds with,
// Fields carries per-field validation messages when present.
type Error struct {
	Status  int
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Is makes predefined errors usable as sentinels with errors.Is:
// two app errors match when status and message are equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Status == t.Status && e.Message == t.Message
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Validation reports failed input checks with per-field details.
func Validation(message string, fields ...string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Fields: fields}
}

// Predefined domain failures. Services return these directly or wrapped,
// handlers funnel anything that fails through render.Error.
var (
	ErrUserExists      = New(http.StatusConflict, "User with email or username already exists!")
	ErrUserNotFound    = New(http.StatusNotFound, "User not found!")
	ErrAlreadyVerified = New(http.StatusConflict, "Email is already verified!")

	ErrInvalidCredentials   = New(http.StatusBadRequest, "Invalid password!")
	ErrLoginNotFound        = New(http.StatusBadRequest, "User not found!")
	ErrOldPasswordIncorrect = New(http.StatusBadRequest, "Old password is incorrect!")

	ErrUnauthenticated = New(http.StatusUnauthorized, "Unauthorized!")
	ErrForbidden       = New(http.StatusForbidden, "Forbidden!")

	ErrTokenMissing = New(http.StatusBadRequest, "Token is missing!")
	ErrInvalidToken = New(StatusInvalidToken, "Invalid or expired token!")

	ErrInternal = New(http.StatusInternalServerError, "Something went wrong!")
)

// FromError returns the *Error inside err, or ErrInternal when err carries
// no app error. Unexpected failures never leak details to the client.
func FromError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal
}
