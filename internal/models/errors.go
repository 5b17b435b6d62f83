package models

import "errors"

// Error taxonomy shared by the stores, services and handlers. NotFound and
// Forbidden are deliberately distinct: Forbidden means the entity exists but
// belongs to another owner, and no code path may collapse one into the other.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ValidationError marks malformed or incomplete input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// AuthError marks a missing, malformed or expired credential. Msg is the
// client-facing message ("Missing token", "Invalid token", "Invalid
// credentials").
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

func Unauthorized(msg string) error {
	return &AuthError{Msg: msg}
}
