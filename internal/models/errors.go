package models

import "errors"

// Error taxonomy shared by repositories, services and handlers. Callers
// wrap these with fmt.Errorf("...: %w", Err...) and handlers map them to
// HTTP status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)
