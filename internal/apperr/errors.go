// Package apperr defines the error taxonomy shared across the service.
//
// Handlers classify errors with errors.Is against these sentinels:
// validation and auth failures map to client errors, ErrNotFound to 404,
// and store/upload failures to internal errors.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrStore        = errors.New("store failure")
	ErrUpload       = errors.New("upload failure")
)

// Validationf returns an error matching ErrValidation with a
// caller-facing reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// Storef wraps an underlying I/O error so it matches ErrStore.
func Storef(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}

// Uploadf wraps an underlying I/O error so it matches ErrUpload.
func Uploadf(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpload, op, err)
}
