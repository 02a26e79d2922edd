// Package apperr defines sentinel errors shared across the library layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidID     = errors.New("invalid record id")
	ErrMissingID     = errors.New("record has no id")
	ErrValidation    = errors.New("validation failed")
)
