package databaseerrors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrUnavailable    = errors.New("database unavailable")
	// ErrOutcomeUnknown marks a write whose connection failed after the statement or commit
	// was sent; it may have been applied and must not be repeated.
	ErrOutcomeUnknown = errors.New("write outcome unknown")
)
