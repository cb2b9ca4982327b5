package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrValidation marks malformed or oversized input rejected before any
	// store access.
	ErrValidation = errors.New("validation error")

	// ErrStoreUnavailable marks a transient failure of the account store.
	// Callers may retry; it is never a statement about the credentials.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
