// Package common defines sentinel errors shared across folioauth layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Domain errors returned by the session manager. The HTTP boundary
	// maps these to status codes; anything outside this set is a fault.
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAlreadyExists         = errors.New("already exists")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnauthorized          = errors.New("unauthorized")

	// ErrStorageUnavailable reports an unexpected storage or subsystem
	// failure. It is never collapsed into an auth-shaped error, so that
	// operational problems stay visible to callers.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
