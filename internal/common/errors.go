// Package common defines shared constants and sentinel errors used across
// client and server layers of the gallery service. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrDuplicateUserName = errors.New("user name already taken")
	ErrStoreUnavailable  = errors.New("store unavailable")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid user name or password")
	ErrForbidden          = errors.New("forbidden")
	ErrHashingFailure     = errors.New("password hashing failed")

	// Auth errors. Every reason a session token is rejected (malformed,
	// bad signature, expired) is reported as ErrInvalidToken.
	ErrInvalidToken = errors.New("invalid or expired token")
)
