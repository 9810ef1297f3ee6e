// Package common defines shared constants and sentinel errors used across
// TokenVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Session credential errors (invalid vs expired are distinct kinds;
	// both map to "unauthenticated" externally).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrCorruptedRecord signals a ciphertext that fails authenticated
	// decryption: a wrong key or tampered storage, never "absent".
	ErrCorruptedRecord = errors.New("corrupted record")
)
