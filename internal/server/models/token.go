package models

import "time"

// GenerationMethod records how a stored token came to exist.
type GenerationMethod string

const (
	// MethodAuto marks tokens generated server-side from a secure random source.
	MethodAuto GenerationMethod = "AUTO"
	// MethodManual marks tokens supplied by the caller.
	MethodManual GenerationMethod = "MANUAL"
)

// Valid reports whether m is one of the known methods.
func (m GenerationMethod) Valid() bool {
	return m == MethodAuto || m == MethodManual
}

// TokenRecord is the single encrypted token of a user. UserID is the primary
// key, so the one-token-per-user invariant holds at the storage engine.
// Ciphertext is the opaque envelope blob; plaintext never reaches this type.
type TokenRecord struct {
	UserID     string
	Ciphertext []byte
	Method     GenerationMethod
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
