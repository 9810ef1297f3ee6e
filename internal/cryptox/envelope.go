// Package cryptox implements the cryptographic primitives of TokenVault:
// the envelope that encrypts token plaintext before it reaches storage, and
// Argon2id password hashing for the identity layer.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tokenvault/internal/common"
)

// KeySize is the required envelope key length (AES-256).
const KeySize = 32

// envelopeVersion tags stored blobs so the framing can evolve without
// guessing. Stored blob layout: version, nonce, GCM ciphertext.
const envelopeVersion byte = 0x01

const nonceSize = 12

// ErrDecrypt is returned when a stored blob fails authenticated decryption:
// wrong key, tampered or truncated data, or an unknown version tag.
// It deliberately carries no detail about which of those happened.
var ErrDecrypt = errors.New("decrypt failed")

// Envelope performs authenticated symmetric encryption (AES-256-GCM) of
// token plaintext. A single instance is constructed at process start from
// the configured key and shared by all requests; it is immutable and safe
// for concurrent use.
type Envelope struct {
	aead cipher.AEAD
}

// NewEnvelope builds an Envelope from a raw key. The key must be exactly
// KeySize bytes; anything else is a construction error so a misconfigured
// process fails at startup, not on first use.
func NewEnvelope(key []byte) (*Envelope, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("envelope key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Envelope{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// storable blob: version tag, then nonce, then ciphertext.
func (e *Envelope) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	blob := make([]byte, 0, 1+nonceSize+len(plaintext)+e.aead.Overhead())
	blob = append(blob, envelopeVersion)
	blob = append(blob, nonce...)
	blob = e.aead.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. Any failure (short blob,
// unknown version, authentication failure) is reported as ErrDecrypt
// (wrapping common.ErrCorruptedRecord so callers can classify it).
func (e *Envelope) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < 1+nonceSize+e.aead.Overhead() {
		return nil, fmt.Errorf("%w: %w", common.ErrCorruptedRecord, ErrDecrypt)
	}
	if blob[0] != envelopeVersion {
		return nil, fmt.Errorf("%w: %w", common.ErrCorruptedRecord, ErrDecrypt)
	}
	nonce := blob[1 : 1+nonceSize]
	plaintext, err := e.aead.Open(nil, nonce, blob[1+nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCorruptedRecord, ErrDecrypt)
	}
	return plaintext, nil
}

// GenerateKey returns a fresh random envelope key. It is used only by the
// keygen command, which prints the encoded key exactly once; the server
// never auto-generates and never logs key material.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// EncodeKey renders a key in the form accepted by ParseKey.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// ParseKey decodes a base64 key from configuration and checks its length.
func ParseKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("envelope key is not valid base64: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("envelope key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}
