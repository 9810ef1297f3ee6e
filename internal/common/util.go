package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// TokenAlphabet is the character set used for server-generated secret tokens.
const TokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system entropy source fails, which is unrecoverable anyway.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// MakeRandHexString returns a hex string encoding size random bytes
// (so the result is 2*size characters long).
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeRandTokenString returns a random string of length chars drawn uniformly
// from TokenAlphabet using crypto/rand. Used for AUTO-generated tokens;
// a predictable generator must never be substituted here.
func MakeRandTokenString(length int) (string, error) {
	max := big.NewInt(int64(len(TokenAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = TokenAlphabet[n.Int64()]
	}
	return string(out), nil
}
