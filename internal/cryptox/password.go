package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for password storage. Memory-hard on purpose: a fast
// general-purpose hash is not acceptable for password verification.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// HashPassword derives an Argon2id hash of password under a fresh random
// salt and encodes it as a PHC string:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt-b64>$<hash-b64>
func HashPassword(password []byte) (string, error) {
	salt := common.GenerateRandByteArray(argonSaltLen)
	hash := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword re-derives the hash of password with the parameters and
// salt embedded in the PHC string and compares in constant time.
func VerifyPassword(password []byte, encoded string) (bool, error) {
	salt, hash, memory, time, threads, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey(password, salt, time, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// dummyHash is a throwaway PHC string used to equalize login timing for
// unknown usernames. The password behind it is random and unrecoverable.
var dummyHash = func() string {
	h, _ := HashPassword(common.GenerateRandByteArray(32))
	return h
}()

// DummyVerify burns the same Argon2id cost as a real verification so a
// login attempt for a nonexistent user is not measurably faster than one
// with a wrong password.
func DummyVerify(password []byte) {
	_, _ = VerifyPassword(password, dummyHash)
}

func decodePHC(encoded string) (salt, hash []byte, memory, time uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, errors.New("malformed password hash")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, errors.New("malformed password hash")
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, errors.New("unsupported argon2 version")
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, 0, 0, 0, errors.New("malformed password hash")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, errors.New("malformed password hash")
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, errors.New("malformed password hash")
	}
	return salt, hash, memory, time, threads, nil
}
