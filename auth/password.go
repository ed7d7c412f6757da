package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2 parameters based on OWASP recommendations
const (
	Memory      = 64 * 1024 // 64 MB
	Iterations  = 3
	Parallelism = 2
	SaltLength  = 16
	KeyLength   = 32
)

var errInvalidHash = errors.New("invalid hash format")

// Hasher produces and verifies Argon2id credential digests.
type Hasher struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

func NewHasher(memory, iterations uint32) Hasher {
	return Hasher{Memory: memory, Iterations: iterations, Parallelism: Parallelism}
}

func DefaultHasher() Hasher {
	return NewHasher(Memory, Iterations)
}

// Hash generates an Argon2id digest of secret.
// The salt and cost parameters are encoded alongside the key so Compare
// can rebuild the digest without external state.
func (h Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(secret), salt, h.Iterations, h.Memory, h.Parallelism, KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Key := base64.RawStdEncoding.EncodeToString(key)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Iterations, h.Parallelism, b64Salt, b64Key), nil
}

// Compare checks a plain text secret against an encoded digest.
func (h Hasher) Compare(secret, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %v", errInvalidHash, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", errInvalidHash, version)
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("%w: %v", errInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(secret), salt, iterations, memory, parallelism, uint32(len(key)))

	// Constant time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}
