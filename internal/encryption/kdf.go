package encryption

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 work factor for both key derivation and
	// password verification hashes.
	Iterations = 100_000
	// SaltSize is the length in bytes of every generated salt.
	SaltSize = 16
	// KeySize is the length in bytes of a derived AES-256 key.
	KeySize = 32
)

// ErrInvalidHash is returned when a stored password hash cannot be parsed.
var ErrInvalidHash = errors.New("invalid password hash format")

// DeriveKey stretches password with salt into a 32-byte AES key using
// PBKDF2-HMAC-SHA256. The same inputs always produce the same key.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

// GenerateSalt returns SaltSize bytes from the system CSPRNG.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// HashPassword produces a verification hash of the form "<saltHex>:<hashHex>".
// A fresh salt is generated when salt is nil.
func HashPassword(password string, salt []byte) (string, error) {
	if salt == nil {
		var err error
		if salt, err = GenerateSalt(); err != nil {
			return "", err
		}
	}
	sum := DeriveKey(password, salt)
	defer Wipe(sum)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(sum), nil
}

// VerifyPassword recomputes the hash of password under the salt embedded in
// stored and compares the two in constant time.
func VerifyPassword(password, stored string) (bool, error) {
	salt, want, err := ParsePasswordHash(stored)
	if err != nil {
		return false, err
	}

	got := DeriveKey(password, salt)
	defer Wipe(got)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// ParsePasswordHash splits a "<saltHex>:<hashHex>" verification hash into
// its salt and digest. Anything else returns ErrInvalidHash.
func ParsePasswordHash(stored string) (salt, sum []byte, err error) {
	saltHex, hashHex, ok := strings.Cut(stored, ":")
	if !ok {
		return nil, nil, ErrInvalidHash
	}
	salt, err = hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return nil, nil, ErrInvalidHash
	}
	sum, err = hex.DecodeString(hashHex)
	if err != nil || len(sum) != KeySize {
		return nil, nil, ErrInvalidHash
	}
	return salt, sum, nil
}

// Wipe zeroes b in place. Used for key material that is no longer needed.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
