package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// NonceSize is the AES-GCM nonce length used for every sealed field.
const NonceSize = 12

// ErrAuthentication is returned by Open when the ciphertext fails its
// integrity check: wrong key, tampered or truncated data, or a bad nonce.
var ErrAuthentication = errors.New("ciphertext authentication failed")

// Field is one sealed value. Ciphertext carries the GCM tag appended to the
// encrypted bytes. The nonce is never reused and always travels with it.
type Field struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
}

// Seal encrypts plaintext under key with a freshly generated nonce.
func Seal(key, plaintext []byte) (Field, error) {
	aead, err := newGCM(key)
	if err != nil {
		return Field{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Field{}, fmt.Errorf("generating nonce: %w", err)
	}

	return Field{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Nonce:      nonce,
	}, nil
}

// Open decrypts f under key. Any integrity failure yields ErrAuthentication.
func Open(key []byte, f Field) ([]byte, error) {
	if len(f.Nonce) != NonceSize {
		return nil, fmt.Errorf("nonce length %d: %w", len(f.Nonce), ErrAuthentication)
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, f.Nonce, f.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// SealString is Seal for UTF-8 text.
func SealString(key []byte, s string) (Field, error) {
	return Seal(key, []byte(s))
}

// OpenString is Open for UTF-8 text.
func OpenString(key []byte, f Field) (string, error) {
	b, err := Open(key, f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key length %d, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return aead, nil
}
