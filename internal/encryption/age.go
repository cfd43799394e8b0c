package encryption

import (
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

// AgeExtension is appended to the names of age-sealed backup files.
const AgeExtension = ".age"

// AgeSealer wraps whole backup files in age's scrypt passphrase encryption.
// The records inside a backup are already sealed with the journal key; this
// adds a second, independent layer for files that leave the machine.
type AgeSealer struct {
	passphrase string
	workFactor int // scrypt log2(N); zero keeps age's default
}

var _ Sealer = (*AgeSealer)(nil)

// NewAgeSealer creates an AgeSealer for the given passphrase.
func NewAgeSealer(passphrase string) *AgeSealer {
	return &AgeSealer{passphrase: passphrase}
}

// Seal reads plaintext from r and writes age ciphertext to w.
func (s *AgeSealer) Seal(r io.Reader, w io.Writer) error {
	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if s.workFactor > 0 {
		recipient.SetWorkFactor(s.workFactor)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}

	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// Open reads age ciphertext from r and writes plaintext to w.
// A wrong passphrase is reported as ErrAuthentication.
func (s *AgeSealer) Open(r io.Reader, w io.Writer) error {
	identity, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return fmt.Errorf("opening sealed backup: %w", ErrAuthentication)
		}
		return fmt.Errorf("creating decrypted reader: %w", err)
	}

	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}

func (s *AgeSealer) Extension() string { return AgeExtension }
