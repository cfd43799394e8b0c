package journal

import (
	"errors"
	"fmt"

	"journal-go/internal/encryption"
)

var (
	// ErrAuthentication is returned when a sealed field fails its integrity
	// check. It is the same value the encryption package returns.
	ErrAuthentication = encryption.ErrAuthentication

	// ErrNotAuthenticated is returned when plaintext is requested while the
	// session is locked.
	ErrNotAuthenticated = errors.New("session is locked")

	// ErrDecryption is matched by every *DecryptionError.
	ErrDecryption = errors.New("field could not be decrypted")

	// ErrFormat is returned for malformed or version-mismatched backups and
	// for stored records with an unknown schema version.
	ErrFormat = errors.New("invalid format")

	// ErrStorage wraps failures of the persistent store.
	ErrStorage = errors.New("storage failure")

	ErrNotFound      = errors.New("record not found")
	ErrInvalidRecord = errors.New("invalid record")
	ErrAlreadySetup  = errors.New("password already set up")
)

// DecryptionError reports which field of which record could not be recovered.
type DecryptionError struct {
	RecordID string
	Field    string
	Err      error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decrypting %s of record %s: %v", e.Field, e.RecordID, e.Err)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

func (e *DecryptionError) Is(target error) bool { return target == ErrDecryption }

// storageErr wraps err so it matches both ErrStorage and the original cause.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
