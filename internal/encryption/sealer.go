package encryption

import (
	"fmt"
	"io"
)

// Sealer wraps a complete backup stream for storage outside the machine.
type Sealer interface {
	// Seal reads plaintext from r and writes the wrapped form to w.
	Seal(r io.Reader, w io.Writer) error
	// Open reverses Seal.
	Open(r io.Reader, w io.Writer) error
	// Extension is the file-name suffix for wrapped streams ("" for none).
	Extension() string
}

// PlainSealer copies data unchanged. Used when no backup passphrase is set;
// the records in the stream are still sealed under the journal key.
type PlainSealer struct{}

var _ Sealer = PlainSealer{}

func (PlainSealer) Seal(r io.Reader, w io.Writer) error { return copyStream(r, w) }
func (PlainSealer) Open(r io.Reader, w io.Writer) error { return copyStream(r, w) }
func (PlainSealer) Extension() string                   { return "" }

func copyStream(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

// NewSealer returns an AgeSealer for a non-empty passphrase and a
// PlainSealer otherwise.
func NewSealer(passphrase string) Sealer {
	if passphrase == "" {
		return PlainSealer{}
	}
	return NewAgeSealer(passphrase)
}
