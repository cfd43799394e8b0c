package journal

import (
	"context"
	"io"
)

// Vault stores exported backup files outside the local database.
// All operations stream through io.Reader/io.Writer.
type Vault interface {
	// Put stores size bytes read from r under name, replacing any existing object.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Get writes the object stored under name to w.
	Get(ctx context.Context, name string, w io.Writer) error

	// List returns the names of stored objects with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}
