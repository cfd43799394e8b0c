package journal

import "context"

// Database provides the persistent store for credentials and sealed records.
// Finders return (nil, nil) when the record does not exist.
type Database interface {
	// Config collection: single values under well-known keys.

	// GetConfig returns the value stored under key, or nil if absent.
	GetConfig(ctx context.Context, key string) ([]byte, error)
	PutConfig(ctx context.Context, key string, value []byte) error

	// Entry collection

	// PutEntry inserts or replaces the entry with the record's ID.
	PutEntry(ctx context.Context, rec *EntryRecord) error
	GetEntry(ctx context.Context, id string) (*EntryRecord, error)
	// ListEntries returns every entry, newest calendar date first.
	ListEntries(ctx context.Context) ([]*EntryRecord, error)
	// ListEntriesByDate returns entries whose date lies in [from, to],
	// both in DateLayout form, newest first.
	ListEntriesByDate(ctx context.Context, from, to string) ([]*EntryRecord, error)
	DeleteEntry(ctx context.Context, id string) error

	// Photo collection

	// PutPhoto inserts or replaces the photo with the record's ID.
	PutPhoto(ctx context.Context, rec *PhotoRecord) error
	GetPhoto(ctx context.Context, id string) (*PhotoRecord, error)
	ListPhotos(ctx context.Context) ([]*PhotoRecord, error)
	ListPhotosByEntry(ctx context.Context, entryID string) ([]*PhotoRecord, error)
	DeletePhoto(ctx context.Context, id string) error

	// WithTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Database) error) error

	// Wipe removes every credential, entry, and photo.
	Wipe(ctx context.Context) error

	Close() error
}
