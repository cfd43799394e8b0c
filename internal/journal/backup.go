package journal

import (
	"context"
	"fmt"
)

// BackupCodec moves sealed records and the credential record between the
// database and a Document. It never decrypts.
type BackupCodec struct {
	db     Database
	logger Logger
	clock  Clock
}

// NewBackupCodec creates a BackupCodec.
func NewBackupCodec(db Database, logger Logger, clock Clock) *BackupCodec {
	return &BackupCodec{db: db, logger: logger, clock: clock}
}

// ExportAll bundles the credential record and every entry, plus every photo
// when includePhotos is set.
func (b *BackupCodec) ExportAll(ctx context.Context, includePhotos bool) (*Document, error) {
	creds, err := NewCredentialStore(b.db).Load(ctx)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, fmt.Errorf("credentials: %w", ErrNotFound)
	}

	entries, err := b.db.ListEntries(ctx)
	if err != nil {
		return nil, storageErr("listing entries", err)
	}

	doc := &Document{
		FormatVersion: FormatVersion,
		Entries:       make([]SealedEntry, 0, len(entries)),
		Credentials:   creds,
		ExportedAt:    b.clock.Now().UnixMilli(),
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, sealedEntryFrom(e))
	}

	if includePhotos {
		photos, err := b.db.ListPhotos(ctx)
		if err != nil {
			return nil, storageErr("listing photos", err)
		}
		for _, p := range photos {
			doc.Photos = append(doc.Photos, sealedPhotoFrom(p))
		}
	}

	b.logger.Info("backup exported", "entries", len(doc.Entries), "photos", len(doc.Photos))
	return doc, nil
}

// ImportAll validates doc in full and then, in one transaction, replaces the
// credential record and writes every record verbatim, overwriting records
// with the same ID. A document that fails validation writes nothing.
func (b *BackupCodec) ImportAll(ctx context.Context, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("empty document: %w", ErrFormat)
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	err := b.db.WithTx(ctx, func(tx Database) error {
		if err := NewCredentialStore(tx).Save(ctx, doc.Credentials); err != nil {
			return err
		}
		for _, e := range doc.Entries {
			if err := tx.PutEntry(ctx, e.record()); err != nil {
				return storageErr("importing entry "+e.ID, err)
			}
		}
		for _, p := range doc.Photos {
			if err := tx.PutPhoto(ctx, p.record()); err != nil {
				return storageErr("importing photo "+p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("importing backup: %w", err)
	}

	b.logger.Info("backup imported", "entries", len(doc.Entries), "photos", len(doc.Photos))
	return nil
}
