package journal

import (
	"context"
	"fmt"

	"journal-go/internal/encryption"
)

// PhotoStore seals photos on write and opens them on read. The image and
// its thumbnail are sealed independently; dimensions, size, format, and
// caption stay in plaintext.
type PhotoStore struct {
	db     Database
	keys   KeySource
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewPhotoStore creates a PhotoStore.
func NewPhotoStore(db Database, keys KeySource, logger Logger, clock Clock, idgen IDGenerator) *PhotoStore {
	return &PhotoStore{
		db:     db,
		keys:   keys,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Add seals and stores a photo and returns its ID. The owning entry must
// already exist.
func (s *PhotoStore) Add(ctx context.Context, in NewPhoto) (string, error) {
	if in.EntryID == "" {
		return "", fmt.Errorf("photo without entry: %w", ErrInvalidRecord)
	}

	key, err := s.keys.LiveKey()
	if err != nil {
		return "", err
	}
	defer encryption.Wipe(key)

	entry, err := s.db.GetEntry(ctx, in.EntryID)
	if err != nil {
		return "", storageErr("loading entry", err)
	}
	if entry == nil {
		return "", fmt.Errorf("entry %s: %w", in.EntryID, ErrNotFound)
	}

	rec := &PhotoRecord{
		SchemaVersion: SchemaVersion,
		ID:            s.idgen.New(),
		UserID:        in.UserID,
		EntryID:       in.EntryID,
		Width:         in.Width,
		Height:        in.Height,
		Size:          int64(len(in.Image)),
		Format:        in.Format,
		Caption:       in.Caption,
		CreatedAt:     s.clock.Now(),
	}
	if err := sealPhoto(key, rec, in.Image, in.Thumbnail); err != nil {
		return "", err
	}

	if err := s.db.PutPhoto(ctx, rec); err != nil {
		return "", storageErr("storing photo", err)
	}

	s.logger.Info("photo added", "id", rec.ID, "entry", rec.EntryID, "size", rec.Size)
	return rec.ID, nil
}

// Update merges u into the stored photo, re-sealing both blobs under fresh
// nonces. A carried-over blob that cannot be opened fails the update with a
// *DecryptionError.
func (s *PhotoStore) Update(ctx context.Context, id string, u PhotoUpdate) error {
	key, err := s.keys.LiveKey()
	if err != nil {
		return err
	}
	defer encryption.Wipe(key)

	rec, err := s.db.GetPhoto(ctx, id)
	if err != nil {
		return storageErr("loading photo", err)
	}
	if rec == nil {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	if rec.SchemaVersion != SchemaVersion {
		return fmt.Errorf("photo %s schema version %d: %w", id, rec.SchemaVersion, ErrFormat)
	}

	image := u.Image
	if image == nil {
		if image, err = openField(key, id, fieldImage, rec.Image); err != nil {
			return err
		}
	} else {
		rec.Size = int64(len(image))
	}
	thumb := u.Thumbnail
	if thumb == nil {
		if thumb, err = openField(key, id, fieldThumbnail, rec.Thumbnail); err != nil {
			return err
		}
	}

	if err := sealPhoto(key, rec, image, thumb); err != nil {
		return err
	}
	if u.Width != nil {
		rec.Width = *u.Width
	}
	if u.Height != nil {
		rec.Height = *u.Height
	}
	if u.Format != nil {
		rec.Format = *u.Format
	}
	if u.Caption != nil {
		rec.Caption = *u.Caption
	}

	if err := s.db.PutPhoto(ctx, rec); err != nil {
		return storageErr("storing photo", err)
	}

	s.logger.Info("photo updated", "id", id)
	return nil
}

// Remove deletes the photo permanently. Its entry is not touched.
func (s *PhotoStore) Remove(ctx context.Context, id string) error {
	if err := s.db.DeletePhoto(ctx, id); err != nil {
		return storageErr("deleting photo", err)
	}
	s.logger.Info("photo removed", "id", id)
	return nil
}

// GetByID opens a single photo.
func (s *PhotoStore) GetByID(ctx context.Context, id string) (*Photo, error) {
	key, err := s.keys.LiveKey()
	if err != nil {
		return nil, err
	}
	defer encryption.Wipe(key)

	rec, err := s.db.GetPhoto(ctx, id)
	if err != nil {
		return nil, storageErr("loading photo", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return openPhoto(key, rec)
}

// GetAll opens every photo. Photos that fail to open are logged and skipped.
func (s *PhotoStore) GetAll(ctx context.Context) ([]*Photo, error) {
	key, err := s.keys.LiveKey()
	if err != nil {
		return nil, err
	}
	defer encryption.Wipe(key)

	recs, err := s.db.ListPhotos(ctx)
	if err != nil {
		return nil, storageErr("listing photos", err)
	}
	return s.openAll(key, recs), nil
}

// ListByEntry opens the photos attached to entryID.
func (s *PhotoStore) ListByEntry(ctx context.Context, entryID string) ([]*Photo, error) {
	key, err := s.keys.LiveKey()
	if err != nil {
		return nil, err
	}
	defer encryption.Wipe(key)

	recs, err := s.db.ListPhotosByEntry(ctx, entryID)
	if err != nil {
		return nil, storageErr("listing photos", err)
	}
	return s.openAll(key, recs), nil
}

func (s *PhotoStore) openAll(key []byte, recs []*PhotoRecord) []*Photo {
	photos := make([]*Photo, 0, len(recs))
	for _, rec := range recs {
		p, err := openPhoto(key, rec)
		if err != nil {
			s.logger.Warn("skipping unreadable photo", "id", rec.ID, "error", err)
			continue
		}
		photos = append(photos, p)
	}
	return photos
}
