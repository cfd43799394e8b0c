package journal

import (
	"context"
	"fmt"

	"journal-go/internal/encryption"
)

// EntryStore seals entries on write and opens them on read. Title, content,
// and the tag list are sealed independently, each with its own nonce; mood,
// date, and timestamps stay in plaintext.
type EntryStore struct {
	db     Database
	keys   KeySource
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewEntryStore creates an EntryStore.
func NewEntryStore(db Database, keys KeySource, logger Logger, clock Clock, idgen IDGenerator) *EntryStore {
	return &EntryStore{
		db:     db,
		keys:   keys,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Add seals and stores a new entry and returns its ID.
func (s *EntryStore) Add(ctx context.Context, in NewEntry) (string, error) {
	if !in.Mood.Valid() {
		return "", fmt.Errorf("unknown mood %q: %w", in.Mood, ErrInvalidRecord)
	}
	if err := ValidateDate(in.Date); err != nil {
		return "", err
	}

	key, err := s.keys.LiveKey()
	if err != nil {
		return "", err
	}
	defer encryption.Wipe(key)

	now := s.clock.Now()
	rec := &EntryRecord{
		SchemaVersion: SchemaVersion,
		ID:            s.idgen.New(),
		Mood:          in.Mood,
		Date:          in.Date,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := sealEntry(key, rec, in.Title, in.Content, in.Tags); err != nil {
		return "", err
	}

	if err := s.db.PutEntry(ctx, rec); err != nil {
		return "", storageErr("storing entry", err)
	}

	s.logger.Info("entry added", "id", rec.ID, "date", rec.Date)
	return rec.ID, nil
}

// Update merges u into the stored entry. Fields not carried by u are opened
// and re-sealed together with the replaced ones, every field under a fresh
// nonce. If a carried-over field cannot be opened the update fails with a
// *DecryptionError and nothing is written.
func (s *EntryStore) Update(ctx context.Context, id string, u EntryUpdate) error {
	if u.Mood != nil && !u.Mood.Valid() {
		return fmt.Errorf("unknown mood %q: %w", *u.Mood, ErrInvalidRecord)
	}
	if u.Date != nil {
		if err := ValidateDate(*u.Date); err != nil {
			return err
		}
	}

	key, err := s.keys.LiveKey()
	if err != nil {
		return err
	}
	defer encryption.Wipe(key)

	rec, err := s.db.GetEntry(ctx, id)
	if err != nil {
		return storageErr("loading entry", err)
	}
	if rec == nil {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if rec.SchemaVersion != SchemaVersion {
		return fmt.Errorf("entry %s schema version %d: %w", id, rec.SchemaVersion, ErrFormat)
	}

	var title, content string
	var tags []string

	if u.Title != nil {
		title = *u.Title
	} else if title, err = openText(key, id, fieldTitle, rec.Title); err != nil {
		return err
	}
	if u.Content != nil {
		content = *u.Content
	} else if content, err = openText(key, id, fieldContent, rec.Content); err != nil {
		return err
	}
	if u.Tags != nil {
		tags = *u.Tags
	} else if tags, err = openTags(key, id, rec.Tags); err != nil {
		return err
	}

	if err := sealEntry(key, rec, title, content, tags); err != nil {
		return err
	}
	if u.Mood != nil {
		rec.Mood = *u.Mood
	}
	if u.Date != nil {
		rec.Date = *u.Date
	}
	rec.UpdatedAt = s.clock.Now()

	if err := s.db.PutEntry(ctx, rec); err != nil {
		return storageErr("storing entry", err)
	}

	s.logger.Info("entry updated", "id", id)
	return nil
}

// Remove deletes the entry permanently. Removing a missing entry is not an
// error, and photos attached to it are left in place.
func (s *EntryStore) Remove(ctx context.Context, id string) error {
	if err := s.db.DeleteEntry(ctx, id); err != nil {
		return storageErr("deleting entry", err)
	}
	s.logger.Info("entry removed", "id", id)
	return nil
}

// GetByID opens a single entry. Unlike the listings, a record that fails to
// open is reported as an error.
func (s *EntryStore) GetByID(ctx context.Context, id string) (*Entry, error) {
	key, err := s.keys.LiveKey()
	if err != nil {
		return nil, err
	}
	defer encryption.Wipe(key)

	rec, err := s.db.GetEntry(ctx, id)
	if err != nil {
		return nil, storageErr("loading entry", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return openEntry(key, rec)
}

// GetAll opens every entry, newest date first. Entries that fail to open
// are logged and skipped.
func (s *EntryStore) GetAll(ctx context.Context) ([]*Entry, error) {
	key, err := s.keys.LiveKey()
	if err != nil {
		return nil, err
	}
	defer encryption.Wipe(key)

	recs, err := s.db.ListEntries(ctx)
	if err != nil {
		return nil, storageErr("listing entries", err)
	}
	return s.openAll(key, recs), nil
}

// Range opens the entries dated within [from, to], newest first.
func (s *EntryStore) Range(ctx context.Context, from, to string) ([]*Entry, error) {
	if err := ValidateDate(from); err != nil {
		return nil, err
	}
	if err := ValidateDate(to); err != nil {
		return nil, err
	}

	key, err := s.keys.LiveKey()
	if err != nil {
		return nil, err
	}
	defer encryption.Wipe(key)

	recs, err := s.db.ListEntriesByDate(ctx, from, to)
	if err != nil {
		return nil, storageErr("listing entries by date", err)
	}
	return s.openAll(key, recs), nil
}

// Search returns entries whose title or content contains query, ignoring case.
func (s *EntryStore) Search(ctx context.Context, query string) ([]*Entry, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return SearchEntries(all, query), nil
}

// FilterByTag returns entries carrying tag.
func (s *EntryStore) FilterByTag(ctx context.Context, tag string) ([]*Entry, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterEntriesByTag(all, tag), nil
}

// FilterByMood returns entries with the given mood.
func (s *EntryStore) FilterByMood(ctx context.Context, mood Mood) ([]*Entry, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterEntriesByMood(all, mood), nil
}

func (s *EntryStore) openAll(key []byte, recs []*EntryRecord) []*Entry {
	entries := make([]*Entry, 0, len(recs))
	for _, rec := range recs {
		e, err := openEntry(key, rec)
		if err != nil {
			s.logger.Warn("skipping unreadable entry", "id", rec.ID, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
