package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"journal-go/internal/encryption"
)

// FormatVersion is the backup document version this build reads and writes.
const FormatVersion = 1

// Document is the portable backup of one installation. Every sealed field
// travels verbatim, so a document is only readable with the password that
// produced Credentials.Salt. Timestamps are Unix milliseconds.
type Document struct {
	FormatVersion int           `json:"formatVersion"`
	Entries       []SealedEntry `json:"entries"`
	Photos        []SealedPhoto `json:"photos,omitempty"`
	Credentials   *Credentials  `json:"credentials"`
	ExportedAt    int64         `json:"exportedAt"`
}

// SealedEntry is the document form of an EntryRecord.
type SealedEntry struct {
	SchemaVersion int              `json:"schemaVersion"`
	ID            string           `json:"id"`
	Title         encryption.Field `json:"title"`
	Content       encryption.Field `json:"content"`
	Tags          encryption.Field `json:"tags"`
	Mood          Mood             `json:"mood"`
	Date          string           `json:"date"`
	CreatedAt     int64            `json:"createdAt"`
	UpdatedAt     int64            `json:"updatedAt"`
}

// SealedPhoto is the document form of a PhotoRecord.
type SealedPhoto struct {
	SchemaVersion int              `json:"schemaVersion"`
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	EntryID       string           `json:"entryId"`
	Image         encryption.Field `json:"image"`
	Thumbnail     encryption.Field `json:"thumbnail"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	Size          int64            `json:"size"`
	Format        string           `json:"format"`
	Caption       string           `json:"caption,omitempty"`
	CreatedAt     int64            `json:"createdAt"`
}

func sealedEntryFrom(r *EntryRecord) SealedEntry {
	return SealedEntry{
		SchemaVersion: r.SchemaVersion,
		ID:            r.ID,
		Title:         r.Title,
		Content:       r.Content,
		Tags:          r.Tags,
		Mood:          r.Mood,
		Date:          r.Date,
		CreatedAt:     r.CreatedAt.UnixMilli(),
		UpdatedAt:     r.UpdatedAt.UnixMilli(),
	}
}

func (e SealedEntry) record() *EntryRecord {
	return &EntryRecord{
		SchemaVersion: e.SchemaVersion,
		ID:            e.ID,
		Title:         e.Title,
		Content:       e.Content,
		Tags:          e.Tags,
		Mood:          e.Mood,
		Date:          e.Date,
		CreatedAt:     time.UnixMilli(e.CreatedAt),
		UpdatedAt:     time.UnixMilli(e.UpdatedAt),
	}
}

func sealedPhotoFrom(r *PhotoRecord) SealedPhoto {
	return SealedPhoto{
		SchemaVersion: r.SchemaVersion,
		ID:            r.ID,
		UserID:        r.UserID,
		EntryID:       r.EntryID,
		Image:         r.Image,
		Thumbnail:     r.Thumbnail,
		Width:         r.Width,
		Height:        r.Height,
		Size:          r.Size,
		Format:        r.Format,
		Caption:       r.Caption,
		CreatedAt:     r.CreatedAt.UnixMilli(),
	}
}

func (p SealedPhoto) record() *PhotoRecord {
	return &PhotoRecord{
		SchemaVersion: p.SchemaVersion,
		ID:            p.ID,
		UserID:        p.UserID,
		EntryID:       p.EntryID,
		Image:         p.Image,
		Thumbnail:     p.Thumbnail,
		Width:         p.Width,
		Height:        p.Height,
		Size:          p.Size,
		Format:        p.Format,
		Caption:       p.Caption,
		CreatedAt:     time.UnixMilli(p.CreatedAt),
	}
}

// Validate checks the document shape without decrypting anything. All
// failures match ErrFormat.
func (d *Document) Validate() error {
	if d.FormatVersion != FormatVersion {
		return fmt.Errorf("format version %d, want %d: %w", d.FormatVersion, FormatVersion, ErrFormat)
	}

	c := d.Credentials
	if c == nil || !c.IsSetup {
		return fmt.Errorf("missing credentials: %w", ErrFormat)
	}
	if len(c.Salt) != encryption.SaltSize {
		return fmt.Errorf("credential salt length %d: %w", len(c.Salt), ErrFormat)
	}
	if _, _, err := encryption.ParsePasswordHash(c.PasswordHash); err != nil {
		return fmt.Errorf("credential password hash: %w", ErrFormat)
	}

	for i, e := range d.Entries {
		if err := validateSealedEntry(e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	for i, p := range d.Photos {
		if err := validateSealedPhoto(p); err != nil {
			return fmt.Errorf("photo %d: %w", i, err)
		}
	}
	return nil
}

func validateSealedEntry(e SealedEntry) error {
	if e.ID == "" {
		return fmt.Errorf("missing id: %w", ErrFormat)
	}
	if e.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema version %d: %w", e.SchemaVersion, ErrFormat)
	}
	if !e.Mood.Valid() {
		return fmt.Errorf("mood %q: %w", e.Mood, ErrFormat)
	}
	if ValidateDate(e.Date) != nil {
		return fmt.Errorf("date %q: %w", e.Date, ErrFormat)
	}
	return validateFields(map[string]encryption.Field{
		fieldTitle:   e.Title,
		fieldContent: e.Content,
		fieldTags:    e.Tags,
	})
}

func validateSealedPhoto(p SealedPhoto) error {
	if p.ID == "" || p.EntryID == "" {
		return fmt.Errorf("missing id: %w", ErrFormat)
	}
	if p.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema version %d: %w", p.SchemaVersion, ErrFormat)
	}
	return validateFields(map[string]encryption.Field{
		fieldImage:     p.Image,
		fieldThumbnail: p.Thumbnail,
	})
}

func validateFields(fields map[string]encryption.Field) error {
	for name, f := range fields {
		if len(f.Nonce) != encryption.NonceSize {
			return fmt.Errorf("%s nonce length %d: %w", name, len(f.Nonce), ErrFormat)
		}
		if len(f.Ciphertext) == 0 {
			return fmt.Errorf("%s ciphertext missing: %w", name, ErrFormat)
		}
	}
	return nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// Decode parses a JSON backup. It does not validate the document. Data
// after the document is rejected.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding backup: %w: %v", ErrFormat, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding backup: trailing data: %w", ErrFormat)
	}
	return &doc, nil
}
