package journal

import (
	"encoding/json"
	"fmt"

	"journal-go/internal/encryption"
)

// Field names used in DecryptionError.
const (
	fieldTitle     = "title"
	fieldContent   = "content"
	fieldTags      = "tags"
	fieldImage     = "image"
	fieldThumbnail = "thumbnail"
)

func openField(key []byte, recordID, name string, f encryption.Field) ([]byte, error) {
	b, err := encryption.Open(key, f)
	if err != nil {
		return nil, &DecryptionError{RecordID: recordID, Field: name, Err: err}
	}
	return b, nil
}

func openText(key []byte, recordID, name string, f encryption.Field) (string, error) {
	b, err := openField(key, recordID, name, f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Tags are sealed as a JSON array so the whole list gets a single nonce.
func sealTags(key []byte, tags []string) (encryption.Field, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return encryption.Field{}, fmt.Errorf("encoding tags: %w", err)
	}
	return encryption.Seal(key, data)
}

func openTags(key []byte, recordID string, f encryption.Field) ([]string, error) {
	b, err := openField(key, recordID, fieldTags, f)
	if err != nil {
		return nil, err
	}
	var tags []string
	if err := json.Unmarshal(b, &tags); err != nil {
		return nil, &DecryptionError{RecordID: recordID, Field: fieldTags, Err: fmt.Errorf("decoding tag list: %w", ErrFormat)}
	}
	return tags, nil
}

func sealEntry(key []byte, rec *EntryRecord, title, content string, tags []string) error {
	var err error
	if rec.Title, err = encryption.SealString(key, title); err != nil {
		return fmt.Errorf("sealing title: %w", err)
	}
	if rec.Content, err = encryption.SealString(key, content); err != nil {
		return fmt.Errorf("sealing content: %w", err)
	}
	if rec.Tags, err = sealTags(key, tags); err != nil {
		return fmt.Errorf("sealing tags: %w", err)
	}
	return nil
}

func openEntry(key []byte, rec *EntryRecord) (*Entry, error) {
	if rec.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("entry %s schema version %d: %w", rec.ID, rec.SchemaVersion, ErrFormat)
	}
	title, err := openText(key, rec.ID, fieldTitle, rec.Title)
	if err != nil {
		return nil, err
	}
	content, err := openText(key, rec.ID, fieldContent, rec.Content)
	if err != nil {
		return nil, err
	}
	tags, err := openTags(key, rec.ID, rec.Tags)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:        rec.ID,
		Title:     title,
		Content:   content,
		Tags:      tags,
		Mood:      rec.Mood,
		Date:      rec.Date,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func sealPhoto(key []byte, rec *PhotoRecord, image, thumbnail []byte) error {
	var err error
	if rec.Image, err = encryption.Seal(key, image); err != nil {
		return fmt.Errorf("sealing image: %w", err)
	}
	if rec.Thumbnail, err = encryption.Seal(key, thumbnail); err != nil {
		return fmt.Errorf("sealing thumbnail: %w", err)
	}
	return nil
}

func openPhoto(key []byte, rec *PhotoRecord) (*Photo, error) {
	if rec.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("photo %s schema version %d: %w", rec.ID, rec.SchemaVersion, ErrFormat)
	}
	image, err := openField(key, rec.ID, fieldImage, rec.Image)
	if err != nil {
		return nil, err
	}
	thumb, err := openField(key, rec.ID, fieldThumbnail, rec.Thumbnail)
	if err != nil {
		return nil, err
	}
	return &Photo{
		ID:        rec.ID,
		UserID:    rec.UserID,
		EntryID:   rec.EntryID,
		Image:     image,
		Thumbnail: thumb,
		Width:     rec.Width,
		Height:    rec.Height,
		Size:      rec.Size,
		Format:    rec.Format,
		Caption:   rec.Caption,
		CreatedAt: rec.CreatedAt,
	}, nil
}
