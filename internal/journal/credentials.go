package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CredentialsKey is the config key the credential record is stored under.
const CredentialsKey = "credentials"

// CredentialStore persists the single credential record in the config
// collection of the database. The record is not encrypted.
type CredentialStore struct {
	db Database
}

// NewCredentialStore creates a CredentialStore backed by db.
func NewCredentialStore(db Database) *CredentialStore {
	return &CredentialStore{db: db}
}

// Save replaces the stored credential record.
func (s *CredentialStore) Save(ctx context.Context, c *Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := s.db.PutConfig(ctx, CredentialsKey, data); err != nil {
		return storageErr("saving credentials", err)
	}
	return nil
}

// Load returns the stored credential record, or nil if none exists.
func (s *CredentialStore) Load(ctx context.Context) (*Credentials, error) {
	data, err := s.db.GetConfig(ctx, CredentialsKey)
	if err != nil {
		return nil, storageErr("loading credentials", err)
	}
	if data == nil {
		return nil, nil
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", ErrFormat)
	}
	return &c, nil
}

// TouchActivity stamps the record's last activity time. It is a no-op when
// no record exists.
func (s *CredentialStore) TouchActivity(ctx context.Context, now time.Time) error {
	c, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	c.LastActivity = now.UnixMilli()
	return s.Save(ctx, c)
}
