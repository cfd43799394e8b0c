package testutil

import (
	"bytes"
	"context"
	"testing"

	"journal-go/internal/encryption"
	"journal-go/internal/journal"
)

// TestPassword is the password NewTestSession sets up.
const TestPassword = "correct horse battery staple"

// NewTestSession returns a SessionManager over db that has been set up with
// TestPassword and is unlocked.
func NewTestSession(t *testing.T, db journal.Database, clock journal.Clock) *journal.SessionManager {
	t.Helper()

	s := journal.NewSessionManager(journal.NewCredentialStore(db), clock, journal.NewNopLogger())
	if err := s.SetupPassword(context.Background(), TestPassword); err != nil {
		t.Fatalf("SetupPassword() error = %v", err)
	}
	return s
}

// StaticKeys is a KeySource holding a fixed key. A nil Key behaves like a
// locked session.
type StaticKeys struct {
	Key []byte
}

// NewStaticKeys derives a key from password with a fresh salt.
func NewStaticKeys(t *testing.T, password string) *StaticKeys {
	t.Helper()

	salt, err := encryption.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	return &StaticKeys{Key: encryption.DeriveKey(password, salt)}
}

func (k *StaticKeys) LiveKey() ([]byte, error) {
	if k.Key == nil {
		return nil, journal.ErrNotAuthenticated
	}
	return bytes.Clone(k.Key), nil
}

var _ journal.KeySource = (*StaticKeys)(nil)
