package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"journal-go/internal/encryption"
)

// InactivityTimeout is how long an unlocked session may sit idle before it
// is locked automatically.
const InactivityTimeout = 15 * time.Minute

// State is the lock state of a SessionManager.
type State int

const (
	StateUninitialized State = iota
	StateLockedNoSetup
	StateLocked
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLockedNoSetup:
		return "locked-no-setup"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// KeySource hands out the live key at the moment of use. The returned slice
// is a copy owned by the caller, who should wipe it when done.
type KeySource interface {
	LiveKey() ([]byte, error)
}

// SessionManager is the single owner of the live key. It is safe for
// concurrent use so the auto-locker can run on its own goroutine.
type SessionManager struct {
	creds  *CredentialStore
	clock  Clock
	logger Logger

	mu           sync.Mutex
	state        State
	key          []byte
	salt         []byte
	lastActivity time.Time
}

var _ KeySource = (*SessionManager)(nil)

// NewSessionManager creates a SessionManager in the Uninitialized state.
func NewSessionManager(creds *CredentialStore, clock Clock, logger Logger) *SessionManager {
	return &SessionManager{
		creds:  creds,
		clock:  clock,
		logger: logger,
	}
}

// Load inspects the credential record and leaves Uninitialized for either
// LockedNoSetup or Locked. Later calls return the current state unchanged.
func (s *SessionManager) Load(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return s.state, err
	}
	return s.state, nil
}

func (s *SessionManager) loadLocked(ctx context.Context) error {
	if s.state != StateUninitialized {
		return nil
	}
	c, err := s.creds.Load(ctx)
	if err != nil {
		return err
	}
	if c == nil || !c.IsSetup {
		s.state = StateLockedNoSetup
	} else {
		s.state = StateLocked
	}
	return nil
}

// State returns the current lock state.
func (s *SessionManager) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetupPassword creates the credential record for a fresh installation and
// unlocks the session. The key salt and the verification-hash salt are
// generated independently.
func (s *SessionManager) SetupPassword(ctx context.Context, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	if s.state != StateLockedNoSetup {
		return ErrAlreadySetup
	}

	salt, err := encryption.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := encryption.HashPassword(password, nil)
	if err != nil {
		return err
	}
	key := encryption.DeriveKey(password, salt)

	now := s.clock.Now()
	c := &Credentials{
		Salt:         salt,
		PasswordHash: hash,
		IsSetup:      true,
		LastActivity: now.UnixMilli(),
	}
	if err := s.creds.Save(ctx, c); err != nil {
		encryption.Wipe(key)
		return err
	}

	s.unlockLocked(key, salt, now)
	s.logger.Info("password set up")
	return nil
}

// Login verifies password against the stored record and, on success, holds
// the derived key live. A wrong password or a missing record returns false
// with a nil error. Only storage failures are reported as errors.
func (s *SessionManager) Login(ctx context.Context, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.creds.Load(ctx)
	if err != nil {
		return false, err
	}
	if c == nil || !c.IsSetup {
		s.state = StateLockedNoSetup
		return false, nil
	}
	if s.state == StateUninitialized {
		s.state = StateLocked
	}

	ok, err := encryption.VerifyPassword(password, c.PasswordHash)
	if err != nil {
		if errors.Is(err, encryption.ErrInvalidHash) {
			return false, fmt.Errorf("stored password hash: %w", ErrFormat)
		}
		return false, err
	}
	if !ok {
		s.logger.Warn("login failed")
		return false, nil
	}

	key := encryption.DeriveKey(password, c.Salt)
	now := s.clock.Now()
	c.LastActivity = now.UnixMilli()
	if err := s.creds.Save(ctx, c); err != nil {
		encryption.Wipe(key)
		return false, err
	}

	s.unlockLocked(key, c.Salt, now)
	s.logger.Info("session unlocked")
	return true, nil
}

// Logout wipes the live key and locks the session.
func (s *SessionManager) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUnlocked {
		s.logger.Info("session locked")
	}
	s.lockLocked()
}

// Reset wipes the live key and returns the session to LockedNoSetup. Used
// after the store has been cleared.
func (s *SessionManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked()
	s.state = StateLockedNoSetup
}

// Reload wipes the live key and re-reads the credential record, as after
// the record has been replaced by an import.
func (s *SessionManager) Reload(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked()
	s.state = StateUninitialized
	if err := s.loadLocked(ctx); err != nil {
		return s.state, err
	}
	return s.state, nil
}

// LiveKey returns a copy of the live key, or ErrNotAuthenticated when the
// session is not unlocked.
func (s *SessionManager) LiveKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnlocked || s.key == nil {
		return nil, ErrNotAuthenticated
	}
	return bytes.Clone(s.key), nil
}

// MatchesSalt reports whether the session is unlocked with a key derived
// from salt.
func (s *SessionManager) MatchesSalt(salt []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateUnlocked && bytes.Equal(s.salt, salt)
}

// TouchActivity records a qualifying user interaction in memory and in the
// credential store. It does nothing while locked.
func (s *SessionManager) TouchActivity(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUnlocked {
		s.mu.Unlock()
		return nil
	}
	now := s.clock.Now()
	s.lastActivity = now
	s.mu.Unlock()

	return s.creds.TouchActivity(ctx, now)
}

// CheckIdle locks the session if it has been idle for longer than
// InactivityTimeout. It reports whether it locked the session.
func (s *SessionManager) CheckIdle(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnlocked {
		return false
	}
	idle := s.clock.Now().Sub(s.lastActivity)
	if idle <= InactivityTimeout {
		return false
	}

	s.lockLocked()
	s.logger.Info("session auto-locked", "idle", idle.Truncate(time.Second).String())
	return true
}

// rotate replaces the live key after a password change.
func (s *SessionManager) rotate(key, salt []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlockLocked(key, salt, s.clock.Now())
}

func (s *SessionManager) unlockLocked(key, salt []byte, now time.Time) {
	if s.key != nil {
		encryption.Wipe(s.key)
	}
	s.key = key
	s.salt = bytes.Clone(salt)
	s.lastActivity = now
	s.state = StateUnlocked
}

func (s *SessionManager) lockLocked() {
	if s.key != nil {
		encryption.Wipe(s.key)
	}
	s.key = nil
	s.salt = nil
	if s.state == StateUnlocked {
		s.state = StateLocked
	}
}
