package journal

import (
	"sync"
	"testing"
	"time"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func unlockedSession(clock Clock) *SessionManager {
	s := NewSessionManager(nil, clock, NewNopLogger())
	s.unlockLocked(make([]byte, 32), make([]byte, 16), clock.Now())
	return s
}

func TestAutoLocker_Tick(t *testing.T) {
	clock := &stubClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	s := unlockedSession(clock)

	locked := 0
	a := NewAutoLocker(s, NewNopLogger(), func() { locked++ })

	a.tick()
	if locked != 0 || s.State() != StateUnlocked {
		t.Fatalf("tick() locked an active session")
	}

	clock.advance(InactivityTimeout + time.Minute)
	a.tick()
	if locked != 1 {
		t.Errorf("onLock called %d times, want 1", locked)
	}
	if s.State() != StateLocked {
		t.Errorf("State() = %v, want %v", s.State(), StateLocked)
	}

	a.tick()
	if locked != 1 {
		t.Errorf("onLock called again for an already locked session")
	}
}

func TestAutoLocker_StartStop(t *testing.T) {
	clock := &stubClock{now: time.Now()}
	a := NewAutoLocker(unlockedSession(clock), NewNopLogger(), nil)

	// Stop before Start is harmless.
	a.Stop()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	a.Stop()
	a.Stop()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() after Stop error = %v", err)
	}
	a.Stop()
}
