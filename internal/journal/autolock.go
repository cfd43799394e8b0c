package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// IdleCheckSchedule is how often the AutoLocker polls for inactivity.
const IdleCheckSchedule = "@every 1m"

// AutoLocker polls a SessionManager once per minute and locks it after
// InactivityTimeout without activity. Locking may lag the threshold by up
// to one poll interval.
type AutoLocker struct {
	session *SessionManager
	logger  Logger
	onLock  func()

	mu   sync.Mutex
	cron *cron.Cron
}

// NewAutoLocker creates an AutoLocker. onLock, if non-nil, runs after each
// automatic lock.
func NewAutoLocker(session *SessionManager, logger Logger, onLock func()) *AutoLocker {
	return &AutoLocker{session: session, logger: logger, onLock: onLock}
}

// Start begins polling. Calling Start on a running AutoLocker is a no-op.
func (a *AutoLocker) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(IdleCheckSchedule, a.tick); err != nil {
		return fmt.Errorf("scheduling idle check: %w", err)
	}
	c.Start()
	a.cron = c
	a.logger.Debug("auto-lock started", "schedule", IdleCheckSchedule)
	return nil
}

// Stop halts polling and waits for a running check to finish.
func (a *AutoLocker) Stop() {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

func (a *AutoLocker) tick() {
	if a.session.CheckIdle(context.Background()) && a.onLock != nil {
		a.onLock()
	}
}
