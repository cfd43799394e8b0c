package testutil

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"journal-go/internal/journal"
)

// FixedTime is the instant every FixedClock starts at.
var FixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// StubClock is a journal.Clock that only moves when told to. It is safe to
// read from the auto-lock goroutine while a test advances it.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ journal.Clock = (*StubClock)(nil)

// FixedClock returns a StubClock at FixedTime.
func FixedClock() *StubClock {
	return &StubClock{now: FixedTime}
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward, e.g. past the inactivity timeout.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// StubIDGenerator hands out record IDs "id-1", "id-2", ... in call order.
type StubIDGenerator struct {
	n atomic.Int64
}

var _ journal.IDGenerator = (*StubIDGenerator)(nil)

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	return "id-" + strconv.FormatInt(g.n.Add(1), 10)
}
