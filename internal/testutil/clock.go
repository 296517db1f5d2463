package testutil

import (
	"sync"
	"time"
)

// ManualClock is a thread-safe wall clock for tests that only moves when told.
//
// Now returns the same instant until Set or Advance is called, which lets a
// test control exactly which ts an append receives.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu sync.Mutex
	ms int64
}

// NewManualClock creates a clock reading ms milliseconds since the epoch.
func NewManualClock(ms int64) *ManualClock {
	return &ManualClock{ms: ms}
}

// Now returns the current instant. Matches the func() time.Time clock
// option of eventlog.New.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.UnixMilli(c.ms)
}

// Millis returns the current instant as ms since the epoch.
func (c *ManualClock) Millis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Set moves the clock to ms.
func (c *ManualClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms = ms
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms += d.Milliseconds()
}
