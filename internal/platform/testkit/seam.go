package testkit

import (
	"sync"
	"testing"
	"time"
)

var seamMu sync.Mutex

// Swap replaces a package-level var for the duration of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial holds a global lock for the test so seam mutations don't race
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(seamMu.Unlock)
}

// Clock is a settable time source for now() seams
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a Clock fixed at t
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Set pins the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}
