package testutil

import (
	"fmt"
	"time"
)

// StubClock returns a settable time.
type StubClock struct {
	now time.Time
}

// NewStubClock creates a StubClock set to t.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock at 2024-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time { return c.now }

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// StubIDGenerator returns "db-1", "db-2", ...
type StubIDGenerator struct {
	counter int
}

func (g *StubIDGenerator) New() string {
	g.counter++
	return fmt.Sprintf("db-%d", g.counter)
}
