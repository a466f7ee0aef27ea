package clock

import "time"

// FakeClock is a settable Clock for tests. It only moves when told to,
// so time-stamped rows stay deterministic across a test run.
type FakeClock struct {
	current time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{current: start.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// Set jumps the clock to the given moment.
func (c *FakeClock) Set(t time.Time) {
	c.current = t.UTC()
}
