package planning

import "time"

// Clock supplies the current time to the scheduler advisor
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// SystemClock returns a Clock backed by time.Now
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// ManagedClock is a hand-driven Clock. Intended for tests.
type ManagedClock struct {
	startTime time.Time
	offset    time.Duration
}

// NewManagedClock returns a clock frozen at startTime
func NewManagedClock(startTime time.Time) *ManagedClock {
	return &ManagedClock{startTime: startTime}
}

// Now returns the current managed time
func (c *ManagedClock) Now() time.Time {
	return c.startTime.Add(c.offset)
}

// WarpForward moves the clock forward and returns the new time
func (c *ManagedClock) WarpForward(offset time.Duration) time.Time {
	c.offset += offset
	return c.Now()
}
