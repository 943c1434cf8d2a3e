package test

import (
	"sync"
	"time"
)

// Clock is a virtual clock.
type Clock struct {
	mutex sync.Mutex
	now   time.Time
}

// NewClock allocates a Clock.
func NewClock() *Clock {
	return &Clock{
		now: time.Date(2008, 9, 12, 14, 21, 0, 0, time.UTC),
	}
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

// Advance moves the virtual time forward.
func (c *Clock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}
