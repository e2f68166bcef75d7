package dateutil

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// ManualClock only moves when Advance or Set is called. It never goes
// backwards: Set to an earlier time is ignored.
type ManualClock struct {
	mutex sync.Mutex
	now   time.Time
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

func (c *ManualClock) Set(t time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// WithinWindow reports whether now is at or before start+window.
func WithinWindow(now, start time.Time, window time.Duration) bool {
	return !now.After(start.Add(window))
}
