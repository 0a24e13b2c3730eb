package vm

import "time"

// Pacer blocks until the next controller cycle may start.
type Pacer interface {
	Wait()
}

// FrameClock paces cycles to a fixed interval against wall-clock time.
// If the caller falls behind it resynchronises instead of bursting.
type FrameClock struct {
	interval time.Duration
	next     time.Time
	now      func() time.Time
	sleep    func(time.Duration)
}

func NewFrameClock(interval time.Duration) *FrameClock {
	return &FrameClock{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

func (c *FrameClock) Wait() {
	now := c.now()
	if c.next.IsZero() {
		c.next = now
	}

	c.next = c.next.Add(c.interval)

	d := c.next.Sub(now)
	if d <= 0 {
		c.next = now
		return
	}

	c.sleep(d)
}
