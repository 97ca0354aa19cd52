package capture

import (
	"context"
	"time"
)

// Preroll is the countdown before recording starts
type Preroll struct {
	Count    int
	Interval time.Duration
	// OnTick is called with the remaining count, starting at Count
	OnTick func(remaining int)
}

// DefaultPreroll counts 3, 2, 1 one second apart
func DefaultPreroll() Preroll {
	return Preroll{Count: 3, Interval: time.Second}
}

// Run blocks until the countdown expires (nil), cancel is closed
// (ErrCountdownCancelled) or ctx is done.
func (c Preroll) Run(ctx context.Context, cancel <-chan struct{}) error {
	if c.Count <= 0 {
		return nil
	}

	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for remaining := c.Count; remaining > 0; remaining-- {
		if c.OnTick != nil {
			c.OnTick(remaining)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cancel:
			return ErrCountdownCancelled
		case <-ticker.C:
		}
	}
	return nil
}
