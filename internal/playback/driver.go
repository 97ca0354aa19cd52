package playback

import (
	"context"
	"time"
)

// Driver stands in for a rendering surface's media clock: on every tick it
// reports the active clip's local time, advanced by the elapsed interval.
type Driver struct {
	ctl      *Controller
	interval time.Duration
	speed    float64
	onTick   func(playhead float64)
}

// NewDriver creates a driver ticking every interval at 1x speed
func NewDriver(ctl *Controller, interval time.Duration) *Driver {
	return &Driver{ctl: ctl, interval: interval, speed: 1}
}

// SetSpeed scales the simulated media clock
func (d *Driver) SetSpeed(speed float64) {
	if speed > 0 {
		d.speed = speed
	}
}

// OnTick registers a callback invoked after every Advance
func (d *Driver) OnTick(fn func(playhead float64)) {
	d.onTick = fn
}

// Run ticks until playback stops or ctx is done
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	step := d.interval.Seconds() * d.speed

	for d.ctl.Playing() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, local, ok := d.ctl.Current()
			if !ok {
				d.ctl.Pause()
				return nil
			}
			d.ctl.Advance(local + step)
			if d.onTick != nil {
				d.onTick(d.ctl.Playhead())
			}
		}
	}

	return nil
}
