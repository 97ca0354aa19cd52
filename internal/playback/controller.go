package playback

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/timeline"
)

// State of the controller
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Controller drives the virtual playhead over the main track
type Controller struct {
	logger   zerolog.Logger
	index    *timeline.Index
	playhead float64
	playing  bool
}

// New creates a stopped controller over an empty timeline
func New(logger zerolog.Logger) *Controller {
	return &Controller{
		logger: logger.With().Str("component", "playback").Logger(),
		index:  timeline.Build(nil),
	}
}

// SetTimeline installs a freshly rebuilt main-track index.
// The playhead is left alone; the owner decides whether to reset it.
func (c *Controller) SetTimeline(ix *timeline.Index) {
	if ix == nil {
		ix = timeline.Build(nil)
	}
	c.index = ix
}

// Timeline returns the installed main-track index
func (c *Controller) Timeline() *timeline.Index {
	return c.index
}

// Playhead is the current virtual position in seconds
func (c *Controller) Playhead() float64 {
	return c.playhead
}

// Playing reports whether playback is running
func (c *Controller) Playing() bool {
	return c.playing
}

// State returns Playing or Stopped
func (c *Controller) State() State {
	if c.playing {
		return Playing
	}
	return Stopped
}

// Play starts playback, rewinding first when the playhead sits at the end
func (c *Controller) Play() {
	if c.index.Len() == 0 {
		c.logger.Debug().Msg("play ignored on empty timeline")
		return
	}
	if c.playhead >= c.index.Total() {
		c.playhead = 0
	}
	c.playing = true
	c.logger.Debug().Float64("playhead", c.playhead).Msg("play")
}

// Pause stops playback without moving the playhead
func (c *Controller) Pause() {
	c.playing = false
	c.logger.Debug().Float64("playhead", c.playhead).Msg("pause")
}

// Toggle flips between Play and Pause
func (c *Controller) Toggle() {
	if c.playing {
		c.Pause()
		return
	}
	c.Play()
}

// Seek moves the playhead, clamped to [0, total]. The playing flag is untouched.
func (c *Controller) Seek(position float64) {
	switch {
	case position < 0 || math.IsNaN(position):
		position = 0
	case position > c.index.Total():
		position = c.index.Total()
	}
	c.playhead = position
}

// Advance consumes the media clock of the active clip. localTime is the
// elapsed time inside that clip as reported by the rendering surface.
func (c *Controller) Advance(localTime float64) {
	current, ok := c.index.CurrentClip(c.playhead)
	if !ok {
		c.playhead = 0
		c.playing = false
		return
	}
	span, _ := c.index.Span(current.ID)

	next := span.Start + localTime
	if next < span.End {
		c.playhead = next
		return
	}

	if following, ok := c.index.Next(current.ID); ok {
		nextSpan, _ := c.index.Span(following.ID)
		c.playhead = nextSpan.Start
		c.logger.Debug().
			Str("from", current.ID).
			Str("to", following.ID).
			Float64("playhead", c.playhead).
			Msg("auto-advance")
		return
	}

	c.playhead = c.index.Total()
	c.playing = false
	c.logger.Debug().Float64("playhead", c.playhead).Msg("end of timeline")
}

// Current returns the active main clip and the playhead's local time inside it
func (c *Controller) Current() (clips.Clip, float64, bool) {
	clip, ok := c.index.CurrentClip(c.playhead)
	if !ok {
		return clips.Clip{}, 0, false
	}
	return clip, c.index.RelativePosition(clip.ID, c.playhead), true
}
