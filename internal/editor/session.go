package editor

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/pip"
	"github.com/kikiluvv/reelcut/internal/playback"
	"github.com/kikiluvv/reelcut/internal/timeline"
)

// Frame is what the rendering surface paints on one clock tick
type Frame struct {
	Main      clips.Clip
	MainLocal float64
	HasMain   bool
	PiP       *clips.Clip
	PiPLocal  float64
	PiPConfig pip.Config
}

// Session owns the clip collection and everything derived from it.
// It is the only writer of the collection; indices and playback state are
// recomputed after every edit. A Session is not safe for concurrent use.
type Session struct {
	logger   zerolog.Logger
	clips    []clips.Clip
	selected string
	player   *playback.Controller
	pip      pip.Config
	newID    func() string

	main    *timeline.Index
	overlay *timeline.Index
}

// Option configures a Session
type Option func(*Session)

// WithIDGenerator overrides the id source used for split halves
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// WithPiP sets the initial PiP configuration
func WithPiP(cfg pip.Config) Option {
	return func(s *Session) { s.pip = cfg }
}

// NewSession creates an empty editing session
func NewSession(logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		logger: logger.With().Str("component", "editor").Logger(),
		player: playback.New(logger),
		pip:    pip.DefaultConfig(),
		newID:  clips.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rebuild()
	return s
}

// Clips returns a copy of the collection in declared order
func (s *Session) Clips() []clips.Clip {
	out := make([]clips.Clip, len(s.clips))
	copy(out, s.clips)
	return out
}

// Player exposes the playback controller bound to the main track
func (s *Session) Player() *playback.Controller {
	return s.player
}

// MainIndex is the position map of the main track
func (s *Session) MainIndex() *timeline.Index {
	return s.main
}

// OverlayIndex is the position map of the overlay track
func (s *Session) OverlayIndex() *timeline.Index {
	return s.overlay
}

// PiP returns the current PiP configuration
func (s *Session) PiP() pip.Config {
	return s.pip
}

// SetPiP replaces the PiP configuration
func (s *Session) SetPiP(cfg pip.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid pip config: %w", err)
	}
	s.pip = cfg
	return nil
}

// Selected returns the selected clip id, empty when nothing is selected
func (s *Session) Selected() string {
	return s.selected
}

// Select marks a clip as selected. Unknown ids are ignored.
func (s *Session) Select(id string) {
	if clips.IndexOf(s.clips, id) >= 0 {
		s.selected = id
	}
}

// Add appends a clip to the end of its track and selects it
func (s *Session) Add(c clips.Clip) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if clips.IndexOf(s.clips, c.ID) >= 0 {
		return fmt.Errorf("clip %s already in session", c.ID)
	}
	s.clips = append(s.clips, c)
	s.selected = c.ID
	s.rebuild()

	s.logger.Info().
		Str("clip", c.ID).
		Str("kind", string(c.SourceKind)).
		Str("track", c.Track.String()).
		Float64("duration", c.TimelineDuration).
		Msg("clip added")
	return nil
}

// AddRecording adds the two clips produced by one dual capture
func (s *Session) AddRecording(screen, webcam clips.Clip) error {
	if err := s.Add(screen); err != nil {
		return fmt.Errorf("add screen clip: %w", err)
	}
	if err := s.Add(webcam); err != nil {
		return fmt.Errorf("add webcam clip: %w", err)
	}
	return nil
}

// Trim applies a trim-handle drag. The requested window is clamped to the
// source bounds and the minimum clip length before the edit is made. The
// playhead resets to 0 if the main track became shorter than it.
func (s *Session) Trim(id string, newStart, newEnd float64) {
	c, ok := clips.Find(s.clips, id)
	if !ok {
		s.logger.Debug().Str("clip", id).Msg("trim on unknown clip ignored")
		return
	}
	start, end := ClampTrim(c, newStart, newEnd)
	s.clips = Trim(s.clips, id, start, end)
	s.rebuild()
	s.keepPlayheadInRange()
}

// Split cuts a clip at a local offset. It returns false when the split was refused.
func (s *Session) Split(id string, at float64) bool {
	before := len(s.clips)
	i := clips.IndexOf(s.clips, id)

	next, ok := Split(s.clips, id, at, s.newID)
	if !ok {
		s.logger.Debug().Str("clip", id).Float64("at", at).Msg("split refused")
		return false
	}
	s.clips = next
	if len(s.clips) == before+1 && s.selected == id {
		s.selected = s.clips[i].ID
	}
	s.rebuild()
	return true
}

// SplitAtPlayhead splits the main clip under the playhead
func (s *Session) SplitAtPlayhead() bool {
	c, local, ok := s.player.Current()
	if !ok {
		return false
	}
	return s.Split(c.ID, local)
}

// Delete removes a clip. Selection moves to the next clip on the same track,
// else the previous, else nothing. The playhead resets to 0 if the main track
// became shorter than it.
func (s *Session) Delete(id string) {
	c, ok := clips.Find(s.clips, id)
	if !ok {
		s.logger.Debug().Str("clip", id).Msg("delete on unknown clip ignored")
		return
	}

	if s.selected == id {
		s.selected = ""
		ix := s.trackIndex(c.Track)
		if n, ok := ix.Next(id); ok {
			s.selected = n.ID
		} else if p, ok := ix.Previous(id); ok {
			s.selected = p.ID
		}
	}

	s.clips = Delete(s.clips, id)
	s.rebuild()
	s.keepPlayheadInRange()
}

// MoveTrack reassigns a clip to another track. Like Delete it resets the
// playhead when the main track shrinks below it.
func (s *Session) MoveTrack(id string, track clips.Track) {
	if clips.IndexOf(s.clips, id) < 0 {
		s.logger.Debug().Str("clip", id).Msg("move on unknown clip ignored")
		return
	}
	s.clips = MoveTrack(s.clips, id, track)
	s.rebuild()
	s.keepPlayheadInRange()
}

// Frame resolves the active main and PiP clips at the current playhead
func (s *Session) Frame() Frame {
	f := Frame{PiPConfig: s.pip}

	if c, local, ok := s.player.Current(); ok {
		f.Main, f.MainLocal, f.HasMain = c, local, true
	}
	if c, local, ok := pip.ResolveIndex(s.overlay, s.player.Playhead()); ok {
		f.PiP, f.PiPLocal = &c, local
	}
	return f
}

func (s *Session) trackIndex(t clips.Track) *timeline.Index {
	if t == clips.TrackOverlay {
		return s.overlay
	}
	return s.main
}

// keepPlayheadInRange sends the playhead back to 0 once the main track
// ended before it
func (s *Session) keepPlayheadInRange() {
	if s.player.Playhead() > s.main.Total() {
		s.player.Seek(0)
	}
}

func (s *Session) rebuild() {
	s.main = timeline.ForTrack(s.clips, clips.TrackMain)
	s.overlay = timeline.ForTrack(s.clips, clips.TrackOverlay)
	s.player.SetTimeline(s.main)
}
