package clips

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidRange reports a clip whose source window breaks the clip invariants
var ErrInvalidRange = errors.New("invalid clip range")

// SourceKind describes where a clip's media came from
type SourceKind string

const (
	KindImported SourceKind = "imported"
	KindScreen   SourceKind = "screen"
	KindWebcam   SourceKind = "webcam"
)

// Track identifies one of the two parallel clip sequences
type Track int

const (
	TrackMain    Track = 0
	TrackOverlay Track = 1
)

func (t Track) String() string {
	switch t {
	case TrackMain:
		return "main"
	case TrackOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("track(%d)", int(t))
	}
}

// Valid reports whether t is one of the two known tracks
func (t Track) Valid() bool {
	return t == TrackMain || t == TrackOverlay
}

// DefaultTrack returns the track a freshly created clip lands on.
// Webcam footage goes to the overlay, everything else to the main track.
func DefaultTrack(kind SourceKind) Track {
	if kind == KindWebcam {
		return TrackOverlay
	}
	return TrackMain
}

// Metadata holds display-only facts about the source asset
type Metadata struct {
	Filename string
	Width    int
	Height   int
	Codec    string
}

// Clip is a segment of a source asset placed on a track.
// Times are in seconds.
type Clip struct {
	ID               string
	SourceKind       SourceKind
	SourcePath       string
	SourceStart      float64
	SourceDuration   float64
	TimelineDuration float64
	Track            Track
	Metadata         Metadata
}

// NewID generates a fresh clip identifier
func NewID() string {
	return uuid.New().String()
}

// New creates a clip covering the whole source asset on its default track
func New(kind SourceKind, sourcePath string, duration float64, meta Metadata) Clip {
	return Clip{
		ID:               NewID(),
		SourceKind:       kind,
		SourcePath:       sourcePath,
		SourceStart:      0,
		SourceDuration:   duration,
		TimelineDuration: duration,
		Track:            DefaultTrack(kind),
		Metadata:         meta,
	}
}

// SourceEnd is the offset into the source where this clip stops playing
func (c Clip) SourceEnd() float64 {
	return c.SourceStart + c.TimelineDuration
}

// Validate checks the clip invariants
func (c Clip) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRange)
	}
	if !c.Track.Valid() {
		return fmt.Errorf("%w: clip %s on unknown %s", ErrInvalidRange, c.ID, c.Track)
	}
	if c.SourceStart < 0 {
		return fmt.Errorf("%w: clip %s starts at %.3fs", ErrInvalidRange, c.ID, c.SourceStart)
	}
	if c.TimelineDuration <= 0 {
		return fmt.Errorf("%w: clip %s has duration %.3fs", ErrInvalidRange, c.ID, c.TimelineDuration)
	}
	if c.SourceEnd() > c.SourceDuration {
		return fmt.Errorf("%w: clip %s ends at %.3fs past source end %.3fs",
			ErrInvalidRange, c.ID, c.SourceEnd(), c.SourceDuration)
	}
	return nil
}

// IndexOf returns the position of the clip with the given id, or -1
func IndexOf(seq []Clip, id string) int {
	for i := range seq {
		if seq[i].ID == id {
			return i
		}
	}
	return -1
}

// Find retrieves a clip by ID
func Find(seq []Clip, id string) (Clip, bool) {
	i := IndexOf(seq, id)
	if i < 0 {
		return Clip{}, false
	}
	return seq[i], true
}

// OnTrack returns the clips on track t in collection order
func OnTrack(seq []Clip, t Track) []Clip {
	out := make([]Clip, 0, len(seq))
	for _, c := range seq {
		if c.Track == t {
			out = append(out, c)
		}
	}
	return out
}
