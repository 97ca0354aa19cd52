// Package capture records the screen and the webcam together.
//
// A Coordinator walks one recording through
// SourceSelect -> Countdown -> Recording -> Stopping -> Complete, with Error
// reachable from anywhere. Both capture sessions start back to back and the
// coordinator's own clock, not either session's, decides the duration.
package capture

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kikiluvv/reelcut/internal/clips"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the current state
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrEmptyRecording is returned when a session stopped without producing data
	ErrEmptyRecording = errors.New("capture produced no data")

	// ErrCountdownCancelled is returned by a countdown stopped before expiry
	ErrCountdownCancelled = errors.New("countdown cancelled")
)

// State of a recording
type State int

const (
	SourceSelect State = iota
	Countdown
	Recording
	Stopping
	Complete
	Error
)

func (s State) String() string {
	switch s {
	case SourceSelect:
		return "source-select"
	case Countdown:
		return "countdown"
	case Recording:
		return "recording"
	case Stopping:
		return "stopping"
	case Complete:
		return "complete"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Target names the two capture sources
type Target struct {
	// Screen is the X11 display to grab, e.g. ":0.0"
	Screen string
	// Webcam is the V4L2 device node, e.g. "/dev/video0"
	Webcam string
}

// ChunkFunc receives encoded media as the session produces it.
// It is called from a single goroutine per session and must not keep p.
type ChunkFunc func(p []byte)

// Session is one running capture stream
type Session interface {
	// Start begins capturing and returns once the stream is running
	Start(ctx context.Context, onChunk ChunkFunc) error
	// Stop asks the stream to finish; completion is signalled on Done
	Stop() error
	// Done yields the terminal error, nil on a clean stop, after the last chunk was delivered
	Done() <-chan error
}

// SessionFactory builds the session for one source.
// kind is clips.KindScreen or clips.KindWebcam.
type SessionFactory func(kind clips.SourceKind, source string) (Session, error)

// PreviewOpener acquires a live preview of the webcam during source selection
type PreviewOpener func(ctx context.Context, device string) (io.Closer, error)

// Result is what a completed recording yields
type Result struct {
	Screen    []byte
	Webcam    []byte
	Duration  time.Duration
	StartedAt time.Time
}
