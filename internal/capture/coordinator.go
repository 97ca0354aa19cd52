package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/clips"
)

type stream struct {
	kind    clips.SourceKind
	session Session
	buf     bytes.Buffer
	err     error
	done    chan struct{}
}

func (s *stream) write(p []byte) {
	s.buf.Write(p)
}

// Coordinator runs one dual recording at a time
type Coordinator struct {
	logger    zerolog.Logger
	factory   SessionFactory
	opener    PreviewOpener
	preroll   Preroll
	now       func() time.Time
	hook      func(from, to State)

	mu        sync.Mutex
	state     State
	target    Target
	selected  bool
	preview   io.Closer
	cancel    chan struct{}
	streams   []*stream
	startedAt time.Time
	stoppedAt time.Time
	err       error
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithPreroll replaces the default 3 second countdown
func WithPreroll(p Preroll) Option {
	return func(c *Coordinator) { c.preroll = p }
}

// WithClock sets the clock used for the recording timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithPreview sets how the webcam preview is opened during source selection
func WithPreview(open PreviewOpener) Option {
	return func(c *Coordinator) { c.opener = open }
}

// WithStateHook registers an observer for state transitions.
// The hook runs synchronously and must not call back into the coordinator.
func WithStateHook(fn func(from, to State)) Option {
	return func(c *Coordinator) { c.hook = fn }
}

// NewCoordinator creates a coordinator in SourceSelect
func NewCoordinator(logger zerolog.Logger, factory SessionFactory, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:    logger.With().Str("component", "capture").Logger(),
		factory:   factory,
		preroll:   DefaultPreroll(),
		now:       time.Now,
		state:     SourceSelect,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure that moved the coordinator to Error
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SelectSource picks the capture target and opens the webcam preview.
// It may be called again to change the target before the countdown.
func (c *Coordinator) SelectSource(ctx context.Context, target Target) error {
	if target.Screen == "" || target.Webcam == "" {
		return fmt.Errorf("both screen and webcam sources are required")
	}

	c.mu.Lock()
	if c.state != SourceSelect {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: select source in %s", ErrInvalidState, state)
	}
	old := c.preview
	c.preview = nil
	c.target = target
	c.selected = true
	c.mu.Unlock()

	closePreview(c.logger, old)

	if c.opener == nil {
		return nil
	}
	h, err := c.opener(ctx, target.Webcam)
	if err != nil {
		return c.fail(fmt.Errorf("open webcam preview %s: %w", target.Webcam, err))
	}

	c.mu.Lock()
	c.preview = h
	c.mu.Unlock()

	c.logger.Debug().Str("screen", target.Screen).Str("webcam", target.Webcam).Msg("source selected")
	return nil
}

// BeginCountdown runs the countdown and starts recording when it expires.
// It blocks for the length of the countdown. A cancelled countdown returns
// ErrCountdownCancelled and leaves the coordinator in SourceSelect.
func (c *Coordinator) BeginCountdown(ctx context.Context) error {
	c.mu.Lock()
	if c.state != SourceSelect || !c.selected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: countdown in %s", ErrInvalidState, state)
	}
	cancel := make(chan struct{})
	c.cancel = cancel
	c.state = Countdown
	c.mu.Unlock()
	c.notify(SourceSelect, Countdown)

	if err := c.preroll.Run(ctx, cancel); err != nil {
		if !errors.Is(err, ErrCountdownCancelled) {
			c.backToSelect()
		}
		return err
	}

	return c.startRecording(ctx)
}

// CancelCountdown aborts a running countdown. Once the countdown has
// expired and the sessions are being started it returns ErrInvalidState.
func (c *Coordinator) CancelCountdown() error {
	c.mu.Lock()
	if c.state != Countdown {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cancel in %s", ErrInvalidState, state)
	}
	if c.cancel == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: countdown already expired", ErrInvalidState)
	}
	close(c.cancel)
	c.cancel = nil
	c.state = SourceSelect
	c.mu.Unlock()

	c.logger.Info().Msg("countdown cancelled")
	c.notify(Countdown, SourceSelect)
	return nil
}

func (c *Coordinator) backToSelect() {
	c.mu.Lock()
	if c.state != Countdown {
		c.mu.Unlock()
		return
	}
	c.cancel = nil
	c.state = SourceSelect
	c.mu.Unlock()
	c.notify(Countdown, SourceSelect)
}

func (c *Coordinator) startRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Countdown {
		c.mu.Unlock()
		return ErrCountdownCancelled
	}
	target := c.target
	preview := c.preview
	c.preview = nil
	c.cancel = nil
	c.mu.Unlock()

	// the webcam session takes the device over from the preview
	closePreview(c.logger, preview)

	screen, err := c.newStream(clips.KindScreen, target.Screen)
	if err != nil {
		return c.fail(err)
	}
	webcam, err := c.newStream(clips.KindWebcam, target.Webcam)
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.streams = []*stream{screen, webcam}
	c.state = Recording
	c.startedAt = c.now()
	startedAt := c.startedAt
	c.mu.Unlock()
	c.notify(Countdown, Recording)

	screenErr := screen.session.Start(ctx, screen.write)
	webcamErr := webcam.session.Start(ctx, webcam.write)

	if screenErr == nil {
		go c.watch(screen)
	}
	if webcamErr == nil {
		go c.watch(webcam)
	}
	if err := errors.Join(screenErr, webcamErr); err != nil {
		return c.fail(fmt.Errorf("start capture: %w", err))
	}

	c.logger.Info().Time("started_at", startedAt).Msg("recording started")
	return nil
}

func (c *Coordinator) newStream(kind clips.SourceKind, source string) (*stream, error) {
	sess, err := c.factory(kind, source)
	if err != nil {
		return nil, fmt.Errorf("create %s session: %w", kind, err)
	}
	return &stream{kind: kind, session: sess, done: make(chan struct{})}, nil
}

// watch waits for one session to finish. Finishing before Stop was
// requested is a capture failure.
func (c *Coordinator) watch(s *stream) {
	err := <-s.session.Done()
	s.err = err
	close(s.done)

	if err == nil {
		err = errors.New("session ended before stop")
	}
	c.fail(fmt.Errorf("%s capture: %w", s.kind, err), Recording)
}

// Stop ends the recording. Both sessions are asked to stop and both must
// finish before the result is assembled.
func (c *Coordinator) Stop(ctx context.Context) (Result, error) {
	c.mu.Lock()
	switch c.state {
	case Recording:
	case Error:
		err := c.err
		c.mu.Unlock()
		return Result{}, err
	default:
		state := c.state
		c.mu.Unlock()
		return Result{}, fmt.Errorf("%w: stop in %s", ErrInvalidState, state)
	}
	c.state = Stopping
	c.stoppedAt = c.now()
	streams := c.streams
	c.mu.Unlock()
	c.notify(Recording, Stopping)

	for _, s := range streams {
		if err := s.session.Stop(); err != nil {
			c.logger.Warn().Err(err).Str("stream", string(s.kind)).Msg("stop request failed")
		}
	}

	for _, s := range streams {
		select {
		case <-s.done:
		case <-ctx.Done():
			return Result{}, c.fail(fmt.Errorf("waiting for %s capture: %w", s.kind, ctx.Err()))
		}
	}

	for _, s := range streams {
		if s.err != nil {
			return Result{}, c.fail(fmt.Errorf("%s capture: %w", s.kind, s.err))
		}
		if s.buf.Len() == 0 {
			return Result{}, c.fail(fmt.Errorf("%s: %w", s.kind, ErrEmptyRecording))
		}
	}

	c.mu.Lock()
	res := Result{
		Screen:    streams[0].buf.Bytes(),
		Webcam:    streams[1].buf.Bytes(),
		Duration:  c.stoppedAt.Sub(c.startedAt),
		StartedAt: c.startedAt,
	}
	c.state = Complete
	c.mu.Unlock()
	c.notify(Stopping, Complete)

	c.logger.Info().
		Dur("duration", res.Duration).
		Int("screen_bytes", len(res.Screen)).
		Int("webcam_bytes", len(res.Webcam)).
		Msg("recording complete")
	return res, nil
}

// Reset returns a finished or failed coordinator to SourceSelect.
// The target has to be selected again.
func (c *Coordinator) Reset() error {
	c.mu.Lock()
	if c.state != Complete && c.state != Error {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: reset in %s", ErrInvalidState, state)
	}
	from := c.state
	c.state = SourceSelect
	c.selected = false
	c.streams = nil
	c.err = nil
	c.mu.Unlock()
	c.notify(from, SourceSelect)
	return nil
}

// Close releases the preview. It is refused while a recording is running.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.state == Recording || c.state == Stopping {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: close in %s", ErrInvalidState, state)
	}
	preview := c.preview
	c.preview = nil
	c.mu.Unlock()

	closePreview(c.logger, preview)
	return nil
}

// fail moves to Error and tears everything down. With states given, the
// transition only happens from one of them. The first failure wins.
func (c *Coordinator) fail(err error, from ...State) error {
	c.mu.Lock()
	if c.state == Error {
		first := c.err
		c.mu.Unlock()
		return first
	}
	if len(from) > 0 && !slices.Contains(from, c.state) {
		c.mu.Unlock()
		return err
	}
	prev := c.state
	c.state = Error
	c.err = err
	streams := c.streams
	preview := c.preview
	c.preview = nil
	c.mu.Unlock()

	c.logger.Error().Err(err).Str("state", prev.String()).Msg("recording failed")

	for _, s := range streams {
		if stopErr := s.session.Stop(); stopErr != nil {
			c.logger.Debug().Err(stopErr).Str("stream", string(s.kind)).Msg("teardown stop failed")
		}
	}
	closePreview(c.logger, preview)

	c.notify(prev, Error)
	return err
}

func (c *Coordinator) notify(from, to State) {
	c.logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("state change")
	if c.hook != nil {
		c.hook(from, to)
	}
}

func closePreview(logger zerolog.Logger, h io.Closer) {
	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close webcam preview")
	}
}
