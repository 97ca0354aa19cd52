package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/ffmpeg"
)

// StopTimeout is how long a stopped ffmpeg gets to flush before it is killed
const StopTimeout = 5 * time.Second

// ProcessSession captures one source with an ffmpeg child process that
// writes its container to stdout
type ProcessSession struct {
	logger   zerolog.Logger
	executor *ffmpeg.Executor
	args     []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stopped bool
	exited  chan struct{}
	done    chan error
}

// NewProcessSession prepares a session running ffmpeg with args
func NewProcessSession(logger zerolog.Logger, executor *ffmpeg.Executor, args []string) *ProcessSession {
	return &ProcessSession{
		logger:   logger,
		executor: executor,
		args:     args,
		exited:   make(chan struct{}),
		done:     make(chan error, 1),
	}
}

// NewProcessFactory builds ffmpeg-backed sessions for the coordinator
func NewProcessFactory(logger zerolog.Logger, executor *ffmpeg.Executor, screen, webcam ffmpeg.CaptureOptions) SessionFactory {
	return func(kind clips.SourceKind, source string) (Session, error) {
		l := logger.With().Str("component", "capture").Str("stream", string(kind)).Logger()
		switch kind {
		case clips.KindScreen:
			return NewProcessSession(l, executor, ffmpeg.ScreenCaptureArgs(source, screen)), nil
		case clips.KindWebcam:
			return NewProcessSession(l, executor, ffmpeg.WebcamCaptureArgs(source, webcam)), nil
		default:
			return nil, fmt.Errorf("no capture for %s sources", kind)
		}
	}
}

// Start launches ffmpeg and forwards stdout to onChunk until the process exits
func (s *ProcessSession) Start(ctx context.Context, onChunk ChunkFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return fmt.Errorf("session already started")
	}

	cmd := s.executor.Command(ctx, s.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	s.cmd = cmd
	s.stdin = stdin

	s.logger.Info().Int("pid", cmd.Process.Pid).Msg("capture process started")

	go func() {
		buf := make([]byte, 64*1024)
		var total int64
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				total += int64(n)
				onChunk(buf[:n])
			}
			if err != nil {
				break
			}
		}

		err := cmd.Wait()
		close(s.exited)

		s.mu.Lock()
		stopped := s.stopped
		s.mu.Unlock()

		if err != nil && stopped && ctx.Err() == nil {
			// killed after the stop timeout; what was flushed is kept
			s.logger.Warn().Err(err).Msg("capture process did not exit cleanly after stop")
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("ffmpeg capture failed: %w: %s", err, lastLine(stderr.String()))
		}

		s.logger.Info().Int64("bytes", total).Bool("stopped", stopped).Msg("capture process exited")
		s.done <- err
		close(s.done)
	}()

	return nil
}

// Stop asks ffmpeg to finish by sending q on stdin, and kills it after StopTimeout
func (s *ProcessSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.stopped {
		return nil
	}
	s.stopped = true

	_, err := io.WriteString(s.stdin, "q")
	s.stdin.Close()

	proc := s.cmd.Process
	exited := s.exited
	time.AfterFunc(StopTimeout, func() {
		select {
		case <-exited:
		default:
			_ = proc.Kill()
		}
	})

	if err != nil {
		return fmt.Errorf("failed to signal ffmpeg: %w", err)
	}
	return nil
}

// Done is signalled once the process has exited and all output was delivered
func (s *ProcessSession) Done() <-chan error {
	return s.done
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
