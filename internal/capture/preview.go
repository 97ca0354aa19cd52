package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/ffmpeg"
)

var (
	jpegStart = []byte{0xFF, 0xD8}
	jpegEnd   = []byte{0xFF, 0xD9}
)

// FramePreview streams JPEG frames from a webcam while a source is being picked
type FramePreview struct {
	logger zerolog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFramePreview returns a PreviewOpener that runs ffmpeg against the device
// and hands every decoded JPEG frame to onFrame
func NewFramePreview(logger zerolog.Logger, executor *ffmpeg.Executor, opts ffmpeg.CaptureOptions, onFrame func([]byte)) PreviewOpener {
	return func(ctx context.Context, device string) (io.Closer, error) {
		if err := checkDevice(device); err != nil {
			return nil, err
		}

		ctx, cancel := context.WithCancel(ctx)
		cmd := executor.Command(ctx, ffmpeg.WebcamPreviewArgs(device, opts)...)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to start preview: %w", err)
		}

		p := &FramePreview{
			logger: logger.With().Str("component", "preview").Str("device", device).Logger(),
			cancel: cancel,
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			frames := readFrames(stdout, onFrame)
			_ = cmd.Wait()
			p.logger.Debug().Int("frames", frames).Msg("preview stopped")
		}()

		return p, nil
	}
}

// Close stops the preview process and waits for it to exit
func (p *FramePreview) Close() error {
	p.cancel()
	p.wg.Wait()
	return nil
}

// readFrames splits a concatenated MJPEG stream on the JPEG start and end
// markers until r is exhausted
func readFrames(r io.Reader, onFrame func([]byte)) int {
	var pending bytes.Buffer
	buf := make([]byte, 256*1024)
	frames := 0

	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending.Write(buf[:n])
			frames += splitFrames(&pending, onFrame)
		}
		if err != nil {
			return frames
		}
	}
}

func splitFrames(pending *bytes.Buffer, onFrame func([]byte)) int {
	count := 0
	for {
		data := pending.Bytes()
		start := bytes.Index(data, jpegStart)
		if start < 0 {
			// keep a trailing 0xFF that may begin the next marker
			if n := len(data); n > 0 && data[n-1] == 0xFF {
				pending.Next(n - 1)
			} else {
				pending.Reset()
			}
			return count
		}
		end := bytes.Index(data[start+2:], jpegEnd)
		if end < 0 {
			pending.Next(start)
			return count
		}
		end += start + 2 + len(jpegEnd)

		frame := make([]byte, end-start)
		copy(frame, data[start:end])
		pending.Next(end)

		if onFrame != nil {
			onFrame(frame)
		}
		count++
	}
}

// checkDevice verifies a V4L2 node exists and is a character device
func checkDevice(device string) error {
	fi, err := os.Stat(device)
	if err != nil {
		return fmt.Errorf("webcam device unavailable: %w", err)
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return fmt.Errorf("webcam device %s is not a character device", device)
	}
	return nil
}
