package ffmpeg

import (
	"context"
	"fmt"
)

// MergeWithOverlay scales overlay into the given box and composites it over
// input. The overlay may be shorter than the input; once it ends the base
// video shows through.
func (e *Executor) MergeWithOverlay(ctx context.Context, input, overlay, output string, overlayOpts OverlayOptions, progressFunc ProgressFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if overlay == "" {
		return fmt.Errorf("overlay path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}
	if overlayOpts.Width <= 0 || overlayOpts.Height <= 0 {
		return fmt.Errorf("overlay size must be positive, got %dx%d", overlayOpts.Width, overlayOpts.Height)
	}

	e.logger.Info().
		Str("input", input).
		Str("overlay", overlay).
		Str("output", output).
		Int("x", overlayOpts.X).
		Int("y", overlayOpts.Y).
		Int("width", overlayOpts.Width).
		Msg("merging with overlay")

	args := []string{
		"-i", input,
		"-i", overlay,
		"-filter_complex", overlayFilter(overlayOpts),
		"-map", "[out]",
		"-map", "0:a?",
	}
	args = append(args, e.videoCodecArgs()...)
	args = append(args, "-c:a", "copy", output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("overlay output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("overlay merge failed: %w", err)
	}

	e.logger.Info().Str("output", output).Msg("overlay merge completed")
	return nil
}

func overlayFilter(o OverlayOptions) string {
	return fmt.Sprintf("[1:v]scale=%d:%d[pip];[0:v][pip]overlay=%d:%d:eof_action=pass[out]",
		o.Width, o.Height, o.X, o.Y)
}
