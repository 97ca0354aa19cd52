package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/kikiluvv/reelcut/pkg/util"
)

// ClipOptions defines clip extraction parameters
type ClipOptions struct {
	Start  time.Duration
	End    time.Duration
	Output string
	// Filter is an optional -vf chain, see FilterBuilder
	Filter       string
	CopyCodec    bool // If true, use -c copy for fast extraction
	NoAudio      bool
	ProgressFunc ProgressFunc
}

// ExtractClip cuts a segment from a video
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	if input == "" || opts.Output == "" {
		return fmt.Errorf("input and output paths are required")
	}
	duration := opts.End - opts.Start
	if duration <= 0 {
		return fmt.Errorf("invalid clip duration: end must be after start")
	}
	if opts.CopyCodec && opts.Filter != "" {
		return fmt.Errorf("filters need re-encoding, cannot copy codec")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("duration", duration).
		Bool("copy_codec", opts.CopyCodec).
		Msg("extracting clip")

	args := []string{
		"-i", input,
		"-ss", util.FormatDuration(opts.Start),
		"-t", util.FormatDuration(duration),
	}
	if opts.Filter != "" {
		args = append(args, "-vf", opts.Filter)
	}

	if opts.CopyCodec {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, e.videoCodecArgs()...)
	}
	if opts.NoAudio {
		args = append(args, "-an")
	} else if !opts.CopyCodec {
		args = append(args, "-c:a", DefaultAudioCodec)
	}

	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("clip extraction complete")
	return nil
}

func (e *Executor) videoCodecArgs() []string {
	return []string{
		"-c:v", DefaultVideoCodec,
		"-preset", e.preset,
		"-crf", fmt.Sprintf("%d", e.crf),
		"-pix_fmt", "yuv420p",
	}
}
