package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/capture"
	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/config"
	"github.com/kikiluvv/reelcut/internal/ffmpeg"
	"github.com/kikiluvv/reelcut/pkg/util"
)

// Pipeline connects the editor to ffmpeg: it turns media files and finished
// recordings into clips and renders the timeline back out
type Pipeline struct {
	logger zerolog.Logger
	config *config.Config
	ffmpeg *ffmpeg.Executor
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *config.Config, executor *ffmpeg.Executor) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		config: cfg,
		ffmpeg: executor,
	}
}

// Import probes a media file and returns a full-length clip on the main track
func (p *Pipeline) Import(ctx context.Context, path string) (clips.Clip, error) {
	if path == "" {
		return clips.Clip{}, fmt.Errorf("input path cannot be empty")
	}

	info, err := p.ffmpeg.ProbeVideo(ctx, path)
	if err != nil {
		return clips.Clip{}, fmt.Errorf("failed to probe %s: %w", path, err)
	}
	if info.Duration <= 0 {
		return clips.Clip{}, fmt.Errorf("%s has no usable duration", path)
	}

	clip := clips.New(clips.KindImported, path, info.Duration.Seconds(), metadataFrom(info))

	p.logger.Info().
		Str("clip", clip.ID).
		Str("file", info.Filename).
		Dur("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("imported media")

	return clip, nil
}

// ImportRecording stores both capture buffers under the work directory and
// returns the screen clip (main track) and webcam clip (overlay track).
// Both clips get the coordinator's duration so the tracks line up.
func (p *Pipeline) ImportRecording(ctx context.Context, res capture.Result) (clips.Clip, clips.Clip, error) {
	if len(res.Screen) == 0 || len(res.Webcam) == 0 {
		return clips.Clip{}, clips.Clip{}, capture.ErrEmptyRecording
	}
	seconds := res.Duration.Seconds()
	if seconds <= 0 {
		return clips.Clip{}, clips.Clip{}, fmt.Errorf("recording has no duration")
	}

	dir := filepath.Join(p.config.WorkDir, "recordings")
	stamp := res.StartedAt.Format("20060102-150405")

	screenPath, err := util.WriteTemp(dir, "screen-"+stamp+"-*.mkv", res.Screen)
	if err != nil {
		return clips.Clip{}, clips.Clip{}, fmt.Errorf("failed to save screen recording: %w", err)
	}
	webcamPath, err := util.WriteTemp(dir, "webcam-"+stamp+"-*.mkv", res.Webcam)
	if err != nil {
		util.CleanupFiles(screenPath)
		return clips.Clip{}, clips.Clip{}, fmt.Errorf("failed to save webcam recording: %w", err)
	}

	screen := clips.New(clips.KindScreen, screenPath, seconds, p.recordingMetadata(ctx, screenPath))
	webcam := clips.New(clips.KindWebcam, webcamPath, seconds, p.recordingMetadata(ctx, webcamPath))

	p.logger.Info().
		Str("screen", screenPath).
		Str("webcam", webcamPath).
		Float64("duration", seconds).
		Msg("recording imported")

	return screen, webcam, nil
}

// recordingMetadata is best effort: a live Matroska stream may be missing
// fields ffprobe needs, and the clip is usable without them
func (p *Pipeline) recordingMetadata(ctx context.Context, path string) clips.Metadata {
	meta := clips.Metadata{Filename: filepath.Base(path)}
	if p.ffmpeg == nil {
		return meta
	}
	info, err := p.ffmpeg.ProbeVideo(ctx, path)
	if err != nil {
		p.logger.Warn().Err(err).Str("file", path).Msg("could not probe recording")
		return meta
	}
	return metadataFrom(info)
}

func metadataFrom(info *ffmpeg.VideoInfo) clips.Metadata {
	return clips.Metadata{
		Filename: info.Filename,
		Width:    info.Width,
		Height:   info.Height,
		Codec:    info.VideoCodec,
	}
}
