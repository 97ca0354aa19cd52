package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/ffmpeg"
	"github.com/kikiluvv/reelcut/internal/pip"
	"github.com/kikiluvv/reelcut/internal/timeline"
	"github.com/kikiluvv/reelcut/pkg/util"
)

// BuildPlan lays out both tracks of the collection in timeline order
func BuildPlan(seq []clips.Clip, cfg pip.Config) ExportPlan {
	return ExportPlan{
		Main:    segments(timeline.ForTrack(seq, clips.TrackMain)),
		Overlay: segments(timeline.ForTrack(seq, clips.TrackOverlay)),
		PiP:     cfg,
	}
}

func segments(ix *timeline.Index) []Segment {
	var out []Segment
	for _, c := range ix.Clips() {
		out = append(out, Segment{
			ClipID:      c.ID,
			SourcePath:  c.SourcePath,
			SourceStart: c.SourceStart,
			Duration:    c.TimelineDuration,
		})
	}
	return out
}

// Export renders the plan to opts.Output. Every segment is cut and
// normalized to the same size and frame rate, each track is concatenated,
// and the overlay track is composited as an inset when present.
func (p *Pipeline) Export(ctx context.Context, plan ExportPlan, opts ExportOptions) error {
	if len(plan.Main) == 0 {
		return fmt.Errorf("main track is empty, nothing to export")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if err := plan.PiP.Validate(); err != nil {
		return fmt.Errorf("invalid pip config: %w", err)
	}
	p.applyDefaults(&opts)

	p.logger.Info().
		Int("main_segments", len(plan.Main)).
		Int("overlay_segments", len(plan.Overlay)).
		Float64("duration", plan.MainDuration()).
		Str("output", opts.Output).
		Msg("starting export")

	if err := util.EnsureDir(p.config.TempDir); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(p.config.TempDir, "reelcut-export-*")
	if err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	if opts.KeepTemp {
		p.logger.Info().Str("dir", workDir).Msg("keeping intermediate files")
	} else {
		defer os.RemoveAll(workDir)
	}
	if dir := filepath.Dir(opts.Output); dir != "" {
		if err := util.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	sources := p.probeSources(ctx, plan)

	noAudio := opts.NoAudio
	if !noAudio {
		for _, seg := range plan.Main {
			if info, ok := sources[seg.SourcePath]; !ok || !info.HasAudio {
				p.logger.Warn().Str("source", seg.SourcePath).Msg("source has no audio, exporting without sound")
				noAudio = true
				break
			}
		}
	}

	mainOut := opts.Output
	if len(plan.Overlay) > 0 {
		mainOut = filepath.Join(workDir, "main.mp4")
	}

	mainTrack := trackRender{
		name:    "main",
		width:   opts.Width,
		height:  opts.Height,
		fps:     opts.FPS,
		noAudio: noAudio,
		dir:     workDir,
	}
	if err := p.renderTrack(ctx, mainTrack, plan.Main, mainOut); err != nil {
		return err
	}
	if len(plan.Overlay) == 0 {
		p.logger.Info().Str("output", opts.Output).Msg("export complete")
		return nil
	}

	ow, oh := overlaySize(plan.Overlay, sources, opts.Width, opts.Height)
	overlayTrack := trackRender{
		name:    "overlay",
		width:   ow,
		height:  oh,
		fps:     opts.FPS,
		noAudio: true,
		dir:     workDir,
	}
	overlayOut := filepath.Join(workDir, "overlay.mp4")
	if err := p.renderTrack(ctx, overlayTrack, plan.Overlay, overlayOut); err != nil {
		return err
	}

	rect := plan.PiP.Layout(opts.Width, opts.Height, ow, oh)
	overlayOpts := ffmpeg.OverlayOptions{X: rect.X, Y: rect.Y, Width: rect.W, Height: rect.H}
	if err := p.ffmpeg.MergeWithOverlay(ctx, mainOut, overlayOut, opts.Output, overlayOpts, opts.ProgressFunc); err != nil {
		return fmt.Errorf("failed to composite overlay: %w", err)
	}

	p.logger.Info().Str("output", opts.Output).Msg("export complete")
	return nil
}

func (p *Pipeline) applyDefaults(opts *ExportOptions) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width = p.config.Export.Width
		opts.Height = p.config.Export.Height
	}
	if opts.FPS <= 0 {
		opts.FPS = p.config.Export.FPS
	}
}

type trackRender struct {
	name    string
	width   int
	height  int
	fps     float64
	noAudio bool
	dir     string
}

// renderTrack cuts every segment with the same filter chain so the pieces
// can be joined with a stream copy
func (p *Pipeline) renderTrack(ctx context.Context, t trackRender, segs []Segment, output string) error {
	filter := ffmpeg.NewFilterBuilder().
		Fit(t.width, t.height).
		FPS(t.fps).
		Format("yuv420p").
		Build()

	parts := make([]string, 0, len(segs))
	for i, seg := range segs {
		out := output
		if len(segs) > 1 {
			out = filepath.Join(t.dir, fmt.Sprintf("%s-%03d.mp4", t.name, i))
		}
		start := util.Seconds(seg.SourceStart)
		clipOpts := ffmpeg.ClipOptions{
			Start:   start,
			End:     start + util.Seconds(seg.Duration),
			Output:  out,
			Filter:  filter,
			NoAudio: t.noAudio,
		}
		if err := p.ffmpeg.ExtractClip(ctx, seg.SourcePath, clipOpts); err != nil {
			return fmt.Errorf("%s segment %d (%s): %w", t.name, i, seg.ClipID, err)
		}
		parts = append(parts, out)
	}

	if len(parts) == 1 {
		return nil
	}

	concatOpts := ffmpeg.ConcatOptions{
		Inputs:  parts,
		Output:  output,
		TempDir: t.dir,
	}
	if err := p.ffmpeg.Concat(ctx, concatOpts); err != nil {
		return fmt.Errorf("failed to join %s track: %w", t.name, err)
	}
	return nil
}

func (p *Pipeline) probeSources(ctx context.Context, plan ExportPlan) map[string]*ffmpeg.VideoInfo {
	out := make(map[string]*ffmpeg.VideoInfo)
	for _, segs := range [][]Segment{plan.Main, plan.Overlay} {
		for _, seg := range segs {
			if _, ok := out[seg.SourcePath]; ok {
				continue
			}
			info, err := p.ffmpeg.ProbeVideo(ctx, seg.SourcePath)
			if err != nil {
				p.logger.Warn().Err(err).Str("source", seg.SourcePath).Msg("probe failed")
				continue
			}
			out[seg.SourcePath] = info
		}
	}
	return out
}

// overlaySize picks the canvas the overlay track is normalized to: the first
// overlay source's own size, rounded down to even numbers for yuv420p
func overlaySize(segs []Segment, sources map[string]*ffmpeg.VideoInfo, fallbackW, fallbackH int) (int, int) {
	for _, seg := range segs {
		info, ok := sources[seg.SourcePath]
		if !ok || info.Width < 2 || info.Height < 2 {
			continue
		}
		return info.Width &^ 1, info.Height &^ 1
	}
	return fallbackW, fallbackH
}
