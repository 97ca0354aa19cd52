package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/config"
	"github.com/kikiluvv/reelcut/internal/editor"
	"github.com/kikiluvv/reelcut/internal/ffmpeg"
	"github.com/kikiluvv/reelcut/internal/pip"
	"github.com/kikiluvv/reelcut/internal/pipeline"
	"github.com/kikiluvv/reelcut/internal/playback"
	"github.com/kikiluvv/reelcut/internal/timeline"
	"github.com/kikiluvv/reelcut/pkg/util"
)

// editFlags describe a timeline on the command line. Inputs are numbered
// from 1 in the order given: main files first, then --overlay files.
type editFlags struct {
	overlays []string
	trims    []string
	splits   []string
	deletes  []int
	position string
	size     string
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.overlays, "overlay", nil, "file for the PiP track (repeatable)")
	cmd.Flags().StringArrayVar(&f.trims, "trim", nil, "trim input N to a source window, N=START-END")
	cmd.Flags().StringArrayVar(&f.splits, "split", nil, "split input N at a local offset, N@AT")
	cmd.Flags().IntSliceVar(&f.deletes, "delete", nil, "drop input N from the timeline")
	cmd.Flags().StringVar(&f.position, "pip-position", "", "top-left, top-right, bottom-left or bottom-right")
	cmd.Flags().StringVar(&f.size, "pip-size", "", "small, medium or large")
}

type trimEdit struct {
	input      int
	start, end float64
}

type splitEdit struct {
	input int
	at    float64
}

// parseTrim reads N=START-END; both ends accept [HH:]MM:SS timestamps
func parseTrim(s string) (trimEdit, error) {
	idx, window, ok := strings.Cut(s, "=")
	if !ok {
		return trimEdit{}, fmt.Errorf("trim %q: want N=START-END", s)
	}
	n, err := parseInput(idx)
	if err != nil {
		return trimEdit{}, fmt.Errorf("trim %q: %w", s, err)
	}

	startStr, endStr, ok := strings.Cut(window, "-")
	if !ok {
		return trimEdit{}, fmt.Errorf("trim %q: want N=START-END", s)
	}
	start, err := util.ParseTimestamp(startStr)
	if err != nil {
		return trimEdit{}, fmt.Errorf("trim %q: %w", s, err)
	}
	end, err := util.ParseTimestamp(endStr)
	if err != nil {
		return trimEdit{}, fmt.Errorf("trim %q: %w", s, err)
	}
	return trimEdit{input: n, start: start, end: end}, nil
}

func parseSplit(s string) (splitEdit, error) {
	idx, atStr, ok := strings.Cut(s, "@")
	if !ok {
		return splitEdit{}, fmt.Errorf("split %q: want N@AT", s)
	}
	n, err := parseInput(idx)
	if err != nil {
		return splitEdit{}, fmt.Errorf("split %q: %w", s, err)
	}
	at, err := util.ParseTimestamp(atStr)
	if err != nil {
		return splitEdit{}, fmt.Errorf("split %q: %w", s, err)
	}
	return splitEdit{input: n, at: at}, nil
}

func parseInput(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("input number must be a positive integer, got %q", s)
	}
	return n, nil
}

// pipConfig applies the flag overrides on top of the configured PiP
func (f *editFlags) pipConfig(base pip.Config) (pip.Config, error) {
	cfg := base
	if f.position != "" {
		cfg.Position = pip.Position(f.position)
	}
	if f.size != "" {
		cfg.Size = pip.Size(f.size)
	}
	if err := cfg.Validate(); err != nil {
		return pip.Config{}, err
	}
	return cfg, nil
}

// build imports every input into a new session and applies the edits:
// trims, then splits, then deletes
func (f *editFlags) build(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, mainFiles []string) (*editor.Session, error) {
	pipCfg, err := f.pipConfig(cfg.PiP)
	if err != nil {
		return nil, err
	}

	trims := make([]trimEdit, 0, len(f.trims))
	for _, s := range f.trims {
		t, err := parseTrim(s)
		if err != nil {
			return nil, err
		}
		trims = append(trims, t)
	}
	splits := make([]splitEdit, 0, len(f.splits))
	for _, s := range f.splits {
		sp, err := parseSplit(s)
		if err != nil {
			return nil, err
		}
		splits = append(splits, sp)
	}

	session := editor.NewSession(log.Logger, editor.WithPiP(pipCfg))

	inputs := append(append([]string{}, mainFiles...), f.overlays...)
	ids := make([]string, len(inputs))
	for i, path := range inputs {
		clip, err := p.Import(ctx, path)
		if err != nil {
			return nil, err
		}
		if i >= len(mainFiles) {
			clip.Track = clips.TrackOverlay
		}
		if err := session.Add(clip); err != nil {
			return nil, err
		}
		ids[i] = clip.ID
	}

	lookup := func(n int) (string, error) {
		if n > len(ids) {
			return "", fmt.Errorf("input %d does not exist, %d given", n, len(ids))
		}
		return ids[n-1], nil
	}

	for _, t := range trims {
		id, err := lookup(t.input)
		if err != nil {
			return nil, err
		}
		session.Trim(id, t.start, t.end)
	}
	for _, sp := range splits {
		id, err := lookup(sp.input)
		if err != nil {
			return nil, err
		}
		if !session.Split(id, sp.at) {
			return nil, fmt.Errorf("cannot split input %d at %s", sp.input, util.FormatSeconds(sp.at))
		}
	}
	for _, n := range f.deletes {
		id, err := lookup(n)
		if err != nil {
			return nil, err
		}
		session.Delete(id)
	}

	return session, nil
}

func seekFlag(session *editor.Session, at string) error {
	if at == "" {
		return nil
	}
	pos, err := util.ParseTimestamp(at)
	if err != nil {
		return err
	}
	session.Player().Seek(pos)
	return nil
}

func printTrack(w io.Writer, name string, ix *timeline.Index) {
	fmt.Fprintf(w, "%s track (%s)\n", name, util.FormatSeconds(ix.Total()))
	for i, c := range ix.Clips() {
		span, _ := ix.Span(c.ID)
		fmt.Fprintf(w, "  %2d  %s - %s  %-8s  %s [%s - %s]\n",
			i+1,
			util.FormatSeconds(span.Start),
			util.FormatSeconds(span.End),
			c.SourceKind,
			c.Metadata.Filename,
			util.FormatSeconds(c.SourceStart),
			util.FormatSeconds(c.SourceEnd()),
		)
	}
}

func describeFrame(f editor.Frame) string {
	if !f.HasMain {
		return "nothing"
	}
	out := fmt.Sprintf("%s @ %s", f.Main.Metadata.Filename, util.FormatSeconds(f.Main.SourceStart+f.MainLocal))
	if f.PiP != nil {
		out += fmt.Sprintf(" + pip %s @ %s (%s, %s)",
			f.PiP.Metadata.Filename,
			util.FormatSeconds(f.PiP.SourceStart+f.PiPLocal),
			f.PiPConfig.Position,
			f.PiPConfig.Size,
		)
	}
	return out
}

var probeCmd = &cobra.Command{
	Use:   "probe [file...]",
	Short: "Show media metadata",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		executor, err := newExecutor(config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, path := range args {
			info, err := executor.ProbeVideo(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\n  duration %s  %dx%d  %.2f fps  %s",
				info.Filename,
				util.FormatDuration(info.Duration),
				info.Width, info.Height,
				info.FPS,
				info.VideoCodec,
			)
			if info.HasAudio {
				fmt.Fprintf(w, "  audio %s", info.AudioCodec)
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

var (
	timelineEdits editFlags
	timelineAt    string
)

var timelineCmd = &cobra.Command{
	Use:   "timeline [main file...]",
	Short: "Build a timeline and print both tracks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		p, _, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		session, err := timelineEdits.build(cmd.Context(), p, cfg, args)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		printTrack(w, "main", session.MainIndex())
		printTrack(w, "overlay", session.OverlayIndex())

		if timelineAt != "" {
			if err := seekFlag(session, timelineAt); err != nil {
				return err
			}
			fmt.Fprintf(w, "at %s: %s\n", util.FormatSeconds(session.Player().Playhead()), describeFrame(session.Frame()))
		}
		return nil
	},
}

var (
	playEdits editFlags
	playFrom  string
	playSpeed float64
)

var playCmd = &cobra.Command{
	Use:   "play [main file...]",
	Short: "Run the playback clock over a timeline and report what is on screen",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		p, _, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		session, err := playEdits.build(cmd.Context(), p, cfg, args)
		if err != nil {
			return err
		}
		if err := seekFlag(session, playFrom); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		w := cmd.OutOrStdout()
		last := ""
		driver := playback.NewDriver(session.Player(), cfg.Editor.TickInterval)
		driver.SetSpeed(playSpeed)
		driver.OnTick(func(playhead float64) {
			f := session.Frame()
			key := f.Main.ID
			if f.PiP != nil {
				key += "/" + f.PiP.ID
			}
			if key != last {
				last = key
				fmt.Fprintf(w, "%s  %s\n", util.FormatSeconds(playhead), describeFrame(f))
			}
		})

		session.Player().Play()
		if err := driver.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		fmt.Fprintf(w, "%s  %s\n", util.FormatSeconds(session.Player().Playhead()), session.Player().State())
		return nil
	},
}

var (
	previewEdits  editFlags
	previewAt     string
	previewOutput string
)

var previewCmd = &cobra.Command{
	Use:   "preview [main file...]",
	Short: "Render the composed frame at a timeline position to a JPEG",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		p, _, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		session, err := previewEdits.build(cmd.Context(), p, cfg, args)
		if err != nil {
			return err
		}
		if err := seekFlag(session, previewAt); err != nil {
			return err
		}
		return p.Preview(cmd.Context(), session.Frame(), previewOutput)
	},
}

var (
	exportEdits editFlags
	exportOpts  pipeline.ExportOptions
)

var exportCmd = &cobra.Command{
	Use:   "export [main file...]",
	Short: "Render a timeline to a video file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		p, _, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		session, err := exportEdits.build(cmd.Context(), p, cfg, args)
		if err != nil {
			return err
		}

		plan := pipeline.BuildPlan(session.Clips(), session.PiP())
		opts := exportOpts
		opts.ProgressFunc = progressLogger(plan.MainDuration())
		return p.Export(cmd.Context(), plan, opts)
	},
}

func progressLogger(total float64) ffmpeg.ProgressFunc {
	return func(pr *ffmpeg.Progress) {
		ev := log.Debug().Int("frame", pr.Frame).Str("speed", pr.Speed)
		if total > 0 && pr.OutTimeMicros > 0 {
			ev = ev.Float64("percent", float64(pr.OutTimeMicros)/1e6/total*100)
		}
		ev.Msg("export progress")
	}
}

func init() {
	timelineEdits.register(timelineCmd)
	timelineCmd.Flags().StringVar(&timelineAt, "at", "", "also resolve the frame at this timeline position")

	playEdits.register(playCmd)
	playCmd.Flags().StringVar(&playFrom, "from", "", "start position")
	playCmd.Flags().Float64Var(&playSpeed, "speed", 1, "clock speed multiplier")

	previewEdits.register(previewCmd)
	previewCmd.Flags().StringVar(&previewAt, "at", "0", "timeline position")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "preview.jpg", "output JPEG")

	exportEdits.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOpts.Output, "output", "o", "", "output file")
	exportCmd.Flags().IntVar(&exportOpts.Width, "width", 0, "output width (default from config)")
	exportCmd.Flags().IntVar(&exportOpts.Height, "height", 0, "output height (default from config)")
	exportCmd.Flags().Float64Var(&exportOpts.FPS, "fps", 0, "output frame rate (default from config)")
	exportCmd.Flags().BoolVar(&exportOpts.NoAudio, "no-audio", false, "drop the main track's audio")
	exportCmd.Flags().BoolVar(&exportOpts.KeepTemp, "keep-temp", false, "keep intermediate files")
	_ = exportCmd.MarkFlagRequired("output")
}
