package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/reelcut/internal/capture"
	"github.com/kikiluvv/reelcut/internal/config"
	"github.com/kikiluvv/reelcut/internal/editor"
	"github.com/kikiluvv/reelcut/internal/ffmpeg"
	"github.com/kikiluvv/reelcut/internal/pipeline"
)

var (
	recordExport    string
	recordMax       time.Duration
	recordNoPreview bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record the screen and the webcam together",
	Long: `Records the configured X11 display and webcam at the same time.
Ctrl+C during the countdown cancels, Ctrl+C while recording stops and saves.
The screen lands on the main track and the webcam on the PiP track.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		p, executor, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		rec := cfg.Recording
		screenOpts := ffmpeg.CaptureOptions{Width: rec.ScreenWidth, Height: rec.ScreenHeight, FPS: rec.ScreenFPS}
		webcamOpts := ffmpeg.CaptureOptions{Width: rec.WebcamWidth, Height: rec.WebcamHeight, FPS: rec.WebcamFPS}

		w := cmd.OutOrStdout()
		failed := make(chan struct{})
		var failOnce sync.Once

		opts := []capture.Option{
			capture.WithPreroll(capture.Preroll{
				Count:    rec.CountdownCount,
				Interval: rec.CountdownInterval,
				OnTick: func(remaining int) {
					fmt.Fprintf(w, "recording in %d...\n", remaining)
				},
			}),
			capture.WithStateHook(func(from, to capture.State) {
				if to == capture.Error {
					failOnce.Do(func() { close(failed) })
				}
			}),
		}
		if !recordNoPreview {
			var frames atomic.Int64
			opts = append(opts, capture.WithPreview(capture.NewFramePreview(log.Logger, executor, webcamOpts, func(frame []byte) {
				if frames.Add(1) == 1 {
					log.Info().Int("bytes", len(frame)).Msg("webcam preview live")
				}
			})))
		}

		factory := capture.NewProcessFactory(log.Logger, executor, screenOpts, webcamOpts)
		coord := capture.NewCoordinator(log.Logger, factory, opts...)
		defer func() { _ = coord.Close() }()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)

		target := capture.Target{Screen: rec.Display, Webcam: rec.WebcamDevice}
		if err := coord.SelectSource(ctx, target); err != nil {
			return err
		}

		res, err := runRecording(ctx, coord, sigs, failed)
		if errors.Is(err, capture.ErrCountdownCancelled) {
			log.Info().Msg("recording cancelled")
			return nil
		}
		if err != nil {
			return err
		}

		screen, webcam, err := p.ImportRecording(ctx, res)
		if err != nil {
			return err
		}
		session := editor.NewSession(log.Logger, editor.WithPiP(cfg.PiP))
		if err := session.AddRecording(screen, webcam); err != nil {
			return err
		}
		printTrack(w, "main", session.MainIndex())
		printTrack(w, "overlay", session.OverlayIndex())

		if recordExport == "" {
			return nil
		}
		plan := pipeline.BuildPlan(session.Clips(), session.PiP())
		return p.Export(ctx, plan, pipeline.ExportOptions{
			Output:       recordExport,
			ProgressFunc: progressLogger(plan.MainDuration()),
		})
	},
}

// runRecording drives the coordinator from countdown to a stopped recording.
// A signal during the countdown cancels it; while recording it stops, as
// does the --max timer. A signal that lands after the countdown expired but
// before recording began counts as a stop.
func runRecording(ctx context.Context, coord *capture.Coordinator, sigs <-chan os.Signal, failed <-chan struct{}) (capture.Result, error) {
	countdownDone := make(chan struct{})
	lateStop := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			if err := coord.CancelCountdown(); err != nil {
				log.Debug().Err(err).Msg("countdown already over, stopping instead")
				close(lateStop)
			}
		case <-countdownDone:
		}
	}()

	err := coord.BeginCountdown(ctx)
	close(countdownDone)
	if err != nil {
		return capture.Result{}, err
	}
	log.Info().Msg("recording, press Ctrl+C to stop")

	var timeout <-chan time.Time
	if recordMax > 0 {
		timer := time.NewTimer(recordMax)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-sigs:
	case <-lateStop:
	case <-timeout:
		log.Info().Dur("max", recordMax).Msg("recording limit reached")
	case <-failed:
		return capture.Result{}, fmt.Errorf("recording failed: %w", coord.Err())
	case <-ctx.Done():
		return capture.Result{}, ctx.Err()
	}

	return coord.Stop(ctx)
}

func init() {
	recordCmd.Flags().StringVar(&recordExport, "export", "", "export the recording to this file when done")
	recordCmd.Flags().DurationVar(&recordMax, "max", 0, "stop automatically after this long")
	recordCmd.Flags().BoolVar(&recordNoPreview, "no-preview", false, "do not open the webcam preview while waiting")
}
