package pipeline_test

import (
	"context"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/config"
	"github.com/kikiluvv/reelcut/internal/editor"
	"github.com/kikiluvv/reelcut/internal/ffmpeg"
	"github.com/kikiluvv/reelcut/internal/pip"
	"github.com/kikiluvv/reelcut/internal/pipeline"
)

// local helper (cannot use unexported ones from ffmpeg package)
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

func render(t *testing.T, e *ffmpeg.Executor, dir, name, source string, seconds int) string {
	t.Helper()
	out := filepath.Join(dir, name)
	err := e.Run(context.Background(), ffmpeg.RunOptions{Args: []string{
		"-f", "lavfi",
		"-i", source,
		"-t", strconv.Itoa(seconds),
		"-c:v", ffmpeg.DefaultVideoCodec,
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		out,
	}})
	if err != nil {
		t.Fatalf("failed to render %s: %v", name, err)
	}
	return out
}

func TestIntegration_EditAndExport(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).With().Str("test", "integration_export").Logger()

	cfg := config.Default()
	cfg.WorkDir = t.TempDir()
	cfg.TempDir = t.TempDir()
	cfg.FFmpeg.Preset = "ultrafast"
	cfg.Export = config.ExportConfig{Width: 320, Height: 240, FPS: 25}

	executor, err := ffmpeg.New(logger, ffmpeg.Options{Threads: 2, Preset: cfg.FFmpeg.Preset, CRF: cfg.FFmpeg.CRF})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	p := pipeline.New(logger, cfg, executor)
	ctx := context.Background()

	src := t.TempDir()
	a := render(t, executor, src, "a.mp4", "testsrc=size=320x240:rate=25", 3)
	b := render(t, executor, src, "b.mp4", "testsrc2=size=640x360:rate=30", 2)
	cam := render(t, executor, src, "cam.mp4", "smptebars=size=160x120:rate=25", 2)

	session := editor.NewSession(logger, editor.WithPiP(pip.Config{Position: pip.TopRight, Size: pip.Small}))
	for _, path := range []string{a, b, cam} {
		clip, err := p.Import(ctx, path)
		if err != nil {
			t.Fatalf("Import %s: %v", path, err)
		}
		if err := session.Add(clip); err != nil {
			t.Fatal(err)
		}
		if path == cam {
			session.MoveTrack(clip.ID, clips.TrackOverlay)
		}
	}

	// a: 3s -> split at 1s, drop the first half; b: trimmed to 0.5..1.5
	first := session.Clips()[0]
	if !session.Split(first.ID, 1) {
		t.Fatal("split refused")
	}
	session.Delete(session.Clips()[0].ID)
	for _, c := range session.Clips() {
		if c.SourcePath == b {
			session.Trim(c.ID, 0.5, 1.5)
		}
	}

	plan := pipeline.BuildPlan(session.Clips(), session.PiP())
	if got := plan.MainDuration(); got < 2.99 || got > 3.01 {
		t.Fatalf("main duration = %v, want 3", got)
	}

	out := filepath.Join(t.TempDir(), "export.mp4")
	if err := p.Export(ctx, plan, pipeline.ExportOptions{Output: out}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	info, err := executor.ProbeVideo(ctx, out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("export size = %dx%d", info.Width, info.Height)
	}
	if d := info.Duration.Seconds(); d < 2.8 || d > 3.3 {
		t.Errorf("export duration = %v", info.Duration)
	}

	session.Player().Seek(0.5)
	still := filepath.Join(t.TempDir(), "preview.jpg")
	if err := p.Preview(ctx, session.Frame(), still); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	f, err := os.Open(still)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("preview is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 320 {
		t.Errorf("preview width = %d", img.Bounds().Dx())
	}

	t.Logf("exported %s in %v", out, info.Duration)
}
