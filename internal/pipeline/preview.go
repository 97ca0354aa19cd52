package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/kikiluvv/reelcut/internal/editor"
	"github.com/kikiluvv/reelcut/internal/pip"
	"github.com/kikiluvv/reelcut/pkg/util"
)

const previewQuality = 90

// Preview writes the composed still for one playback frame as a JPEG:
// the main clip's picture with the active PiP clip inset
func (p *Pipeline) Preview(ctx context.Context, frame editor.Frame, output string) error {
	if !frame.HasMain {
		return fmt.Errorf("no main clip at the playhead")
	}
	if output == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	if err := util.EnsureDir(p.config.TempDir); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	dir, err := os.MkdirTemp(p.config.TempDir, "reelcut-preview-*")
	if err != nil {
		return fmt.Errorf("failed to create preview dir: %w", err)
	}
	defer os.RemoveAll(dir)

	mainPath := filepath.Join(dir, "main.jpg")
	at := util.Seconds(frame.Main.SourceStart + frame.MainLocal)
	if err := p.ffmpeg.ExtractFrame(ctx, frame.Main.SourcePath, mainPath, at); err != nil {
		return fmt.Errorf("main frame: %w", err)
	}

	var overlayPath string
	if frame.PiP != nil {
		overlayPath = filepath.Join(dir, "pip.jpg")
		at := util.Seconds(frame.PiP.SourceStart + frame.PiPLocal)
		if err := p.ffmpeg.ExtractFrame(ctx, frame.PiP.SourcePath, overlayPath, at); err != nil {
			return fmt.Errorf("pip frame: %w", err)
		}
	}

	img, err := composeFiles(mainPath, overlayPath, frame.PiPConfig)
	if err != nil {
		return err
	}
	if err := writeJPEG(output, img); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}

	p.logger.Info().
		Str("output", output).
		Str("main", frame.Main.ID).
		Bool("pip", frame.PiP != nil).
		Msg("preview written")
	return nil
}

// composeFiles decodes the stills and insets the overlay; an empty
// overlayPath yields the main picture alone
func composeFiles(mainPath, overlayPath string, cfg pip.Config) (*image.RGBA, error) {
	mainImg, err := readJPEG(mainPath)
	if err != nil {
		return nil, err
	}

	var overlay image.Image
	if overlayPath != "" {
		img, err := readJPEG(overlayPath)
		if err != nil {
			return nil, err
		}
		overlay = img
	}
	return pip.Compose(mainImg, overlay, cfg), nil
}

func readJPEG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func writeJPEG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := util.EnsureDir(dir); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: previewQuality}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
