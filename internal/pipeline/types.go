package pipeline

import (
	"github.com/kikiluvv/reelcut/internal/ffmpeg"
	"github.com/kikiluvv/reelcut/internal/pip"
)

// Segment is one clip's contribution to a rendered track, in seconds
type Segment struct {
	ClipID      string
	SourcePath  string
	SourceStart float64
	Duration    float64
}

// ExportPlan describes what the export collaborator renders. Both tracks
// start at timeline zero and play their segments end to end.
type ExportPlan struct {
	Main    []Segment
	Overlay []Segment
	PiP     pip.Config
}

// MainDuration is the length of the rendered output
func (p ExportPlan) MainDuration() float64 {
	return total(p.Main)
}

// OverlayDuration is how long the inset is visible
func (p ExportPlan) OverlayDuration() float64 {
	return total(p.Overlay)
}

func total(segs []Segment) float64 {
	var sum float64
	for _, s := range segs {
		sum += s.Duration
	}
	return sum
}

// ExportOptions configures a render. Zero size and fps fall back to the
// export section of the configuration.
type ExportOptions struct {
	Output   string
	Width    int
	Height   int
	FPS      float64
	NoAudio  bool
	KeepTemp bool

	ProgressFunc ffmpeg.ProgressFunc
}
