package pip

import (
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

// Rect is the inset placement in frame pixels
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Image returns r as an image.Rectangle
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Layout computes where the inset lands inside a frameW x frameH frame.
// The overlay keeps its own aspect ratio; without a usable overlay size the
// frame's aspect ratio is used instead.
func (c Config) Layout(frameW, frameH, overlayW, overlayH int) Rect {
	if overlayW <= 0 || overlayH <= 0 {
		overlayW, overlayH = frameW, frameH
	}
	if frameW <= 0 || frameH <= 0 || overlayW <= 0 {
		return Rect{}
	}

	w := int(math.Round(c.Size.Fraction() * float64(frameW)))
	h := int(math.Round(float64(w) * float64(overlayH) / float64(overlayW)))

	r := Rect{X: Margin, Y: Margin, W: w, H: h}
	switch c.Position {
	case TopRight:
		r.X = frameW - w - Margin
	case BottomLeft:
		r.Y = frameH - h - Margin
	case BottomRight:
		r.X = frameW - w - Margin
		r.Y = frameH - h - Margin
	}
	return r
}

// Compose paints overlay onto a copy of main using the inset layout.
// A nil overlay yields an unmodified copy.
func Compose(main, overlay image.Image, cfg Config) *image.RGBA {
	bounds := main.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), main, bounds.Min, draw.Src)

	if overlay == nil {
		return out
	}

	ob := overlay.Bounds()
	r := cfg.Layout(bounds.Dx(), bounds.Dy(), ob.Dx(), ob.Dy())
	if r.W <= 0 || r.H <= 0 {
		return out
	}

	inset := resize.Resize(uint(r.W), uint(r.H), overlay, resize.Bilinear)
	draw.Draw(out, r.Image(), inset, inset.Bounds().Min, draw.Over)
	return out
}
