// Package pip places the overlay track on top of the main track
package pip

import (
	"fmt"
)

// Position is the frame corner the inset is anchored to
type Position string

const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
)

// Size is the inset width as a share of the frame width
type Size string

const (
	Small  Size = "small"
	Medium Size = "medium"
	Large  Size = "large"
)

// Fraction returns the share of the frame width for s, 0 when unknown
func (s Size) Fraction() float64 {
	switch s {
	case Small:
		return 0.15
	case Medium:
		return 0.25
	case Large:
		return 0.40
	}
	return 0
}

// Margin between the inset and the frame edges, in pixels
const Margin = 20

// Config is the PiP presentation state
type Config struct {
	Position Position `yaml:"position"`
	Size     Size     `yaml:"size"`
}

// DefaultConfig anchors a medium inset to the bottom-right corner
func DefaultConfig() Config {
	return Config{Position: BottomRight, Size: Medium}
}

// Validate checks both fields against their known values
func (c Config) Validate() error {
	switch c.Position {
	case TopLeft, TopRight, BottomLeft, BottomRight:
	default:
		return fmt.Errorf("unknown position %q", c.Position)
	}
	if c.Size.Fraction() == 0 {
		return fmt.Errorf("unknown size %q", c.Size)
	}
	return nil
}
