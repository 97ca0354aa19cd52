package editor

import (
	"math"

	"github.com/kikiluvv/reelcut/internal/clips"
)

// ClampTrim bounds a requested source window for c before it reaches Trim.
// The end handle stays within [MinClipLength, SourceDuration] and the start
// handle within [0, end-MinClipLength], so the result never drops below
// the minimum clip length or leaves the source asset.
func ClampTrim(c clips.Clip, newStart, newEnd float64) (float64, float64) {
	if math.IsNaN(newStart) {
		newStart = c.SourceStart
	}
	if math.IsNaN(newEnd) {
		newEnd = c.SourceEnd()
	}

	end := math.Min(math.Max(newEnd, MinClipLength), c.SourceDuration)
	start := math.Min(math.Max(newStart, 0), end-MinClipLength)
	if start < 0 {
		// source shorter than the minimum length; keep the whole asset
		start = 0
	}
	return start, end
}
