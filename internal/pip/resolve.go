package pip

import (
	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/timeline"
)

// Resolve finds the overlay clip playing alongside the main track at playhead.
// seq is the whole clip collection; only overlay clips are considered.
func Resolve(seq []clips.Clip, playhead float64) (clips.Clip, float64, bool) {
	return ResolveIndex(timeline.ForTrack(seq, clips.TrackOverlay), playhead)
}

// ResolveIndex looks up the main-track playhead against a prebuilt overlay
// index. The overlay track has its own length: once the playhead runs past
// it there is no inset, rather than a frozen last clip. This differs from
// the main track, whose lookup (timeline.Index.CurrentClip) clamps to the
// last clip so the playhead always has a frame to show.
func ResolveIndex(overlay *timeline.Index, playhead float64) (clips.Clip, float64, bool) {
	if overlay == nil || overlay.Len() == 0 {
		return clips.Clip{}, 0, false
	}

	c, ok := overlay.ClipAt(playhead)
	if !ok {
		return clips.Clip{}, 0, false
	}
	return c, overlay.RelativePosition(c.ID, playhead), true
}
