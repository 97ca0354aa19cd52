// Package timeline maps a track's ordered clips onto a virtual time axis.
//
// An Index is a pure function of the clip order: it is rebuilt whenever the
// sequence changes and never patched in place.
package timeline

import (
	"math"

	"github.com/kikiluvv/reelcut/internal/clips"
)

// Span is a clip's half-open [Start, End) interval on the timeline
type Span struct {
	Start float64
	End   float64
}

// Contains reports whether t falls inside [Start, End)
func (s Span) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// Duration of the span
func (s Span) Duration() float64 {
	return s.End - s.Start
}

// Index is the position map of one track
type Index struct {
	clips []clips.Clip
	spans map[string]Span
	order map[string]int
	total float64
}

// Build lays the clips end to end in the given order
func Build(seq []clips.Clip) *Index {
	ix := &Index{
		clips: make([]clips.Clip, len(seq)),
		spans: make(map[string]Span, len(seq)),
		order: make(map[string]int, len(seq)),
	}
	copy(ix.clips, seq)

	total := 0.0
	for i, c := range ix.clips {
		ix.spans[c.ID] = Span{Start: total, End: total + c.TimelineDuration}
		ix.order[c.ID] = i
		total += c.TimelineDuration
	}
	ix.total = total

	return ix
}

// ForTrack builds the index for one track of a mixed collection
func ForTrack(seq []clips.Clip, track clips.Track) *Index {
	return Build(clips.OnTrack(seq, track))
}

// Total is the track length in seconds, 0 when empty
func (ix *Index) Total() float64 {
	return ix.total
}

// Len is the number of clips on the track
func (ix *Index) Len() int {
	return len(ix.clips)
}

// Clips returns the indexed clips in timeline order
func (ix *Index) Clips() []clips.Clip {
	out := make([]clips.Clip, len(ix.clips))
	copy(out, ix.clips)
	return out
}

// Span returns the timeline interval of a clip
func (ix *Index) Span(id string) (Span, bool) {
	s, ok := ix.spans[id]
	return s, ok
}

// Next returns the clip following id in track order
func (ix *Index) Next(id string) (clips.Clip, bool) {
	i, ok := ix.order[id]
	if !ok || i+1 >= len(ix.clips) {
		return clips.Clip{}, false
	}
	return ix.clips[i+1], true
}

// Previous returns the clip preceding id in track order
func (ix *Index) Previous(id string) (clips.Clip, bool) {
	i, ok := ix.order[id]
	if !ok || i == 0 {
		return clips.Clip{}, false
	}
	return ix.clips[i-1], true
}

// CurrentClip returns the clip under the playhead.
// Playheads at or past the end resolve to the last clip so playback can rest
// on the final frame. Negative (and NaN) playheads are treated as 0.
func (ix *Index) CurrentClip(playhead float64) (clips.Clip, bool) {
	if len(ix.clips) == 0 {
		return clips.Clip{}, false
	}
	if c, ok := ix.ClipAt(playhead); ok {
		return c, true
	}
	return ix.clips[len(ix.clips)-1], true
}

// ClipAt is the strict lookup: no clip is returned once the playhead has
// passed the end of the track.
func (ix *Index) ClipAt(playhead float64) (clips.Clip, bool) {
	playhead = normalize(playhead)
	for _, c := range ix.clips {
		if ix.spans[c.ID].Contains(playhead) {
			return c, true
		}
	}
	return clips.Clip{}, false
}

// RelativePosition converts the playhead into the clip's local time.
// Unknown clips yield 0.
func (ix *Index) RelativePosition(id string, playhead float64) float64 {
	s, ok := ix.spans[id]
	if !ok {
		return 0
	}
	return normalize(playhead) - s.Start
}

func normalize(playhead float64) float64 {
	if math.IsNaN(playhead) || playhead < 0 {
		return 0
	}
	return playhead
}
