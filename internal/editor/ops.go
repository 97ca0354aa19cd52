// Package editor mutates the clip collection.
//
// The operations in this file are pure: they take the ordered collection and
// return a new one. An id that does not resolve is not an error; the input is
// returned unchanged. They trust their caller for range checks, see ClampTrim.
package editor

import (
	"github.com/kikiluvv/reelcut/internal/clips"
)

// MinClipLength is the shortest clip a trim handle or split may produce, in seconds
const MinClipLength = 0.1

// splitTolerance absorbs float error so a split exactly MinClipLength from
// either edge is allowed
const splitTolerance = 1e-9

// Trim sets the source window of one clip. Siblings are untouched; the
// timeline index absorbs the ripple on rebuild.
func Trim(seq []clips.Clip, id string, newStart, newEnd float64) []clips.Clip {
	i := clips.IndexOf(seq, id)
	if i < 0 {
		return seq
	}

	out := cloneSeq(seq)
	out[i].SourceStart = newStart
	out[i].TimelineDuration = newEnd - newStart
	return out
}

// CanSplit reports whether a split at local offset at leaves both halves
// at least MinClipLength long
func CanSplit(c clips.Clip, at float64) bool {
	return at >= MinClipLength-splitTolerance && at <= c.TimelineDuration-MinClipLength+splitTolerance
}

// Split replaces a clip with two halves cut at local offset at. Both halves
// get fresh ids from newID and keep every other field of the original.
// The second return value is false when nothing changed.
func Split(seq []clips.Clip, id string, at float64, newID func() string) ([]clips.Clip, bool) {
	i := clips.IndexOf(seq, id)
	if i < 0 {
		return seq, false
	}
	original := seq[i]
	if !CanSplit(original, at) {
		return seq, false
	}

	first := original
	first.ID = newID()
	first.TimelineDuration = at

	second := original
	second.ID = newID()
	second.SourceStart = original.SourceStart + at
	second.TimelineDuration = original.TimelineDuration - at

	out := make([]clips.Clip, 0, len(seq)+1)
	out = append(out, seq[:i]...)
	out = append(out, first, second)
	out = append(out, seq[i+1:]...)
	return out, true
}

// Delete removes a clip from the collection
func Delete(seq []clips.Clip, id string) []clips.Clip {
	i := clips.IndexOf(seq, id)
	if i < 0 {
		return seq
	}

	out := make([]clips.Clip, 0, len(seq)-1)
	out = append(out, seq[:i]...)
	out = append(out, seq[i+1:]...)
	return out
}

// MoveTrack reassigns a clip to another track. Only the track field changes.
func MoveTrack(seq []clips.Clip, id string, track clips.Track) []clips.Clip {
	i := clips.IndexOf(seq, id)
	if i < 0 || !track.Valid() {
		return seq
	}

	out := cloneSeq(seq)
	out[i].Track = track
	return out
}

func cloneSeq(seq []clips.Clip) []clips.Clip {
	out := make([]clips.Clip, len(seq))
	copy(out, seq)
	return out
}
