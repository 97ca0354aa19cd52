package playback

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/timeline"
)

func newController(durs ...float64) *Controller {
	seq := make([]clips.Clip, 0, len(durs))
	for i, d := range durs {
		seq = append(seq, clips.Clip{
			ID:               string(rune('a' + i)),
			SourceDuration:   d,
			TimelineDuration: d,
		})
	}
	ctl := New(zerolog.Nop())
	ctl.SetTimeline(timeline.Build(seq))
	return ctl
}

func TestAdvanceWithinClip(t *testing.T) {
	ctl := newController(10, 8, 5)
	ctl.Play()

	ctl.Advance(4.5)
	if ctl.Playhead() != 4.5 {
		t.Errorf("playhead = %v, want 4.5", ctl.Playhead())
	}

	ctl.Seek(12)
	ctl.Advance(3)
	if ctl.Playhead() != 13 {
		t.Errorf("playhead = %v, want 13 (clip b starts at 10)", ctl.Playhead())
	}
}

func TestAdvanceSnapsToNextClip(t *testing.T) {
	ctl := newController(10, 8, 5)
	ctl.Play()

	ctl.Advance(10)
	if ctl.Playhead() != 10 {
		t.Fatalf("playhead = %v, want exactly 10", ctl.Playhead())
	}
	cur, local, ok := ctl.Current()
	if !ok || cur.ID != "b" || local != 0 {
		t.Errorf("active clip = %s local=%v, want b at 0", cur.ID, local)
	}
	if !ctl.Playing() {
		t.Error("auto-advance must keep playing")
	}

	// Overshooting the boundary still lands on the next clip's start.
	ctl.Advance(8.7)
	if ctl.Playhead() != 18 {
		t.Errorf("playhead = %v, want 18", ctl.Playhead())
	}
}

func TestAdvanceStopsAtEnd(t *testing.T) {
	ctl := newController(10, 8, 5)
	ctl.Play()
	ctl.Seek(18)

	ctl.Advance(5)
	if ctl.Playhead() != 23 {
		t.Errorf("playhead = %v, want 23", ctl.Playhead())
	}
	if ctl.Playing() {
		t.Error("playback should stop at the end of the timeline")
	}
	if ctl.State() != Stopped {
		t.Errorf("state = %s", ctl.State())
	}
}

func TestPlayRewindsAtEnd(t *testing.T) {
	ctl := newController(10, 8, 5)
	ctl.Seek(23)

	ctl.Play()
	if ctl.Playhead() != 0 {
		t.Errorf("expected replay from start, playhead = %v", ctl.Playhead())
	}
	if !ctl.Playing() {
		t.Error("expected playing")
	}
}

func TestPauseKeepsPlayhead(t *testing.T) {
	ctl := newController(10)
	ctl.Play()
	ctl.Advance(3)
	ctl.Pause()

	if ctl.Playing() || ctl.Playhead() != 3 {
		t.Errorf("after pause: playing=%v playhead=%v", ctl.Playing(), ctl.Playhead())
	}
}

func TestToggle(t *testing.T) {
	ctl := newController(10)
	ctl.Seek(10)

	ctl.Toggle()
	if !ctl.Playing() || ctl.Playhead() != 0 {
		t.Errorf("toggle from stopped at end should replay: playing=%v playhead=%v", ctl.Playing(), ctl.Playhead())
	}
	ctl.Toggle()
	if ctl.Playing() {
		t.Error("second toggle should pause")
	}
}

func TestSeekDoesNotChangePlaying(t *testing.T) {
	ctl := newController(10, 8)

	ctl.Seek(4)
	if ctl.Playing() {
		t.Error("seek must not start playback")
	}

	ctl.Play()
	ctl.Seek(12)
	if !ctl.Playing() {
		t.Error("seek must not pause playback")
	}
}

func TestSeekClamps(t *testing.T) {
	ctl := newController(10, 8)

	ctl.Seek(-2)
	if ctl.Playhead() != 0 {
		t.Errorf("negative seek: %v", ctl.Playhead())
	}
	ctl.Seek(100)
	if ctl.Playhead() != 18 {
		t.Errorf("seek past end: %v", ctl.Playhead())
	}
}

func TestEmptyTimeline(t *testing.T) {
	ctl := New(zerolog.Nop())

	ctl.Play()
	if ctl.Playing() {
		t.Error("empty timeline should not play")
	}
	ctl.Advance(1)
	if ctl.Playhead() != 0 || ctl.Playing() {
		t.Errorf("advance on empty timeline: playhead=%v playing=%v", ctl.Playhead(), ctl.Playing())
	}
	if _, _, ok := ctl.Current(); ok {
		t.Error("expected no current clip")
	}
}

func TestPlayheadStaysInBounds(t *testing.T) {
	ctl := newController(2, 3, 1.5)
	ctl.Play()

	for i := 0; i < 200 && ctl.Playing(); i++ {
		_, local, _ := ctl.Current()
		ctl.Advance(local + 0.07)
		if ctl.Playhead() < 0 || ctl.Playhead() > ctl.Timeline().Total() {
			t.Fatalf("playhead %v escaped [0, %v]", ctl.Playhead(), ctl.Timeline().Total())
		}
	}
	if ctl.Playing() {
		t.Fatal("playback never reached the end")
	}
	if ctl.Playhead() != ctl.Timeline().Total() {
		t.Errorf("final playhead %v, want %v", ctl.Playhead(), ctl.Timeline().Total())
	}
}

func TestDriverRunsToEnd(t *testing.T) {
	ctl := newController(0.05, 0.05)
	ctl.Play()

	d := NewDriver(ctl, time.Millisecond)
	d.SetSpeed(10)

	var ticks int
	d.OnTick(func(float64) { ticks++ })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ctl.Playing() {
		t.Error("driver returned while still playing")
	}
	if ctl.Playhead() != ctl.Timeline().Total() {
		t.Errorf("playhead = %v, want %v", ctl.Playhead(), ctl.Timeline().Total())
	}
	if ticks == 0 {
		t.Error("expected tick callbacks")
	}
}

func TestDriverHonoursContext(t *testing.T) {
	ctl := newController(1000)
	ctl.Play()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewDriver(ctl, time.Millisecond).Run(ctx); err == nil {
		t.Error("expected context error")
	}
}
