package editor

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/pip"
)

func clip(id string, dur float64, track clips.Track) clips.Clip {
	kind := clips.KindImported
	if track == clips.TrackOverlay {
		kind = clips.KindWebcam
	}
	return clips.Clip{
		ID:               id,
		SourceKind:       kind,
		SourcePath:       id + ".mp4",
		SourceDuration:   dur,
		TimelineDuration: dur,
		Track:            track,
	}
}

func newSession(t *testing.T, seq ...clips.Clip) *Session {
	t.Helper()
	s := NewSession(zerolog.Nop(), WithIDGenerator(counter()))
	for _, c := range seq {
		if err := s.Add(c); err != nil {
			t.Fatalf("Add(%s): %v", c.ID, err)
		}
	}
	return s
}

func TestFrameScenario(t *testing.T) {
	s := newSession(t,
		clip("A", 10, clips.TrackMain),
		clip("B", 8, clips.TrackMain),
		clip("P", 10, clips.TrackOverlay),
	)

	s.Player().Seek(5)
	f := s.Frame()
	if !f.HasMain || f.Main.ID != "A" || f.MainLocal != 5 {
		t.Errorf("main at 5: %s@%v", f.Main.ID, f.MainLocal)
	}
	if f.PiP == nil || f.PiP.ID != "P" || f.PiPLocal != 5 {
		t.Errorf("pip at 5: %+v@%v", f.PiP, f.PiPLocal)
	}

	s.Player().Seek(12)
	f = s.Frame()
	if f.Main.ID != "B" || f.MainLocal != 2 {
		t.Errorf("main at 12: %s@%v", f.Main.ID, f.MainLocal)
	}
	if f.PiP != nil {
		t.Errorf("pip at 12 should be none once the overlay track has ended, got %s", f.PiP.ID)
	}
	if f.PiPConfig != pip.DefaultConfig() {
		t.Errorf("unexpected pip config %+v", f.PiPConfig)
	}
}

func TestAddRejectsInvalidClip(t *testing.T) {
	s := newSession(t)

	bad := clip("x", 5, clips.TrackMain)
	bad.TimelineDuration = 6
	if err := s.Add(bad); !errors.Is(err, clips.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}

	good := clip("y", 5, clips.TrackMain)
	if err := s.Add(good); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(good); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestAddRecordingAssignsTracks(t *testing.T) {
	s := newSession(t)

	screen := clips.New(clips.KindScreen, "screen.webm", 4, clips.Metadata{})
	webcam := clips.New(clips.KindWebcam, "webcam.webm", 4, clips.Metadata{})
	if err := s.AddRecording(screen, webcam); err != nil {
		t.Fatal(err)
	}

	if s.MainIndex().Len() != 1 || s.OverlayIndex().Len() != 1 {
		t.Fatalf("main=%d overlay=%d", s.MainIndex().Len(), s.OverlayIndex().Len())
	}
	if s.MainIndex().Total() != 4 || s.OverlayIndex().Total() != 4 {
		t.Error("both tracks should share the recording duration")
	}
}

func TestTrimClampsAndRipples(t *testing.T) {
	s := newSession(t, clip("A", 10, clips.TrackMain), clip("B", 8, clips.TrackMain))

	s.Trim("A", -1, 20)
	a, _ := clips.Find(s.Clips(), "A")
	if a.SourceStart != 0 || a.TimelineDuration != 10 {
		t.Errorf("trim not clamped: start=%v dur=%v", a.SourceStart, a.TimelineDuration)
	}

	s.Trim("A", 2, 6)
	span, _ := s.MainIndex().Span("B")
	if span.Start != 4 || s.MainIndex().Total() != 12 {
		t.Errorf("B starts at %v, total %v", span.Start, s.MainIndex().Total())
	}
	if s.Player().Timeline() != s.MainIndex() {
		t.Error("controller was not given the rebuilt index")
	}

	s.Trim("missing", 0, 1)
	if len(s.Clips()) != 2 {
		t.Error("trim on unknown id changed the collection")
	}
}

func TestTrimResetsPlayhead(t *testing.T) {
	s := newSession(t, clip("A", 10, clips.TrackMain), clip("B", 8, clips.TrackMain))

	s.Player().Seek(17)
	s.Trim("B", 0, 2)
	if s.Player().Playhead() != 0 {
		t.Errorf("playhead = %v past total %v, want reset to 0", s.Player().Playhead(), s.MainIndex().Total())
	}
	if f := s.Frame(); f.Main.ID != "A" || f.MainLocal != 0 {
		t.Errorf("frame after trim: %s@%v", f.Main.ID, f.MainLocal)
	}

	s.Player().Seek(11)
	s.Trim("B", 0, 4)
	if s.Player().Playhead() != 11 {
		t.Errorf("playhead inside trimmed timeline moved to %v", s.Player().Playhead())
	}
}

func TestSplitAtPlayhead(t *testing.T) {
	s := newSession(t, clip("A", 10, clips.TrackMain), clip("B", 8, clips.TrackMain))
	s.Select("B")
	s.Player().Seek(13)

	if !s.SplitAtPlayhead() {
		t.Fatal("split refused")
	}
	got := ids(s.Clips())
	if len(got) != 3 || got[0] != "A" {
		t.Fatalf("clips after split: %v", got)
	}
	if s.Selected() != got[1] {
		t.Errorf("selection = %q, want first half %q", s.Selected(), got[1])
	}
	span, _ := s.MainIndex().Span(got[2])
	if span.Start != 13 || s.MainIndex().Total() != 18 {
		t.Errorf("second half at %v, total %v", span.Start, s.MainIndex().Total())
	}

	s.Player().Seek(13.05)
	if s.SplitAtPlayhead() {
		t.Error("split 0.05s into a clip should be refused")
	}
}

func TestDeleteSelectionPolicy(t *testing.T) {
	s := newSession(t,
		clip("A", 10, clips.TrackMain),
		clip("P", 4, clips.TrackOverlay),
		clip("B", 8, clips.TrackMain),
		clip("C", 5, clips.TrackMain),
	)

	s.Select("B")
	s.Delete("B")
	if s.Selected() != "C" {
		t.Errorf("after deleting B selected %q, want next clip C", s.Selected())
	}

	s.Delete("C")
	if s.Selected() != "A" {
		t.Errorf("after deleting last clip selected %q, want previous clip A", s.Selected())
	}

	s.Delete("A")
	if s.Selected() != "" {
		t.Errorf("selected %q, want none", s.Selected())
	}

	s.Select("P")
	s.Delete("missing")
	if s.Selected() != "P" || len(s.Clips()) != 1 {
		t.Error("delete on unknown id must be a no-op")
	}
}

func TestDeleteResetsPlayhead(t *testing.T) {
	s := newSession(t, clip("A", 10, clips.TrackMain), clip("B", 8, clips.TrackMain))

	s.Player().Seek(15)
	s.Delete("A")
	if s.Player().Playhead() != 0 {
		t.Errorf("playhead = %v, want reset to 0", s.Player().Playhead())
	}

	s.Player().Seek(3)
	s.Add(clip("C", 2, clips.TrackMain))
	s.Delete("C")
	if s.Player().Playhead() != 3 {
		t.Errorf("playhead inside remaining timeline moved to %v", s.Player().Playhead())
	}
}

func TestSessionMoveTrack(t *testing.T) {
	s := newSession(t, clip("A", 10, clips.TrackMain), clip("B", 8, clips.TrackMain))

	s.MoveTrack("B", clips.TrackOverlay)
	if s.MainIndex().Total() != 10 || s.OverlayIndex().Total() != 8 {
		t.Errorf("main=%v overlay=%v", s.MainIndex().Total(), s.OverlayIndex().Total())
	}

	s.Player().Seek(3)
	if f := s.Frame(); f.PiP == nil || f.PiP.ID != "B" || f.PiPLocal != 3 {
		t.Errorf("moved clip not resolved as PiP: %+v", f.PiP)
	}
}

func TestMoveTrackResetsPlayhead(t *testing.T) {
	s := newSession(t, clip("A", 10, clips.TrackMain), clip("B", 8, clips.TrackMain))

	s.Player().Seek(17)
	s.MoveTrack("B", clips.TrackOverlay)
	if s.Player().Playhead() != 0 {
		t.Errorf("playhead = %v past total %v, want reset to 0", s.Player().Playhead(), s.MainIndex().Total())
	}
	f := s.Frame()
	if f.Main.ID != "A" || f.MainLocal != 0 {
		t.Errorf("main after move: %s@%v", f.Main.ID, f.MainLocal)
	}
	if f.PiP == nil || f.PiP.ID != "B" || f.PiPLocal != 0 {
		t.Errorf("pip after move: %+v@%v", f.PiP, f.PiPLocal)
	}
}

func TestSetPiP(t *testing.T) {
	s := newSession(t)

	if err := s.SetPiP(pip.Config{Position: pip.TopLeft, Size: pip.Large}); err != nil {
		t.Fatal(err)
	}
	if s.PiP().Position != pip.TopLeft {
		t.Error("config not applied")
	}
	if err := s.SetPiP(pip.Config{Position: "middle", Size: pip.Large}); err == nil {
		t.Error("expected validation error")
	}
	if s.PiP().Position != pip.TopLeft {
		t.Error("invalid config must not replace the current one")
	}
}
