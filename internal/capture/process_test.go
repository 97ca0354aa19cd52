package capture

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"testing/iotest"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/ffmpeg"
)

func fakeJPEG(payload string) []byte {
	out := append([]byte{0xFF, 0xD8}, payload...)
	return append(out, 0xFF, 0xD9)
}

func TestReadFrames(t *testing.T) {
	a := fakeJPEG("first")
	b := fakeJPEG("second")

	var stream []byte
	stream = append(stream, "junk"...)
	stream = append(stream, a...)
	stream = append(stream, b...)
	stream = append(stream, 0xFF, 0xD8, 'x') // truncated trailing frame

	var frames [][]byte
	n := readFrames(iotest.OneByteReader(bytes.NewReader(stream)), func(f []byte) {
		frames = append(frames, f)
	})

	if n != 2 || len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", n)
	}
	if !bytes.Equal(frames[0], a) || !bytes.Equal(frames[1], b) {
		t.Errorf("frames not split on markers: %q", frames)
	}
}

func TestCheckDevice(t *testing.T) {
	if err := checkDevice(filepath.Join(t.TempDir(), "video0")); err == nil {
		t.Error("expected error for missing device")
	}

	regular := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(regular, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := checkDevice(regular); err == nil {
		t.Error("expected error for a regular file")
	}
}

func TestProcessFactory(t *testing.T) {
	factory := NewProcessFactory(zerolog.Nop(), nil, ffmpeg.CaptureOptions{}, ffmpeg.CaptureOptions{})

	for _, kind := range []clips.SourceKind{clips.KindScreen, clips.KindWebcam} {
		if _, err := factory(kind, "src"); err != nil {
			t.Errorf("%s: %v", kind, err)
		}
	}
	if _, err := factory(clips.KindImported, "x"); err == nil {
		t.Error("expected error for imported source")
	}
}

func TestProcessSessionStopBeforeStart(t *testing.T) {
	s := NewProcessSession(zerolog.Nop(), nil, nil)
	if err := s.Stop(); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
}

func TestProcessSessionCapturesUntilStopped(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}

	executor, err := ffmpeg.New(zerolog.Nop(), ffmpeg.Options{})
	if err != nil {
		t.Fatal(err)
	}

	// lavfi stands in for a capture device
	args := []string{
		"-re", "-f", "lavfi", "-i", "testsrc=size=160x120:rate=10",
		"-c:v", "libx264", "-preset", "ultrafast",
		"-f", "matroska", "-",
	}
	s := NewProcessSession(zerolog.Nop(), executor, args)

	var buf bytes.Buffer
	if err := s.Start(context.Background(), func(p []byte) { buf.Write(p) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err := <-s.Done():
		if err != nil {
			t.Fatalf("session ended with %v", err)
		}
	case <-time.After(StopTimeout + 2*time.Second):
		t.Fatal("session did not finish")
	}
	if buf.Len() == 0 {
		t.Error("no data captured")
	}
}
