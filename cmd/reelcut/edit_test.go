package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kikiluvv/reelcut/internal/clips"
	"github.com/kikiluvv/reelcut/internal/editor"
	"github.com/kikiluvv/reelcut/internal/pip"
	"github.com/kikiluvv/reelcut/internal/timeline"
)

func TestParseTrim(t *testing.T) {
	tests := []struct {
		in      string
		want    trimEdit
		wantErr bool
	}{
		{in: "1=2-5.5", want: trimEdit{input: 1, start: 2, end: 5.5}},
		{in: "3=0:30-1:02.5", want: trimEdit{input: 3, start: 30, end: 62.5}},
		{in: " 2 =0-1", want: trimEdit{input: 2, start: 0, end: 1}},
		{in: "1:2-5", wantErr: true},
		{in: "0=1-2", wantErr: true},
		{in: "1=2:5", wantErr: true},
		{in: "1=x-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTrim(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("parseTrim(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSplit(t *testing.T) {
	got, err := parseSplit("2@1:15")
	if err != nil {
		t.Fatal(err)
	}
	if got.input != 2 || got.at != 75 {
		t.Errorf("parseSplit = %+v", got)
	}

	for _, bad := range []string{"2", "a@1", "2@", "-1@3"} {
		if _, err := parseSplit(bad); err == nil {
			t.Errorf("parseSplit(%q) should fail", bad)
		}
	}
}

func TestPiPConfigOverrides(t *testing.T) {
	f := editFlags{size: "large"}
	cfg, err := f.pipConfig(pip.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Position != pip.BottomRight || cfg.Size != pip.Large {
		t.Errorf("pipConfig = %+v", cfg)
	}

	f = editFlags{position: "middle"}
	if _, err := f.pipConfig(pip.DefaultConfig()); err == nil {
		t.Error("expected error for unknown position")
	}
}

func TestDescribeFrame(t *testing.T) {
	if got := describeFrame(editor.Frame{}); got != "nothing" {
		t.Errorf("empty frame = %q", got)
	}

	cam := clips.Clip{ID: "p", SourceStart: 1, Metadata: clips.Metadata{Filename: "cam.mkv"}}
	f := editor.Frame{
		Main:      clips.Clip{ID: "a", SourceStart: 2, Metadata: clips.Metadata{Filename: "a.mp4"}},
		MainLocal: 3,
		HasMain:   true,
		PiP:       &cam,
		PiPLocal:  0.5,
		PiPConfig: pip.DefaultConfig(),
	}
	want := "a.mp4 @ 00:00:05.000 + pip cam.mkv @ 00:00:01.500 (bottom-right, medium)"
	if got := describeFrame(f); got != want {
		t.Errorf("describeFrame = %q, want %q", got, want)
	}
}

func TestPrintTrack(t *testing.T) {
	seq := []clips.Clip{
		{ID: "a", SourceKind: clips.KindImported, SourceDuration: 10, TimelineDuration: 4, Metadata: clips.Metadata{Filename: "a.mp4"}},
		{ID: "b", SourceKind: clips.KindScreen, SourceStart: 1, SourceDuration: 10, TimelineDuration: 2, Metadata: clips.Metadata{Filename: "b.mkv"}},
	}

	var buf bytes.Buffer
	printTrack(&buf, "main", timeline.Build(seq))

	out := buf.String()
	for _, want := range []string{
		"main track (00:00:06.000)",
		"00:00:04.000 - 00:00:06.000",
		"b.mkv [00:00:01.000 - 00:00:03.000]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
