package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00.000"},
		{1.5, "00:00:01.500"},
		{61.25, "00:01:01.250"},
		{3723.004, "01:02:03.004"},
		{59.9996, "00:01:00.000"},
		{-4, "00:00:00.000"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.in); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := FormatDuration(90 * time.Second); got != "00:01:30.000" {
		t.Errorf("FormatDuration = %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"45.5", 45.5, false},
		{"1:30", 90, false},
		{"01:02:03.5", 3723.5, false},
		{" 2 ", 2, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1:2:3:4", 0, true},
		{"-3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := map[string]float64{
		"30/1":       30,
		"30000/1001": 30000.0 / 1001.0,
		"25":         0,
		"1/0":        0,
		"x/1":        0,
	}
	for in, want := range tests {
		if got := ParseFrameRate(in); got != want {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(2.5); got != 2500*time.Millisecond {
		t.Errorf("Seconds(2.5) = %v", got)
	}
}

func TestWriteTemp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := WriteTemp(dir, "rec-*.mkv", []byte("data"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".mkv" {
		t.Errorf("unexpected path %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Errorf("read back %q, %v", got, err)
	}

	CleanupFiles(path)
	if FileExists(path) {
		t.Error("file not removed")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs"); got != "/abs" {
		t.Errorf("absolute path changed: %q", got)
	}
}
