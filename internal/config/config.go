package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/reelcut/internal/pip"
	"github.com/kikiluvv/reelcut/pkg/util"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir string `yaml:"work_dir"`
	TempDir string `yaml:"temp_dir"`

	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	Recording RecordingConfig `yaml:"recording"`
	Editor    EditorConfig    `yaml:"editor"`
	PiP       pip.Config      `yaml:"pip"`
	Export    ExportConfig    `yaml:"export"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

// RecordingConfig describes the two capture sources
type RecordingConfig struct {
	Display           string        `yaml:"display"`
	ScreenWidth       int           `yaml:"screen_width"`
	ScreenHeight      int           `yaml:"screen_height"`
	ScreenFPS         int           `yaml:"screen_fps"`
	WebcamDevice      string        `yaml:"webcam_device"`
	WebcamWidth       int           `yaml:"webcam_width"`
	WebcamHeight      int           `yaml:"webcam_height"`
	WebcamFPS         int           `yaml:"webcam_fps"`
	CountdownCount    int           `yaml:"countdown_count"`
	CountdownInterval time.Duration `yaml:"countdown_interval"`
}

type EditorConfig struct {
	// TickInterval drives CLI playback
	TickInterval time.Duration `yaml:"tick_interval"`
}

type ExportConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.WorkDir = util.ExpandHome(cfg.WorkDir)
	cfg.TempDir = util.ExpandHome(cfg.TempDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := util.EnsureDir(dir); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would otherwise fail deep inside a command
func (c *Config) Validate() error {
	if err := c.PiP.Validate(); err != nil {
		return fmt.Errorf("pip: %w", err)
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return fmt.Errorf("ffmpeg.crf must be between 0 and 51")
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		return fmt.Errorf("export size must be positive")
	}
	if c.Export.Width%2 != 0 || c.Export.Height%2 != 0 {
		return fmt.Errorf("export size must be even for yuv420p")
	}
	if c.Export.FPS <= 0 {
		return fmt.Errorf("export.fps must be positive")
	}
	if c.Recording.CountdownCount < 0 {
		return fmt.Errorf("recording.countdown_count cannot be negative")
	}
	if c.Editor.TickInterval <= 0 {
		return fmt.Errorf("editor.tick_interval must be positive")
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		WorkDir: "./work",
		TempDir: "./temp",
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
		},
		Recording: RecordingConfig{
			Display:           ":0.0",
			ScreenWidth:       1920,
			ScreenHeight:      1080,
			ScreenFPS:         30,
			WebcamDevice:      "/dev/video0",
			WebcamWidth:       1280,
			WebcamHeight:      720,
			WebcamFPS:         30,
			CountdownCount:    3,
			CountdownInterval: time.Second,
		},
		Editor: EditorConfig{
			TickInterval: 40 * time.Millisecond,
		},
		PiP: pip.DefaultConfig(),
		Export: ExportConfig{
			Width:  1920,
			Height: 1080,
			FPS:    30,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./reelcut.yaml",
		"./reelcut.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".reelcut", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
