package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// RecorderSettings holds the capture and encoding tunables.
type RecorderSettings struct {
	Device         string `toml:"device" json:"device,omitempty"`
	Width          int    `toml:"width" json:"width,omitempty"`
	Height         int    `toml:"height" json:"height,omitempty"`
	Framerate      int    `toml:"framerate" json:"framerate,omitempty"`
	BufferCount    int    `toml:"buffer_count" json:"buffer_count,omitempty"`
	Bitrate        int    `toml:"bitrate" json:"bitrate,omitempty"`
	SegmentMinutes int    `toml:"segment_minutes" json:"segment_minutes,omitempty"`
	Root           string `toml:"root" json:"root,omitempty"`
}

// RetentionSettings holds the storage watchdog tunables.
type RetentionSettings struct {
	MinFreePercent float64 `toml:"min_free_percent" json:"min_free_percent,omitempty"`
	CheckSeconds   int     `toml:"check_seconds" json:"check_seconds,omitempty"`
}

// Settings is the reloadable section of the config file. The Options
// struct in main covers one-shot startup flags; Settings covers the
// tunables that take effect on the next segment or retention cycle.
type Settings struct {
	Version   int               `toml:"version" json:"version,omitempty"`
	Recorder  RecorderSettings  `toml:"recorder" json:"recorder,omitempty"`
	Retention RetentionSettings `toml:"retention" json:"retention,omitempty"`
}

// DefaultSettings returns the appliance defaults: 640x480 RGB565 at
// 30 fps from /dev/video0, 30-minute segments, cleanup below 10% free.
func DefaultSettings() Settings {
	return Settings{
		Version: 1,
		Recorder: RecorderSettings{
			Device:         "/dev/video0",
			Width:          640,
			Height:         480,
			Framerate:      30,
			BufferCount:    3,
			Bitrate:        800_000,
			SegmentMinutes: 30,
			Root:           "/var/lib/camdvr",
		},
		Retention: RetentionSettings{
			MinFreePercent: 10.0,
			CheckSeconds:   60,
		},
	}
}

// SegmentDuration returns the segment length as a duration.
func (r RecorderSettings) SegmentDuration() time.Duration {
	return time.Duration(r.SegmentMinutes) * time.Minute
}

// CheckInterval returns the retention check period as a duration.
func (r RetentionSettings) CheckInterval() time.Duration {
	return time.Duration(r.CheckSeconds) * time.Second
}

// Validate reports the first out-of-range value.
func (s Settings) Validate() error {
	if s.Recorder.Device == "" {
		return fmt.Errorf("recorder.device cannot be empty")
	}
	if s.Recorder.Width <= 0 || s.Recorder.Height <= 0 {
		return fmt.Errorf("recorder resolution %dx%d is invalid", s.Recorder.Width, s.Recorder.Height)
	}
	if s.Recorder.Framerate <= 0 {
		return fmt.Errorf("recorder.framerate must be positive, got %d", s.Recorder.Framerate)
	}
	if s.Recorder.BufferCount < 2 {
		return fmt.Errorf("recorder.buffer_count must be at least 2, got %d", s.Recorder.BufferCount)
	}
	if s.Recorder.SegmentMinutes <= 0 {
		return fmt.Errorf("recorder.segment_minutes must be positive, got %d", s.Recorder.SegmentMinutes)
	}
	if s.Recorder.Root == "" {
		return fmt.Errorf("recorder.root cannot be empty")
	}
	if s.Retention.MinFreePercent < 0 || s.Retention.MinFreePercent > 100 {
		return fmt.Errorf("retention.min_free_percent must be within [0, 100], got %g", s.Retention.MinFreePercent)
	}
	if s.Retention.CheckSeconds <= 0 {
		return fmt.Errorf("retention.check_seconds must be positive, got %d", s.Retention.CheckSeconds)
	}
	return nil
}

// LoadSettings reads settings from a TOML file. A missing file yields
// the defaults; a present file starts from the defaults so partial
// configs only override what they mention.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings: %w", err)
	}
	if settings.Version == 0 {
		settings.Version = 1
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// SaveSettings writes settings to a TOML file, creating parent
// directories as needed.
func SaveSettings(path string, settings Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
