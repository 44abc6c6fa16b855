// Package config handles configuration file loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Recording modes.
const (
	ModeToggle     = "toggle"
	ModePushToTalk = "push-to-talk"
)

// Output modes.
const (
	OutputAuto      = "auto"
	OutputInjection = "injection"
	OutputClipboard = "clipboard"
)

// Default configuration values.
const (
	DefaultHotkey       = "ctrl+alt+space"
	DefaultModel        = "base"
	DefaultLanguage     = "auto"
	DefaultMaxSeconds   = 300
	DefaultAudioDevice  = "default"
	DefaultToolTimeout  = 5
	DefaultImproveURL   = "http://localhost:11434/v1"
	DefaultImproveModel = "llama3.2"
	DefaultVolume       = 80
)

// Bounds for validated fields.
const (
	MinRecordingSeconds = 1
	MaxRecordingSeconds = 600
)

// Config represents the voxd configuration. It is loaded once at startup and
// treated as immutable for the lifetime of the daemon.
type Config struct {
	Hotkey              string `toml:"hotkey"`
	Mode                string `toml:"mode"`
	Model               string `toml:"model"`
	Language            string `toml:"language"`
	OutputMode          string `toml:"output_mode"`
	SoundEffects        bool   `toml:"sound_effects"`
	SoftNewlines        bool   `toml:"soft_newlines"`
	ImproveText         bool   `toml:"improve_text"`
	MaxRecordingSeconds int    `toml:"max_recording_seconds"`
	AudioDevice         string `toml:"audio_device"`

	Improve       ImproveConfig       `toml:"improve"`
	Output        OutputConfig        `toml:"output"`
	Sounds        SoundsConfig        `toml:"sounds"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// ImproveConfig holds settings for the optional text-improvement call.
type ImproveConfig struct {
	Endpoint       string `toml:"endpoint"` // OpenAI-compatible base URL
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OutputConfig holds delivery settings.
type OutputConfig struct {
	// CandidateOrder overrides the auto-resolved delivery chain.
	// Valid names: inject-direct, clipboard-paste, inject-raw, clipboard-only.
	CandidateOrder     []string `toml:"candidate_order"`
	ToolTimeoutSeconds int      `toml:"tool_timeout_seconds"`
}

// SoundsConfig holds cue playback settings.
type SoundsConfig struct {
	Dir    string `toml:"dir"`    // Custom sounds directory (default: data dir)
	Volume int    `toml:"volume"` // 0-100
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Hotkey:              DefaultHotkey,
		Mode:                ModeToggle,
		Model:               DefaultModel,
		Language:            DefaultLanguage,
		OutputMode:          OutputAuto,
		SoundEffects:        true,
		SoftNewlines:        false,
		ImproveText:         false,
		MaxRecordingSeconds: DefaultMaxSeconds,
		AudioDevice:         DefaultAudioDevice,
		Improve: ImproveConfig{
			Endpoint:       DefaultImproveURL,
			Model:          DefaultImproveModel,
			TimeoutSeconds: 30,
		},
		Output: OutputConfig{
			ToolTimeoutSeconds: DefaultToolTimeout,
		},
		Sounds: SoundsConfig{
			Volume: DefaultVolume,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "voxd", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "voxd")
}

// SoundsPath returns the directory holding cue sound files.
func (c *Config) SoundsPath() string {
	if c.Sounds.Dir != "" {
		return c.Sounds.Dir
	}
	return filepath.Join(DataPath(), "sounds")
}

// ModelsPath returns the directory holding whisper model files.
func ModelsPath() string {
	return filepath.Join(DataPath(), "models")
}

// MarkerPath returns the path to the single-instance marker file.
// Uses XDG_RUNTIME_DIR if set, otherwise a per-user file under /tmp.
func MarkerPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "voxd.pid")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("voxd-%d.pid", os.Getuid()))
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if the file doesn't exist; the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks all fields against their declared ranges.
// Out-of-range values are rejected, never clamped.
func (c *Config) Validate() error {
	if c.Hotkey == "" {
		return errors.New("hotkey must not be empty")
	}
	if c.Mode != ModeToggle && c.Mode != ModePushToTalk {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeToggle, ModePushToTalk, c.Mode)
	}
	switch c.OutputMode {
	case OutputAuto, OutputInjection, OutputClipboard:
	default:
		return fmt.Errorf("output_mode must be %q, %q or %q, got %q",
			OutputAuto, OutputInjection, OutputClipboard, c.OutputMode)
	}
	if c.MaxRecordingSeconds < MinRecordingSeconds || c.MaxRecordingSeconds > MaxRecordingSeconds {
		return fmt.Errorf("max_recording_seconds must be between %d and %d, got %d",
			MinRecordingSeconds, MaxRecordingSeconds, c.MaxRecordingSeconds)
	}
	if c.AudioDevice != DefaultAudioDevice {
		if _, err := strconv.Atoi(c.AudioDevice); err != nil {
			return fmt.Errorf("audio_device must be %q or a device index, got %q",
				DefaultAudioDevice, c.AudioDevice)
		}
	}
	if c.Sounds.Volume < 0 || c.Sounds.Volume > 100 {
		return fmt.Errorf("sounds.volume must be between 0 and 100, got %d", c.Sounds.Volume)
	}
	if c.Output.ToolTimeoutSeconds <= 0 {
		return fmt.Errorf("output.tool_timeout_seconds must be positive, got %d",
			c.Output.ToolTimeoutSeconds)
	}
	if c.ImproveText && c.Improve.TimeoutSeconds <= 0 {
		return fmt.Errorf("improve.timeout_seconds must be positive, got %d",
			c.Improve.TimeoutSeconds)
	}
	for _, name := range c.Output.CandidateOrder {
		switch name {
		case "inject-direct", "clipboard-paste", "inject-raw", "clipboard-only":
		default:
			return fmt.Errorf("output.candidate_order: unknown candidate %q", name)
		}
	}
	return nil
}

// DeviceIndex returns the configured audio device index,
// or -1 when the default device is selected.
func (c *Config) DeviceIndex() int {
	if c.AudioDevice == DefaultAudioDevice {
		return -1
	}
	idx, err := strconv.Atoi(c.AudioDevice)
	if err != nil {
		return -1
	}
	return idx
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}
