package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ctrl+alt+space", cfg.Hotkey)
	assert.Equal(t, ModeToggle, cfg.Mode)
	assert.Equal(t, "base", cfg.Model)
	assert.Equal(t, "auto", cfg.Language)
	assert.Equal(t, OutputAuto, cfg.OutputMode)
	assert.True(t, cfg.SoundEffects)
	assert.False(t, cfg.SoftNewlines)
	assert.False(t, cfg.ImproveText)
	assert.Equal(t, 300, cfg.MaxRecordingSeconds)
	assert.Equal(t, "default", cfg.AudioDevice)
	assert.Equal(t, 80, cfg.Sounds.Volume)
	assert.Equal(t, 5, cfg.Output.ToolTimeoutSeconds)
	assert.True(t, cfg.Notifications.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Hotkey, cfg.Hotkey)
}

func TestLoad_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
hotkey = "ctrl+shift+d"
mode = "push-to-talk"
model = "small"
language = "de"
output_mode = "clipboard"
sound_effects = false
soft_newlines = true
improve_text = true
max_recording_seconds = 120
audio_device = "3"

[improve]
endpoint = "http://localhost:8080/v1"
model = "mistral"
timeout_seconds = 10

[output]
candidate_order = ["clipboard-paste", "clipboard-only"]
tool_timeout_seconds = 3

[sounds]
volume = 40

[notifications]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ctrl+shift+d", cfg.Hotkey)
	assert.Equal(t, ModePushToTalk, cfg.Mode)
	assert.Equal(t, "small", cfg.Model)
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, OutputClipboard, cfg.OutputMode)
	assert.False(t, cfg.SoundEffects)
	assert.True(t, cfg.SoftNewlines)
	assert.True(t, cfg.ImproveText)
	assert.Equal(t, 120, cfg.MaxRecordingSeconds)
	assert.Equal(t, 3, cfg.DeviceIndex())
	assert.Equal(t, "http://localhost:8080/v1", cfg.Improve.Endpoint)
	assert.Equal(t, "mistral", cfg.Improve.Model)
	assert.Equal(t, []string{"clipboard-paste", "clipboard-only"}, cfg.Output.CandidateOrder)
	assert.Equal(t, 3, cfg.Output.ToolTimeoutSeconds)
	assert.Equal(t, 40, cfg.Sounds.Volume)
	assert.False(t, cfg.Notifications.Enabled)
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
mode = "push-to-talk"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Changed field
	assert.Equal(t, ModePushToTalk, cfg.Mode)

	// Unchanged fields keep defaults
	assert.Equal(t, DefaultHotkey, cfg.Hotkey)
	assert.Equal(t, DefaultMaxSeconds, cfg.MaxRecordingSeconds)
	assert.True(t, cfg.SoundEffects)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty hotkey", func(c *Config) { c.Hotkey = "" }},
		{"bad mode", func(c *Config) { c.Mode = "hold" }},
		{"bad output mode", func(c *Config) { c.OutputMode = "typewriter" }},
		{"duration too low", func(c *Config) { c.MaxRecordingSeconds = 0 }},
		{"duration too high", func(c *Config) { c.MaxRecordingSeconds = 601 }},
		{"bad audio device", func(c *Config) { c.AudioDevice = "builtin-mic" }},
		{"volume too high", func(c *Config) { c.Sounds.Volume = 150 }},
		{"volume negative", func(c *Config) { c.Sounds.Volume = -1 }},
		{"zero tool timeout", func(c *Config) { c.Output.ToolTimeoutSeconds = 0 }},
		{"unknown candidate", func(c *Config) { c.Output.CandidateOrder = []string{"telepathy"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_RejectedNotClamped(t *testing.T) {
	// An out-of-range duration must fail loudly instead of being adjusted.
	cfg := DefaultConfig()
	cfg.MaxRecordingSeconds = 9999

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 9999, cfg.MaxRecordingSeconds)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
max_recording_seconds = 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "max_recording_seconds")
}

func TestDeviceIndex_Default(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, -1, cfg.DeviceIndex())
}
