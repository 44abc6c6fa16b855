package stt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWhisperOutput_JSON(t *testing.T) {
	out := []byte(`{
		"result": {"language": "en"},
		"transcription": [
			{"text": " hello"},
			{"text": " world"}
		]
	}`)

	result := parseWhisperOutput(out, "auto")

	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, "en", result.Language)
}

func TestParseWhisperOutput_PlainTextFallback(t *testing.T) {
	result := parseWhisperOutput([]byte("  hello world\n"), "en")

	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, "en", result.Language)
}

func TestParseWhisperOutput_EmptyTranscription(t *testing.T) {
	out := []byte(`{"result": {"language": ""}, "transcription": []}`)

	result := parseWhisperOutput(out, "de")

	assert.Empty(t, result.Text)
	assert.Equal(t, "de", result.Language)
}

func TestWriteWAV_ClampsSamples(t *testing.T) {
	path := t.TempDir() + "/out.wav"

	err := writeWAV(path, []float32{0, 0.5, 2.0, -2.0})
	assert.NoError(t, err)
	assert.FileExists(t, path)
}
