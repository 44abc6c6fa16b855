package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/jmylchreest/voxd/internal/capture"
)

// WhisperCLI transcribes audio using a local whisper.cpp binary.
type WhisperCLI struct {
	binPath   string
	modelPath string
	logger    *slog.Logger
}

// NewWhisperCLI creates a whisper.cpp engine for the named model.
// modelDir holds ggml model files; the binary is discovered on PATH and
// in common install locations.
func NewWhisperCLI(model, modelDir string, logger *slog.Logger) (*WhisperCLI, error) {
	if logger == nil {
		logger = slog.Default()
	}

	binPath := findWhisperBinary()
	if binPath == "" {
		return nil, fmt.Errorf("whisper.cpp binary not found, please install whisper.cpp")
	}

	modelPath := filepath.Join(modelDir, fmt.Sprintf("ggml-%s.bin", model))
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model %q not found at %s", model, modelPath)
	}

	return &WhisperCLI{
		binPath:   binPath,
		modelPath: modelPath,
		logger:    logger,
	}, nil
}

// Transcribe writes the samples to a temporary WAV file, runs the
// whisper binary on it, and parses the JSON transcript.
func (w *WhisperCLI) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	if len(samples) == 0 {
		return Result{Language: language}, nil
	}

	audioPath := filepath.Join(os.TempDir(), fmt.Sprintf("voxd_%d.wav", time.Now().UnixNano()))
	if err := writeWAV(audioPath, samples); err != nil {
		return Result{}, fmt.Errorf("%w: write audio: %v", ErrEngine, err)
	}
	defer func() { _ = os.Remove(audioPath) }()

	args := []string{
		"-m", w.modelPath,
		"-f", audioPath,
		"-oj",
		"--no-prints",
	}
	if language != "" && language != "auto" {
		args = append(args, "-l", language)
	}

	cmd := exec.CommandContext(ctx, w.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("%w: %v, stderr: %s", ErrEngine, err, stderr.String())
	}

	result := parseWhisperOutput(stdout.Bytes(), language)
	w.logger.Debug("transcription complete",
		"duration", time.Since(start), "chars", len(result.Text), "language", result.Language)
	return result, nil
}

// parseWhisperOutput decodes whisper.cpp's -oj JSON, falling back to
// treating the output as a plain transcript.
func parseWhisperOutput(out []byte, language string) Result {
	var parsed whisperOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Result{
			Text:     strings.TrimSpace(string(out)),
			Language: language,
		}
	}

	var text strings.Builder
	for _, seg := range parsed.Transcription {
		text.WriteString(seg.Text)
	}

	lang := parsed.Result.Language
	if lang == "" {
		lang = language
	}

	return Result{
		Text:     strings.TrimSpace(text.String()),
		Language: lang,
	}
}

// writeWAV encodes float32 samples as 16-bit mono PCM.
func writeWAV(path string, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, capture.SampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: capture.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// findWhisperBinary locates a whisper.cpp executable.
func findWhisperBinary() string {
	// whisper-cli is the current upstream name
	names := []string{"whisper-cli", "whisper-cpp", "whisper"}

	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	homeDir, _ := os.UserHomeDir()
	locations := []string{
		"/usr/local/bin",
		filepath.Join(homeDir, ".local", "bin"),
		filepath.Join(homeDir, "whisper.cpp"),
	}

	for _, loc := range locations {
		for _, name := range names {
			path := filepath.Join(loc, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// whisperOutput represents the JSON output from whisper.cpp.
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}
