// Package stt provides the speech-to-text engine interface and the
// local whisper.cpp implementation.
package stt

import (
	"context"
	"errors"
)

// ErrEngine indicates the recognition engine failed.
var ErrEngine = errors.New("speech recognition failed")

// Result holds the outcome of a transcription.
type Result struct {
	Text     string // Recognized text, possibly empty
	Language string // Language used or detected
}

// Engine converts captured audio to text.
type Engine interface {
	// Transcribe recognizes speech in the given PCM samples (16 kHz mono
	// float32). language is a code or "auto" for detection. Empty input
	// yields an empty Result, not an error.
	Transcribe(ctx context.Context, samples []float32, language string) (Result, error)
}
