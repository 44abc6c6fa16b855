// Package daemon provides the main orchestration for voxd.
// It owns the single-instance marker, wires the hotkey listener,
// audio capture, transcription, text improvement, and output delivery
// together, and drives the daemon lifecycle (run, start, stop, status).
package daemon
