// Package sound provides audio cue playback for session events.
// It uses the beep library to play WAV, OGG, and MP3 cue files with
// a decode cache and volume control, and pairs each cue with an
// optional desktop notification.
package sound
