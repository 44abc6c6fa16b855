// Package session implements the recording session state machine that
// governs one hotkey-to-text cycle.
package session

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// State is the recording session state.
type State int

// Session states. A session is created on the recording-start event and
// destroyed when it returns to Idle.
const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
	StateDelivering
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateDelivering:
		return "delivering"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// stopReason records what ended the recording phase.
type stopReason int

const (
	stopManual stopReason = iota
	stopWatchdog
)

// Session is one hotkey-to-text cycle. At most one exists at a time.
type Session struct {
	ID        ulid.ULID
	StartedAt time.Time

	buffer   *Buffer
	watchdog *time.Timer

	ctx    context.Context
	cancel context.CancelFunc

	// closed when the frame collector has drained the capture channel
	collectorDone chan struct{}
}
