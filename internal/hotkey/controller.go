// Package hotkey binds global hotkey events to recording session
// transitions.
package hotkey

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmylchreest/voxd/internal/config"
	"github.com/jmylchreest/voxd/internal/session"
)

// debounceWindow treats identical events closer than this as one.
const debounceWindow = 50 * time.Millisecond

// EventKind distinguishes press and release.
type EventKind int

// Hotkey event kinds.
const (
	Press EventKind = iota
	Release
)

// Event is one hotkey press or release.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Listener emits press/release events for the configured combination.
type Listener interface {
	// Start begins listening; events arrive on the returned channel
	// until Stop is called or ctx is cancelled.
	Start(ctx context.Context) (<-chan Event, error)
	// Stop ends listening and closes the event channel.
	Stop()
}

// Sessions is the slice of the session manager the controller drives.
type Sessions interface {
	State() session.State
	Start() error
	Stop()
}

// Controller translates hotkey events into session transitions
// according to the configured mode.
type Controller struct {
	mode     string
	sessions Sessions
	logger   *slog.Logger

	lastKind EventKind
	lastAt   time.Time
}

// NewController creates a controller for the given mode
// (config.ModeToggle or config.ModePushToTalk).
func NewController(mode string, sessions Sessions, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		mode:     mode,
		sessions: sessions,
		logger:   logger,
		lastKind: Release,
	}
}

// Run consumes events until the channel closes or ctx is cancelled.
func (c *Controller) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Handle(ev)
		}
	}
}

// Handle processes a single hotkey event.
func (c *Controller) Handle(ev Event) {
	if c.debounced(ev) {
		return
	}

	switch c.mode {
	case config.ModePushToTalk:
		c.handlePushToTalk(ev)
	default:
		c.handleToggle(ev)
	}
}

// handleToggle alternates start/stop on each qualifying press.
func (c *Controller) handleToggle(ev Event) {
	if ev.Kind != Press {
		return
	}

	if c.sessions.State() == session.StateRecording {
		c.sessions.Stop()
		return
	}

	c.startSession()
}

// handlePushToTalk starts on press and stops on the matching release.
// A release without an active recording is ignored.
func (c *Controller) handlePushToTalk(ev Event) {
	switch ev.Kind {
	case Press:
		c.startSession()
	case Release:
		c.sessions.Stop()
	}
}

func (c *Controller) startSession() {
	err := c.sessions.Start()
	if err == nil {
		return
	}
	if errors.Is(err, session.ErrSessionActive) {
		// A cycle is still in flight; the event is dropped, not queued.
		c.logger.Debug("hotkey ignored, session in flight")
		return
	}
	c.logger.Error("failed to start recording", "error", err)
}

// debounced reports whether the event repeats the previous one inside
// the debounce window. Underlying listeners can emit duplicates.
func (c *Controller) debounced(ev Event) bool {
	if ev.Kind == c.lastKind && ev.At.Sub(c.lastAt) < debounceWindow {
		return true
	}
	c.lastKind = ev.Kind
	c.lastAt = ev.At
	return false
}
