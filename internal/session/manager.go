package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/voxd/internal/capture"
	"github.com/jmylchreest/voxd/internal/output"
	"github.com/jmylchreest/voxd/internal/sound"
	"github.com/jmylchreest/voxd/internal/stt"
)

// ErrSessionActive is returned when a recording start arrives while a
// session is already in flight.
var ErrSessionActive = errors.New("a recording session is already active")

// Dispatcher delivers finalized text to the focused application.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string) (output.Outcome, error)
}

// Improver optionally rewrites transcribed text. Errors degrade to the
// raw text.
type Improver interface {
	Improve(ctx context.Context, text string) (string, error)
}

// Cues plays fire-and-forget audio feedback.
type Cues interface {
	Play(ev sound.Event)
}

// Config holds the session-relevant configuration.
type Config struct {
	MaxDuration time.Duration
	Language    string
	ImproveText bool
}

// Deps are the collaborators a Manager drives.
type Deps struct {
	Recorder   capture.Recorder
	Engine     stt.Engine
	Improver   Improver // may be nil
	Dispatcher Dispatcher
	Cues       Cues
	Logger     *slog.Logger
}

// Manager serializes all session transitions: at most one session is in
// flight, concurrent starts are rejected, and the watchdog and a manual
// stop race safely.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	deps    Deps
	entropy *ulid.MonotonicEntropy

	state  State
	active *Session
}

// NewManager creates a session manager.
func NewManager(cfg Config, deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		deps:    deps,
		entropy: ulid.Monotonic(rand.Reader, 0),
		state:   StateIdle,
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins a new recording session.
// Returns ErrSessionActive when any session is in flight; the existing
// session is left untouched.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return ErrSessionActive
	}

	ctx, cancel := context.WithCancel(context.Background())

	frames, err := m.deps.Recorder.Start(ctx)
	if err != nil {
		cancel()
		m.deps.Cues.Play(sound.EventError)
		return fmt.Errorf("open capture device: %w", err)
	}

	id, err := ulid.New(ulid.Timestamp(time.Now()), m.entropy)
	if err != nil {
		cancel()
		_ = m.deps.Recorder.Stop()
		return fmt.Errorf("generate session id: %w", err)
	}

	s := &Session{
		ID:            id,
		StartedAt:     time.Now(),
		buffer:        NewBuffer(),
		ctx:           ctx,
		cancel:        cancel,
		collectorDone: make(chan struct{}),
	}

	// The buffer is exclusively owned by this session; the collector is
	// its only writer.
	go func() {
		defer close(s.collectorDone)
		for frame := range frames {
			s.buffer.Append(frame)
		}
	}()

	s.watchdog = time.AfterFunc(m.cfg.MaxDuration, func() {
		m.stop(stopWatchdog, s.ID)
	})

	m.active = s
	m.state = StateRecording

	m.deps.Cues.Play(sound.EventStart)
	m.deps.Logger.Info("recording started", "session", s.ID.String())
	return nil
}

// Stop ends the recording phase and starts transcription.
// A stop while no recording is active (including while a previous stop
// is already transcribing) is a no-op.
func (m *Manager) Stop() {
	m.stop(stopManual, ulid.ULID{})
}

// stop moves Recording to Transcribing. The watchdog passes its session
// id so a timer that fires late, after its session already ended, is
// ignored; whichever of watchdog and manual stop arrives first wins.
func (m *Manager) stop(reason stopReason, watchdogID ulid.ULID) {
	m.mu.Lock()
	if m.state != StateRecording || m.active == nil {
		m.mu.Unlock()
		return
	}
	if reason == stopWatchdog && m.active.ID != watchdogID {
		m.mu.Unlock()
		return
	}

	s := m.active
	s.watchdog.Stop()
	m.state = StateTranscribing
	m.mu.Unlock()

	_ = m.deps.Recorder.Stop()
	<-s.collectorDone

	m.deps.Cues.Play(sound.EventStop)
	m.deps.Logger.Info("recording stopped",
		"session", s.ID.String(),
		"reason", map[stopReason]string{stopManual: "manual", stopWatchdog: "watchdog"}[reason],
		"audio", s.buffer.Duration())

	go m.pipeline(s)
}

// pipeline runs transcription, optional improvement, and dispatch for a
// stopped session. It runs off the hotkey path so stop requests during
// transcription are still accepted (as no-ops).
func (m *Manager) pipeline(s *Session) {
	result, err := m.deps.Engine.Transcribe(s.ctx, s.buffer.Samples(), m.cfg.Language)
	if err != nil {
		m.fail(s, fmt.Errorf("transcribe: %w", err))
		return
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		// No speech: skip dispatch entirely, not an error.
		m.deps.Logger.Info("empty transcription, nothing to deliver", "session", s.ID.String())
		m.deps.Cues.Play(sound.EventWarning)
		m.finish(s)
		return
	}

	if m.cfg.ImproveText && m.deps.Improver != nil {
		improved, err := m.deps.Improver.Improve(s.ctx, text)
		if err != nil {
			// Improvement failure degrades to the raw text.
			m.deps.Logger.Warn("text improvement failed, using raw text",
				"session", s.ID.String(), "error", err)
		} else if improved != "" {
			text = improved
		}
	}

	if !m.transition(s, StateTranscribing, StateDelivering) {
		return // aborted meanwhile
	}

	outcome, err := m.deps.Dispatcher.Dispatch(s.ctx, text)
	if err != nil {
		m.fail(s, fmt.Errorf("dispatch: %w", err))
		return
	}

	m.deps.Logger.Info("text delivered",
		"session", s.ID.String(), "method", string(outcome.Method), "chars", len(text))
	m.deps.Cues.Play(sound.EventComplete)
	m.finish(s)
}

// transition atomically moves the active session between pipeline
// states. Returns false when the session is no longer active.
func (m *Manager) transition(s *Session, from, to State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != s || m.state != from {
		return false
	}
	m.state = to
	return true
}

// finish destroys the session and returns to Idle.
func (m *Manager) finish(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != s {
		return
	}
	s.cancel()
	s.buffer.Discard()
	m.active = nil
	m.state = StateIdle
}

// fail records an unrecoverable session error, passes through Error,
// and returns to Idle ready for the next hotkey. The daemon survives.
func (m *Manager) fail(s *Session, err error) {
	m.mu.Lock()
	if m.active != s {
		m.mu.Unlock()
		return
	}
	m.state = StateError
	m.mu.Unlock()

	aborted := s.ctx.Err() != nil
	if aborted {
		m.deps.Logger.Info("session aborted", "session", s.ID.String())
	} else {
		m.deps.Logger.Error("session failed", "session", s.ID.String(), "error", err)
		m.deps.Cues.Play(sound.EventError)
	}

	m.finish(s)
}

// Abort forcibly terminates any in-flight session: the buffer is
// discarded and in-flight transcription or delivery is abandoned.
// Used during daemon shutdown.
func (m *Manager) Abort() {
	m.mu.Lock()
	s := m.active
	wasRecording := m.state == StateRecording
	m.mu.Unlock()

	if s == nil {
		return
	}

	s.watchdog.Stop()
	s.cancel()
	if wasRecording {
		_ = m.deps.Recorder.Stop()
		<-s.collectorDone
	}

	m.mu.Lock()
	if m.active == s {
		s.buffer.Discard()
		m.active = nil
		m.state = StateIdle
	}
	m.mu.Unlock()

	m.deps.Logger.Info("session aborted by shutdown", "session", s.ID.String())
}
