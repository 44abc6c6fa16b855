package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/voxd/internal/capture"
	"github.com/jmylchreest/voxd/internal/config"
	"github.com/jmylchreest/voxd/internal/hotkey"
	"github.com/jmylchreest/voxd/internal/improve"
	"github.com/jmylchreest/voxd/internal/notify"
	"github.com/jmylchreest/voxd/internal/output"
	"github.com/jmylchreest/voxd/internal/session"
	"github.com/jmylchreest/voxd/internal/sound"
	"github.com/jmylchreest/voxd/internal/stt"
)

const (
	startupTimeout  = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// LifecycleState is the in-process daemon lifecycle state.
type LifecycleState int

// Lifecycle states, in transition order.
const (
	LifecycleStopped LifecycleState = iota
	LifecycleStarting
	LifecycleReady
	LifecycleRunning
	LifecycleStopping
)

// String returns the lowercase state name.
func (s LifecycleState) String() string {
	switch s {
	case LifecycleStopped:
		return "stopped"
	case LifecycleStarting:
		return "starting"
	case LifecycleReady:
		return "ready"
	case LifecycleRunning:
		return "running"
	case LifecycleStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Manager drives the daemon lifecycle: run in the foreground, launch a
// background instance, stop a running instance, and report status.
type Manager struct {
	cfg        *config.Config
	cfgPath    string
	markerPath string
	logger     *slog.Logger

	mu    sync.Mutex
	state LifecycleState
}

// New creates a daemon manager. cfgPath is the config file the daemon
// was loaded from and is forwarded to background instances; it may be
// empty for the default location.
func New(cfg *config.Config, cfgPath string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:        cfg,
		cfgPath:    cfgPath,
		markerPath: config.MarkerPath(),
		logger:     logger,
	}
}

// State returns the in-process lifecycle state.
func (m *Manager) State() LifecycleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s LifecycleState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.logger.Debug("lifecycle state", "state", s.String())
}

// Run starts the daemon in the foreground and blocks until ctx is
// cancelled. It claims the single-instance marker, wires all
// components, and tears them down in order on shutdown.
func (m *Manager) Run(ctx context.Context) error {
	m.setState(LifecycleStarting)
	defer m.setState(LifecycleStopped)

	if err := ClaimMarker(m.markerPath); err != nil {
		return err
	}
	defer func() {
		if err := ReleaseMarker(m.markerPath); err != nil {
			m.logger.Warn("failed to release marker", "path", m.markerPath, "error", err)
		}
	}()

	if err := config.EnsureDataDir(); err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}

	var desktop sound.DesktopNotifier
	if m.cfg.Notifications.Enabled {
		sender, err := notify.NewSender(m.logger)
		if err != nil {
			m.logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			desktop = sender
			defer sender.Close()
		}
	}

	cues := sound.NewNotifier(m.cfg.SoundsPath(), m.cfg.SoundEffects, m.cfg.Sounds.Volume, desktop, m.logger)
	defer cues.Close()
	cues.Preload()

	watcher := sound.NewWatcher(cues, m.logger)
	watcher.Start(ctx)
	defer watcher.Stop()

	engine, err := stt.NewWhisperCLI(m.cfg.Model, config.ModelsPath(), m.logger)
	if err != nil {
		return fmt.Errorf("transcription engine: %w", err)
	}

	recorder := capture.NewPortAudioRecorder(m.cfg.DeviceIndex(), m.logger)

	var improver session.Improver
	if m.cfg.ImproveText {
		improver = improve.NewChatImprover(improve.Config{
			Endpoint: m.cfg.Improve.Endpoint,
			APIKey:   m.cfg.Improve.APIKey,
			Model:    m.cfg.Improve.Model,
			Timeout:  time.Duration(m.cfg.Improve.TimeoutSeconds) * time.Second,
		}, m.logger)
	}

	dispatcher := output.NewDispatcher(output.Config{
		Mode:           m.cfg.OutputMode,
		SoftNewlines:   m.cfg.SoftNewlines,
		CandidateOrder: m.cfg.Output.CandidateOrder,
		ToolTimeout:    time.Duration(m.cfg.Output.ToolTimeoutSeconds) * time.Second,
	}, m.logger)

	sessions := session.NewManager(session.Config{
		MaxDuration: time.Duration(m.cfg.MaxRecordingSeconds) * time.Second,
		Language:    m.cfg.Language,
		ImproveText: m.cfg.ImproveText,
	}, session.Deps{
		Recorder:   recorder,
		Engine:     engine,
		Improver:   improver,
		Dispatcher: dispatcher,
		Cues:       cues,
		Logger:     m.logger,
	})

	listener, err := hotkey.NewGohookListener(m.cfg.Hotkey, m.logger)
	if err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}
	events, err := listener.Start(ctx)
	if err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}
	defer listener.Stop()

	controller := hotkey.NewController(m.cfg.Mode, sessions, m.logger)
	go controller.Run(ctx, events)

	m.setState(LifecycleReady)
	m.logger.Info("daemon ready",
		"pid", os.Getpid(),
		"hotkey", m.cfg.Hotkey,
		"mode", m.cfg.Mode,
		"model", m.cfg.Model)
	cues.Play(sound.EventReady)
	m.setState(LifecycleRunning)

	<-ctx.Done()

	m.setState(LifecycleStopping)
	m.logger.Info("shutting down")
	sessions.Abort()
	cues.Play(sound.EventShutdown)
	// Give the shutdown cue a moment on the audio device before Close.
	time.Sleep(300 * time.Millisecond)
	return nil
}

// StartBackground launches a detached daemon instance by re-executing
// the current binary with the run command, then waits for it to claim
// the marker. Returns the new daemon's pid.
func (m *Manager) StartBackground() (int, error) {
	if marker, err := ReadMarker(m.markerPath); err == nil && processAlive(marker.PID) {
		return 0, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, marker.PID)
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable: %w", err)
	}

	args := []string{"run"}
	if m.cfgPath != "" {
		args = append(args, "--config", m.cfgPath)
	}

	var stderr bytes.Buffer
	cmd := exec.Command(exe, args...)
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn daemon: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		select {
		case err := <-done:
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = "no output"
			}
			return 0, fmt.Errorf("daemon exited during startup (%v): %s", err, msg)
		case <-time.After(100 * time.Millisecond):
		}

		marker, err := ReadMarker(m.markerPath)
		if err == nil && marker.PID == cmd.Process.Pid {
			return cmd.Process.Pid, nil
		}
	}

	_ = cmd.Process.Kill()
	return 0, fmt.Errorf("daemon did not become ready within %s", startupTimeout)
}

// Stop terminates a running daemon instance with SIGTERM and waits for
// it to exit. Returns ErrNotRunning when no live instance exists; a
// stale marker is cleaned up on the way.
func (m *Manager) Stop() error {
	marker, err := ReadMarker(m.markerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotRunning
		}
		return err
	}
	if !processAlive(marker.PID) {
		_ = ReleaseMarker(m.markerPath)
		return ErrNotRunning
	}

	if err := syscall.Kill(marker.PID, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal pid %d: %w", marker.PID, err)
	}

	deadline := time.Now().Add(shutdownTimeout)
	for time.Now().Before(deadline) {
		if !processAlive(marker.PID) {
			_ = ReleaseMarker(m.markerPath)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit within %s", marker.PID, shutdownTimeout)
}

// Status describes a daemon instance as seen from the marker file.
type Status struct {
	Running bool
	PID     int
	Uptime  string
}

// Status reports whether a daemon instance is running. A stale marker
// left by a crashed instance is removed.
func (m *Manager) Status() (Status, error) {
	marker, err := ReadMarker(m.markerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Status{}, nil
		}
		return Status{}, err
	}
	if !processAlive(marker.PID) {
		_ = ReleaseMarker(m.markerPath)
		return Status{}, nil
	}

	s := Status{Running: true, PID: marker.PID}
	if !marker.StartedAt.IsZero() {
		s.Uptime = humanize.Time(marker.StartedAt)
	}
	return s, nil
}
