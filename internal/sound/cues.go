package sound

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Event identifies an audio cue.
type Event string

// Cue events, one per user-visible session or daemon transition.
const (
	EventReady    Event = "ready"
	EventStart    Event = "start"
	EventStop     Event = "stop"
	EventComplete Event = "complete"
	EventWarning  Event = "warning"
	EventError    Event = "error"
	EventShutdown Event = "shutdown"
)

// cue file extensions searched in order.
var cueExtensions = []string{".ogg", ".wav", ".mp3"}

// message holds the desktop notification text paired with a cue.
type message struct {
	summary string
	body    string
}

var messages = map[Event]message{
	EventReady:    {"voxd", "Ready for voice input"},
	EventStart:    {"voxd", "Recording..."},
	EventStop:     {"voxd", "Recording stopped"},
	EventComplete: {"voxd", "Text delivered"},
	EventWarning:  {"voxd", "No speech detected"},
	EventError:    {"voxd", "Error"},
	EventShutdown: {"voxd", "Daemon stopped"},
}

// DesktopNotifier sends desktop notifications alongside cues.
type DesktopNotifier interface {
	Send(summary, body string, critical bool) error
}

// Notifier plays audio cues and mirrors them as desktop notifications.
// All playback is fire-and-forget: Play never blocks the caller on the
// audio device or the notification bus.
type Notifier struct {
	player  *Player
	desktop DesktopNotifier
	dir     string
	sounds  bool
	logger  *slog.Logger
}

// NewNotifier creates a cue notifier.
// dir is the directory holding per-event sound files (<event>.ogg etc).
// desktop may be nil when desktop notifications are disabled.
func NewNotifier(dir string, sounds bool, volume int, desktop DesktopNotifier, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)
	player.SetVolume(float64(volume) / 100.0)

	return &Notifier{
		player:  player,
		desktop: desktop,
		dir:     dir,
		sounds:  sounds,
		logger:  logger,
	}
}

// Play plays the cue for the given event and sends its companion
// notification. Failures are logged, never returned.
func (n *Notifier) Play(ev Event) {
	go func() {
		if n.sounds {
			if path := n.cuePath(ev); path != "" {
				if err := n.player.Play(path); err != nil {
					n.logger.Debug("cue playback failed", "event", ev, "error", err)
				}
			} else {
				n.logger.Debug("no cue file for event", "event", ev)
			}
		}

		if n.desktop != nil {
			msg, ok := messages[ev]
			if !ok {
				return
			}
			critical := ev == EventError || ev == EventWarning
			if err := n.desktop.Send(msg.summary, msg.body, critical); err != nil {
				n.logger.Debug("desktop notification failed", "event", ev, "error", err)
			}
		}
	}()
}

// Preload warms the decode cache for every cue file present.
func (n *Notifier) Preload() {
	if !n.sounds {
		return
	}
	for ev := range messages {
		if path := n.cuePath(ev); path != "" {
			if err := n.player.Preload(path); err != nil {
				n.logger.Warn("failed to preload cue", "event", ev, "error", err)
			}
		}
	}
}

// CuePaths returns the resolved cue files, for cache watching.
func (n *Notifier) CuePaths() []string {
	var paths []string
	for ev := range messages {
		if path := n.cuePath(ev); path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

// Invalidate drops a cached decode, forcing a reload on next play.
func (n *Notifier) Invalidate(path string) {
	n.player.InvalidateCache(path)
}

// Close releases the audio device.
func (n *Notifier) Close() {
	n.player.Close()
}

// cuePath resolves the sound file for an event, trying each supported
// extension in order. Returns "" when no file exists.
func (n *Notifier) cuePath(ev Event) string {
	for _, ext := range cueExtensions {
		path := filepath.Join(n.dir, string(ev)+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
