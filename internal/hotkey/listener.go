package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// GohookListener captures the configured combination globally using the
// gohook event tap.
type GohookListener struct {
	mu      sync.Mutex
	combo   []string
	logger  *slog.Logger
	events  chan Event
	running bool
}

// NewGohookListener creates a listener for a combo string such as
// "ctrl+alt+space".
func NewGohookListener(combo string, logger *slog.Logger) (*GohookListener, error) {
	if logger == nil {
		logger = slog.Default()
	}

	keys, err := parseCombo(combo)
	if err != nil {
		return nil, err
	}

	return &GohookListener{
		combo:  keys,
		logger: logger,
	}, nil
}

// Start registers the hooks and begins the event tap.
func (l *GohookListener) Start(ctx context.Context) (<-chan Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil, fmt.Errorf("hotkey listener already running")
	}

	l.events = make(chan Event, 16)
	events := l.events

	hook.Register(hook.KeyDown, l.combo, func(e hook.Event) {
		l.emit(Event{Kind: Press, At: time.Now()})
	})

	// Key-up is matched on the terminal key alone: by the time it is
	// released the modifiers may already be up, so the full combo would
	// never match.
	terminal := l.combo[len(l.combo)-1]
	hook.Register(hook.KeyUp, []string{terminal}, func(e hook.Event) {
		l.emit(Event{Kind: Release, At: time.Now()})
	})

	tap := hook.Start()
	go func() {
		<-hook.Process(tap)
		l.mu.Lock()
		if l.running {
			l.running = false
			close(events)
		}
		l.mu.Unlock()
	}()

	go func() {
		<-ctx.Done()
		l.Stop()
	}()

	l.running = true
	l.logger.Info("hotkey listener started", "combo", strings.Join(l.combo, "+"))
	return events, nil
}

// Stop ends the event tap and closes the event channel.
func (l *GohookListener) Stop() {
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()

	if !running {
		return
	}
	hook.End()
}

// emit delivers an event without ever blocking the hook callback.
func (l *GohookListener) emit(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	select {
	case l.events <- ev:
	default:
		l.logger.Debug("hotkey event dropped, queue full")
	}
}

// parseCombo splits a combo string like "ctrl+alt+space" into the key
// names gohook expects.
func parseCombo(combo string) ([]string, error) {
	parts := strings.Split(strings.ToLower(combo), "+")

	var keys []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("invalid hotkey combo %q", combo)
		}
		keys = append(keys, p)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("invalid hotkey combo %q", combo)
	}
	return keys, nil
}
