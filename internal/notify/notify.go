// Package notify sends desktop notifications over the
// org.freedesktop.Notifications D-Bus interface.
package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	dbusInterface = "org.freedesktop.Notifications"
	dbusPath      = "/org/freedesktop/Notifications"

	appName       = "voxd"
	expireTimeout = int32(2000) // milliseconds
)

// Urgency levels per the notification spec.
const (
	urgencyLow      = byte(0)
	urgencyCritical = byte(2)
)

// Sender delivers desktop notifications on the session bus.
// Sends are best-effort: a missing bus or daemon disables them silently.
type Sender struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	logger *slog.Logger

	// Replaces the previous notification instead of stacking them.
	lastID uint32
}

// NewSender connects to the session bus.
// Returns an error when no session bus is available.
func NewSender(logger *slog.Logger) (*Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	return &Sender{conn: conn, logger: logger}, nil
}

// Send delivers a notification. Critical events get critical urgency,
// everything else low urgency so routine cues stay unobtrusive.
func (s *Sender) Send(summary, body string, critical bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	urgency := urgencyLow
	if critical {
		urgency = urgencyCritical
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgency),
	}

	obj := s.conn.Object(dbusInterface, dbusPath)
	call := obj.Call(dbusInterface+".Notify", 0,
		appName, s.lastID, "", summary, body, []string{}, hints, expireTimeout)
	if call.Err != nil {
		return fmt.Errorf("notify call: %w", call.Err)
	}

	if err := call.Store(&s.lastID); err != nil {
		return fmt.Errorf("decode notification id: %w", err)
	}

	return nil
}

// Close releases the bus connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
