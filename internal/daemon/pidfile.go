package daemon

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning is returned when a live daemon instance holds the
// marker file.
var ErrAlreadyRunning = errors.New("daemon is already running")

// ErrNotRunning is returned when no live daemon instance exists.
var ErrNotRunning = errors.New("daemon is not running")

// Marker describes the contents of the single-instance marker file.
type Marker struct {
	PID       int
	StartedAt time.Time
}

// ReadMarker parses the marker file at path.
// Returns os.ErrNotExist when no marker is present.
func ReadMarker(path string) (Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Marker{}, err
	}

	lines := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Marker{}, fmt.Errorf("corrupt marker %s: %w", path, err)
	}

	m := Marker{PID: pid}
	if len(lines) == 2 {
		if unix, err := strconv.ParseInt(strings.TrimSpace(lines[1]), 10, 64); err == nil {
			m.StartedAt = time.Unix(unix, 0)
		}
	}
	return m, nil
}

// ClaimMarker atomically creates the marker file for the current
// process. A marker left behind by a dead process is removed and the
// claim retried once; a marker owned by a live process yields
// ErrAlreadyRunning.
func ClaimMarker(path string) error {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n%d\n", os.Getpid(), time.Now().Unix())
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				_ = os.Remove(path)
				return fmt.Errorf("write marker %s: %w", path, werr)
			}
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create marker %s: %w", path, err)
		}

		m, rerr := ReadMarker(path)
		if rerr == nil && processAlive(m.PID) {
			return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, m.PID)
		}

		// Stale or unreadable marker from a crashed instance.
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			return fmt.Errorf("remove stale marker %s: %w", path, rerr)
		}
	}
	return fmt.Errorf("%w: marker %s contested", ErrAlreadyRunning, path)
}

// ReleaseMarker removes the marker file. Missing markers are not an
// error.
func ReleaseMarker(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// processAlive reports whether a process with the given pid exists.
// Signal 0 performs the existence check without delivering anything;
// EPERM still means the process exists.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
