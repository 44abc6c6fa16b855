package hotkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/voxd/internal/config"
	"github.com/jmylchreest/voxd/internal/session"
)

// fakeSessions tracks start/stop calls and mimics the manager's
// single-session rule.
type fakeSessions struct {
	state  session.State
	starts int
	stops  int
}

func (f *fakeSessions) State() session.State { return f.state }

func (f *fakeSessions) Start() error {
	if f.state != session.StateIdle {
		return session.ErrSessionActive
	}
	f.starts++
	f.state = session.StateRecording
	return nil
}

func (f *fakeSessions) Stop() {
	if f.state != session.StateRecording {
		return
	}
	f.stops++
	f.state = session.StateIdle
}

func press(at time.Time) Event   { return Event{Kind: Press, At: at} }
func release(at time.Time) Event { return Event{Kind: Release, At: at} }

func TestToggle_AlternatesStartStop(t *testing.T) {
	sessions := &fakeSessions{state: session.StateIdle}
	c := NewController(config.ModeToggle, sessions, nil)

	now := time.Now()
	c.Handle(press(now))
	assert.Equal(t, 1, sessions.starts)
	assert.Equal(t, session.StateRecording, sessions.state)

	c.Handle(press(now.Add(time.Second)))
	assert.Equal(t, 1, sessions.stops)
	assert.Equal(t, session.StateIdle, sessions.state)

	c.Handle(press(now.Add(2 * time.Second)))
	assert.Equal(t, 2, sessions.starts)
}

func TestToggle_IgnoresReleases(t *testing.T) {
	sessions := &fakeSessions{state: session.StateIdle}
	c := NewController(config.ModeToggle, sessions, nil)

	c.Handle(release(time.Now()))
	assert.Zero(t, sessions.starts)
	assert.Zero(t, sessions.stops)
}

func TestPushToTalk_PressStartsReleaseStops(t *testing.T) {
	sessions := &fakeSessions{state: session.StateIdle}
	c := NewController(config.ModePushToTalk, sessions, nil)

	now := time.Now()
	c.Handle(press(now))
	assert.Equal(t, 1, sessions.starts)

	c.Handle(release(now.Add(time.Second)))
	assert.Equal(t, 1, sessions.stops)
	assert.Equal(t, session.StateIdle, sessions.state)
}

func TestPushToTalk_ReleaseWithoutRecordingIgnored(t *testing.T) {
	sessions := &fakeSessions{state: session.StateIdle}
	c := NewController(config.ModePushToTalk, sessions, nil)

	c.Handle(release(time.Now()))
	assert.Zero(t, sessions.stops)
}

func TestDebounce_DuplicatePressIsOneEvent(t *testing.T) {
	sessions := &fakeSessions{state: session.StateIdle}
	c := NewController(config.ModeToggle, sessions, nil)

	now := time.Now()
	c.Handle(press(now))
	c.Handle(press(now.Add(10 * time.Millisecond)))

	// The duplicate must not act as the stop press of toggle mode.
	assert.Equal(t, 1, sessions.starts)
	assert.Zero(t, sessions.stops)
	assert.Equal(t, session.StateRecording, sessions.state)
}

func TestDebounce_DistinctEventsPass(t *testing.T) {
	sessions := &fakeSessions{state: session.StateIdle}
	c := NewController(config.ModePushToTalk, sessions, nil)

	now := time.Now()
	c.Handle(press(now))
	c.Handle(release(now.Add(20 * time.Millisecond)))

	// Press then release inside the window are different kinds and
	// must both be handled.
	assert.Equal(t, 1, sessions.starts)
	assert.Equal(t, 1, sessions.stops)
}

func TestStartWhileBusyLeavesSessionUntouched(t *testing.T) {
	sessions := &fakeSessions{state: session.StateTranscribing}
	c := NewController(config.ModeToggle, sessions, nil)

	c.Handle(press(time.Now()))

	assert.Zero(t, sessions.starts)
	assert.Equal(t, session.StateTranscribing, sessions.state)
}

func TestParseCombo(t *testing.T) {
	keys, err := parseCombo("Ctrl+Alt+Space")
	assert.NoError(t, err)
	assert.Equal(t, []string{"ctrl", "alt", "space"}, keys)

	_, err = parseCombo("ctrl++space")
	assert.Error(t, err)
}
