package sound

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCuePathPrefersOggOverWav(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "start.ogg"))
	touch(t, filepath.Join(dir, "start.wav"))

	n := NewNotifier(dir, true, 80, nil, nil)
	assert.Equal(t, filepath.Join(dir, "start.ogg"), n.cuePath(EventStart))
}

func TestCuePathFallsBackThroughExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "error.mp3"))

	n := NewNotifier(dir, true, 80, nil, nil)
	assert.Equal(t, filepath.Join(dir, "error.mp3"), n.cuePath(EventError))
}

func TestCuePathMissingFile(t *testing.T) {
	n := NewNotifier(t.TempDir(), true, 80, nil, nil)
	assert.Empty(t, n.cuePath(EventComplete))
}

func TestCuePathsListsOnlyPresentFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "ready.ogg"))
	touch(t, filepath.Join(dir, "shutdown.wav"))

	n := NewNotifier(dir, true, 80, nil, nil)
	paths := n.CuePaths()
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "ready.ogg"),
		filepath.Join(dir, "shutdown.wav"),
	}, paths)
}

func TestEveryEventHasNotificationText(t *testing.T) {
	for _, ev := range []Event{
		EventReady, EventStart, EventStop, EventComplete,
		EventWarning, EventError, EventShutdown,
	} {
		msg, ok := messages[ev]
		assert.True(t, ok, "missing message for %s", ev)
		assert.NotEmpty(t, msg.summary)
		assert.NotEmpty(t, msg.body)
	}
}
