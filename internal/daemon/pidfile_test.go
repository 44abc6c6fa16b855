package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markerIn(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "voxd.pid")
}

func TestClaimAndReleaseMarker(t *testing.T) {
	path := markerIn(t)

	require.NoError(t, ClaimMarker(path))

	m, err := ReadMarker(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), m.PID)
	assert.WithinDuration(t, time.Now(), m.StartedAt, 5*time.Second)

	require.NoError(t, ReleaseMarker(path))
	_, err = ReadMarker(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClaimMarkerRejectsLiveOwner(t *testing.T) {
	path := markerIn(t)

	// Our own pid is trivially alive.
	require.NoError(t, ClaimMarker(path))
	err := ClaimMarker(path)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestClaimMarkerReplacesStaleMarker(t *testing.T) {
	path := markerIn(t)

	// Pid 1 is init and alive, so use an impossible pid instead.
	require.NoError(t, os.WriteFile(path, []byte("999999999\n0\n"), 0o644))

	require.NoError(t, ClaimMarker(path))
	m, err := ReadMarker(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), m.PID)
}

func TestClaimMarkerReplacesCorruptMarker(t *testing.T) {
	path := markerIn(t)
	require.NoError(t, os.WriteFile(path, []byte("not a pid\n"), 0o644))

	require.NoError(t, ClaimMarker(path))
	m, err := ReadMarker(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), m.PID)
}

func TestReadMarkerWithoutStartTime(t *testing.T) {
	path := markerIn(t)
	require.NoError(t, os.WriteFile(path, []byte("1234\n"), 0o644))

	m, err := ReadMarker(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, m.PID)
	assert.True(t, m.StartedAt.IsZero())
}

func TestReleaseMarkerMissingIsNoError(t *testing.T) {
	assert.NoError(t, ReleaseMarker(markerIn(t)))
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
	assert.False(t, processAlive(999999999))
	assert.False(t, processAlive(0))
	assert.False(t, processAlive(-1))
}
