package internal

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	var fired atomic.Int32
	fw := NewFileWatcher(path, func() { fired.Add(1) })
	require.NoError(t, fw.Start())
	defer fw.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))
	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestFileWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	var fired atomic.Int32
	fw := NewFileWatcher(path, func() { fired.Add(1) })
	require.NoError(t, fw.Start())
	defer fw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestFileWatcherCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	fw := NewFileWatcher(path, func() {})
	require.NoError(t, fw.Start())
	require.NoError(t, fw.Close())
	require.NoError(t, fw.Close())
}
