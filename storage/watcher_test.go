package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForChange(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case _, ok := <-w.Changes():
		require.True(t, ok, "watcher stopped")
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled")
	}
}

func TestWatcherSignalsRecordChanges(t *testing.T) {
	store := newTestStore(t)
	w, err := Watch(store.Dir(), nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, store.Save("new_0.json", conversation()))
	waitForChange(t, w)

	// Let the burst from the write settle, then drain any pending signal.
	time.Sleep(50 * time.Millisecond)
	select {
	case <-w.Changes():
	default:
	}

	require.NoError(t, os.Remove(filepath.Join(store.Dir(), "new_0.json")))
	waitForChange(t, w)
}

func TestWatcherCloseStopsDelivery(t *testing.T) {
	store := newTestStore(t)
	w, err := Watch(store.Dir(), nil)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Changes()
	assert.False(t, ok)
}

func TestWatchMissingDirectory(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}
