package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeLog struct {
	mu   sync.Mutex
	sets [][]string
	ch   chan struct{}
}

func newChangeLog() *changeLog { return &changeLog{ch: make(chan struct{}, 16)} }

func (c *changeLog) record(files []string) {
	c.mu.Lock()
	c.sets = append(c.sets, files)
	c.mu.Unlock()
	c.ch <- struct{}{}
}

func (c *changeLog) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-c.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change set")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets[len(c.sets)-1]
}

func TestHandleEvent_DebouncesAndFilters(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "A.class")
	b := filepath.Join(dir, "B.class")
	txt := filepath.Join(dir, "notes.txt")
	for _, p := range []string{a, b, txt} {
		require.NoError(t, os.WriteFile(p, []byte{0xCA}, 0644))
	}

	log := newChangeLog()
	w, err := New(dir, WithDebounceDelay(20*time.Millisecond), WithOnChange(log.record))
	require.NoError(t, err)
	defer w.Stop()

	w.handleEvent(fsnotify.Event{Name: b, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: a, Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: a, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: txt, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: b, Op: fsnotify.Chmod})

	assert.Equal(t, []string{a, b}, log.wait(t))
}

func TestFlush_DropsVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	log := newChangeLog()
	w, err := New(dir, WithDebounceDelay(time.Hour), WithOnChange(log.record))
	require.NoError(t, err)
	defer w.Stop()

	kept := filepath.Join(dir, "Kept.class")
	require.NoError(t, os.WriteFile(kept, []byte{0xCA}, 0644))
	w.enqueue(filepath.Join(dir, "Gone.class"))
	w.enqueue(kept)
	w.flush()

	assert.Equal(t, []string{kept}, log.wait(t))
}

func TestRun_ReportsWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0755))

	log := newChangeLog()
	w, err := New(dir, WithDebounceDelay(50*time.Millisecond), WithOnChange(log.record))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the event loop a moment to start.
	time.Sleep(50 * time.Millisecond)
	path := filepath.Join(sub, "A.class")
	require.NoError(t, os.WriteFile(path, []byte{0xCA, 0xFE, 0xBA, 0xBE}, 0644))

	assert.Equal(t, []string{path}, log.wait(t))

	cancel()
	require.NoError(t, <-done)
}

func TestNew_ExcludedDirNotWatched(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "build"), 0755))

	w, err := New(dir, WithExcludeDir(func(p string) bool { return filepath.Base(p) == "build" }))
	require.NoError(t, err)
	defer w.Stop()
	assert.NotContains(t, w.fsWatcher.WatchList(), filepath.Join(dir, "build"))
	assert.Contains(t, w.fsWatcher.WatchList(), dir)
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestStop_Idempotent(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestStop_WaitsForRunningChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.class")
	require.NoError(t, os.WriteFile(path, []byte{0xCA}, 0644))

	started := make(chan struct{})
	release := make(chan struct{})
	w, err := New(dir, WithDebounceDelay(time.Hour), WithOnChange(func([]string) {
		close(started)
		<-release
	}))
	require.NoError(t, err)

	w.enqueue(path)
	go w.flush()
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- w.Stop() }()
	select {
	case <-stopped:
		t.Fatal("Stop returned while onChange was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after onChange finished")
	}
}

func TestFlush_AfterStopReportsNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.class")
	require.NoError(t, os.WriteFile(path, []byte{0xCA}, 0644))

	called := false
	w, err := New(dir, WithDebounceDelay(time.Hour), WithOnChange(func([]string) { called = true }))
	require.NoError(t, err)
	w.enqueue(path)
	require.NoError(t, w.Stop())
	w.flush()
	assert.False(t, called)
}
