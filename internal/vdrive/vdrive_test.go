package vdrive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/events"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.EqualValues(t, defaultMmapThresholdBytes, opts.MmapThresholdBytes)
	assert.Equal(t, defaultMmapCacheCapacity, opts.MmapCacheCapacity)
}

func TestOptionsWithDefaultsFillsZeroValues(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.EqualValues(t, defaultMmapThresholdBytes, opts.MmapThresholdBytes)
	assert.Equal(t, defaultMmapCacheCapacity, opts.MmapCacheCapacity)
}

func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestReadHandleCacheServesFullAndPartialReads(t *testing.T) {
	dir := t.TempDir()
	content := []byte("the quick brown fox jumps over the lazy dog")
	path := writeTestFile(t, dir, "img.png", content)

	rc, err := newReadHandleCache(8, 1<<20)
	require.NoError(t, err)

	h, err := rc.open(path)
	require.NoError(t, err)

	buf := make([]byte, len(content))
	n, err := h.ReadAt(0, buf)
	require.NoError(t, err)
	assert.Equal(t, content, buf[:n])

	buf2 := make([]byte, 5)
	n2, err := h.ReadAt(4, buf2)
	require.NoError(t, err)
	assert.Equal(t, "quick", string(buf2[:n2]))
}

func TestReadHandleCacheClipsOutOfRangeReads(t *testing.T) {
	dir := t.TempDir()
	content := []byte("short")
	path := writeTestFile(t, dir, "img.png", content)

	rc, err := newReadHandleCache(8, 1<<20)
	require.NoError(t, err)
	h, err := rc.open(path)
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := h.ReadAt(3, buf)
	require.NoError(t, err)
	assert.Equal(t, "rt", string(buf[:n]))

	n, err = h.ReadAt(100, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReadHandleCacheUsesPositionalReadsAboveThreshold(t *testing.T) {
	dir := t.TempDir()
	content := []byte("small file, but threshold forces positional reads")
	path := writeTestFile(t, dir, "img.png", content)

	// threshold of 1 byte forces every non-empty file onto the file
	// backend instead of mmap.
	rc, err := newReadHandleCache(8, 1)
	require.NoError(t, err)
	h, err := rc.open(path)
	require.NoError(t, err)

	buf := make([]byte, len(content))
	n, err := h.ReadAt(0, buf)
	require.NoError(t, err)
	assert.Equal(t, content, buf[:n])
}

func TestReadHandleCacheReusesHandleForSamePath(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "img.png", []byte("data"))

	rc, err := newReadHandleCache(8, 1<<20)
	require.NoError(t, err)

	h1, err := rc.open(path)
	require.NoError(t, err)
	h2, err := rc.open(path)
	require.NoError(t, err)
	assert.Same(t, h1, h2)
}

func TestReadHandleCacheEvictionClosesHandle(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTestFile(t, dir, "a.png", []byte("aaaa"))
	pathB := writeTestFile(t, dir, "b.png", []byte("bbbb"))

	rc, err := newReadHandleCache(1, 1<<20)
	require.NoError(t, err)

	hA, err := rc.open(pathA)
	require.NoError(t, err)
	_, err = rc.open(pathB)
	require.NoError(t, err)

	// hA should have been evicted and closed (Close releases its
	// backend); a fresh open for the same path must produce a new handle
	// rather than the evicted one.
	hAAgain, err := rc.open(pathA)
	require.NoError(t, err)
	assert.NotSame(t, hA, hAAgain)
}

func TestOpsContextPublishesGenericEvents(t *testing.T) {
	b := events.New(0)
	defer b.Close()
	sub := b.Subscribe(events.Generic)
	defer sub.Unsubscribe()

	var notified []string
	ctx := newOpsContext(b, notifierFunc(func(p string) { notified = append(notified, p) }))

	ctx.AlbumsCreated("Trip")

	select {
	case ev := <-sub.Events():
		payload := ev.Payload.(map[string]any)
		assert.Equal(t, "AlbumsCreated", payload["event"])
		inner := payload["payload"].(map[string]any)
		assert.Equal(t, "Trip", inner["album_name"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Generic event")
	}
	assert.Equal(t, []string{"/"}, notified)
}

type notifierFunc func(string)

func (f notifierFunc) NotifyDirChanged(path string) { f(path) }
