package ipc_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/events"
	"github.com/kabegame/kabegame-sub003/internal/ipc"
	"github.com/kabegame/kabegame-sub003/internal/provider"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/subscription"
)

func openTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kabegame.db")
	s, err := storage.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fakeDedupe struct {
	started   bool
	cancelled bool
}

func (f *fakeDedupe) Start(deleteFiles bool, batchSize int) error { f.started = true; return nil }
func (f *fakeDedupe) Cancel() bool                                { f.cancelled = true; return true }

func newTestDispatcher(t *testing.T) (*ipc.Dispatcher, *storage.Storage, *fakeDedupe) {
	t.Helper()
	s := openTestStorage(t)
	rt, err := provider.NewRuntime(provider.NewFactory(s, nil), 64)
	require.NoError(t, err)
	subs := subscription.New(events.New(0))
	dd := &fakeDedupe{}
	return ipc.NewDispatcher(s, rt, subs, dd, events.New(0)), s, dd
}

func TestDispatchStatus(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	resp := d.Dispatch("client-1", ipc.Request{Type: ipc.ReqStatus})
	assert.True(t, resp.OK)
}

func TestDispatchAddAndGetAlbums(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	params, err := json.Marshal(map[string]string{"name": "Trip"})
	require.NoError(t, err)
	resp := d.Dispatch("client-1", ipc.Request{Type: ipc.ReqAddAlbum, Params: params})
	require.True(t, resp.OK, resp.Message)

	resp = d.Dispatch("client-1", ipc.Request{Type: ipc.ReqGetAlbums})
	require.True(t, resp.OK)
}

func TestDispatchUnknownRequestType(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	resp := d.Dispatch("client-1", ipc.Request{Type: "NoSuchThing"})
	assert.False(t, resp.OK)
}

func TestDispatchStartAndCancelDedupe(t *testing.T) {
	d, _, dd := newTestDispatcher(t)

	resp := d.Dispatch("client-1", ipc.Request{Type: ipc.ReqStartDedupe})
	require.True(t, resp.OK)
	assert.True(t, dd.started)

	resp = d.Dispatch("client-1", ipc.Request{Type: ipc.ReqCancelDedupe})
	require.True(t, resp.OK)
	assert.True(t, dd.cancelled)
}

func TestDispatchGalleryBrowseResolvesDirectory(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	params, err := json.Marshal(map[string]string{"path": "all"})
	require.NoError(t, err)
	resp := d.Dispatch("client-1", ipc.Request{Type: ipc.ReqGalleryBrowse, Params: params})
	require.True(t, resp.OK, resp.Message)
}

func TestDispatchGalleryBrowseNotFound(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	params, err := json.Marshal(map[string]string{"path": "does-not-exist"})
	require.NoError(t, err)
	resp := d.Dispatch("client-1", ipc.Request{Type: ipc.ReqGalleryBrowse, Params: params})
	assert.False(t, resp.OK)
}
