package vdrive

import (
	"github.com/kabegame/kabegame-sub003/internal/events"
	"github.com/kabegame/kabegame-sub003/internal/provider"
)

// Notifier is the platform "directory changed" hook (spec §4.9's
// write-invalidation section): after a successful mkdir/unlink/rename the
// handler tells the host filesystem layer to refresh, the way
// virtual_drive_io.rs's Windows binding calls SHChangeNotify and a FUSE
// binding calls Inode.NotifyEntry/NotifyContent. Handler implements it by
// forwarding to the hook fs_posix.go installs at mount time (nothing
// happens while unmounted); newOpsContext falls back to noopNotifier when
// given nil.
type Notifier interface {
	NotifyDirChanged(path string)
}

type noopNotifier struct{}

func (noopNotifier) NotifyDirChanged(string) {}

// opsContext is the provider.VdOpsContext every Provider write operation
// receives: it republishes the change as a daemon event (so IPC
// subscribers see it too) and pokes the Notifier so the host file manager
// refreshes its view of the mount.
//
// None of albums_created/albums_deleted/album_images_removed/
// tasks_deleted has a dedicated events.Kind of its own — spec §4.8 reserves
// Generic for exactly this "catch-all named event" case, so all four are
// published as Generic{event, payload}.
type opsContext struct {
	broadcaster *events.Broadcaster
	notifier    Notifier
}

func newOpsContext(broadcaster *events.Broadcaster, notifier Notifier) *opsContext {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &opsContext{broadcaster: broadcaster, notifier: notifier}
}

func (c *opsContext) publish(event string, payload map[string]any) {
	c.broadcaster.Publish(events.Generic, map[string]any{
		"event":   event,
		"payload": payload,
	})
	c.notifier.NotifyDirChanged("/")
}

func (c *opsContext) AlbumsCreated(albumName string) {
	c.publish("AlbumsCreated", map[string]any{"album_name": albumName})
}

func (c *opsContext) AlbumsDeleted(albumName string) {
	c.publish("AlbumsDeleted", map[string]any{"album_name": albumName})
}

func (c *opsContext) AlbumImagesRemoved(albumName string) {
	c.publish("AlbumImagesRemoved", map[string]any{"album_name": albumName})
}

func (c *opsContext) TasksDeleted(taskID string) {
	c.publish("TasksDeleted", map[string]any{"task_id": taskID})
}

var _ provider.VdOpsContext = (*opsContext)(nil)
