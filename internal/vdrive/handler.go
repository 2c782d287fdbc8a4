package vdrive

import (
	"sync"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/events"
	"github.com/kabegame/kabegame-sub003/internal/provider"
)

var errAlreadyMounted = errorx.New(errorx.Busy, "virtual drive already mounted")

// Handler is the Virtual Drive Handler (spec §4.9): it owns the Provider
// Tree runtime, the mmap-backed read-handle cache, and the mount
// lifecycle. The actual host-filesystem binding is supplied per platform
// by mountImpl (fs_posix.go's go-fuse server, fs_stub.go's
// "unsupported platform" everywhere else). The zero value is not usable;
// construct with New.
type Handler struct {
	rt          *provider.Runtime
	broadcaster *events.Broadcaster
	opts        Options
	readCache   *readHandleCache
	ctx         *opsContext

	mu         sync.Mutex
	mountPoint string
	unmountFn  func() error
	notifyFn   func(string)
}

// New builds a Handler projecting rt's mount root (Runtime.Root(true))
// onto the host filesystem once Mount is called.
func New(rt *provider.Runtime, broadcaster *events.Broadcaster, opts Options) (*Handler, error) {
	opts = opts.withDefaults()
	rc, err := newReadHandleCache(opts.MmapCacheCapacity, opts.MmapThresholdBytes)
	if err != nil {
		return nil, err
	}
	h := &Handler{rt: rt, broadcaster: broadcaster, opts: opts, readCache: rc}
	h.ctx = newOpsContext(broadcaster, h)
	return h, nil
}

// NotifyDirChanged implements Notifier: it forwards to whatever live
// invalidation hook the current mount installed, or does nothing while
// unmounted. Providers call this indirectly through VdOpsContext; it is
// never the Handler's own caller.
func (h *Handler) NotifyDirChanged(path string) {
	h.mu.Lock()
	fn := h.notifyFn
	h.mu.Unlock()
	if fn != nil {
		fn(path)
	}
}

func (h *Handler) setNotifyFn(fn func(string)) {
	h.mu.Lock()
	h.notifyFn = fn
	h.mu.Unlock()
}

// CurrentMountPoint returns the active mount point, or "" if unmounted.
func (h *Handler) CurrentMountPoint() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mountPoint
}

// Mount projects the Provider Tree onto mountPoint. It fails fast if a
// mount is already active, matching the original's single-mount-point
// model (one VirtualDriveService per daemon).
func (h *Handler) Mount(mountPoint string) error {
	h.mu.Lock()
	if h.mountPoint != "" {
		h.mu.Unlock()
		return errAlreadyMounted
	}
	h.mu.Unlock()

	unmount, err := mountImpl(h, mountPoint)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.mountPoint = mountPoint
	h.unmountFn = unmount
	h.mu.Unlock()
	return nil
}

// Unmount tears down the active mount, if any. Calling it while unmounted
// is a no-op, matching the original stub's `unmount() -> Ok(false)`.
func (h *Handler) Unmount() error {
	h.mu.Lock()
	unmount := h.unmountFn
	h.mu.Unlock()
	if unmount == nil {
		return nil
	}

	err := unmount()

	h.mu.Lock()
	h.mountPoint = ""
	h.unmountFn = nil
	h.notifyFn = nil
	h.mu.Unlock()
	return err
}
