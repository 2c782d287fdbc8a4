//go:build windows

package vdrive

import (
	"os"

	"github.com/kabegame/kabegame-sub003/internal/cache"
)

// VdReadHandle on Windows is a plain positional-read handle. The real
// mmap-backed binding only exists for the go-fuse mount in fs_posix.go;
// since fs_stub.go never actually serves a mount on this platform, there
// is no caller that would exercise an mmap path here, so it is not built.
type VdReadHandle struct {
	size int64
	file *os.File
}

func openReadHandle(path string, _ int64) (*VdReadHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &VdReadHandle{size: info.Size(), file: f}, nil
}

func (h *VdReadHandle) ReadAt(offset int64, buf []byte) (int, error) {
	if offset < 0 || offset >= h.size || len(buf) == 0 {
		return 0, nil
	}
	end := offset + int64(len(buf))
	if end > h.size {
		end = h.size
	}
	return h.file.ReadAt(buf[:end-offset], offset)
}

func (h *VdReadHandle) Close() error {
	return h.file.Close()
}

type readHandleCache struct {
	lru           *cache.LRU[string, *VdReadHandle]
	mmapThreshold int64
}

func newReadHandleCache(capacity int, mmapThreshold int64) (*readHandleCache, error) {
	c, err := cache.New[string, *VdReadHandle](capacity, func(_ string, h *VdReadHandle) {
		_ = h.Close()
	})
	if err != nil {
		return nil, err
	}
	return &readHandleCache{lru: c, mmapThreshold: mmapThreshold}, nil
}

func (c *readHandleCache) open(path string) (*VdReadHandle, error) {
	return c.lru.GetOrCreate(path, func() (*VdReadHandle, error) {
		return openReadHandle(path, c.mmapThreshold)
	})
}

func (c *readHandleCache) invalidate(path string) {
	c.lru.Remove(path)
}
