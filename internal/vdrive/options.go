// Package vdrive is the Virtual Drive Handler (spec §4.9): a FUSE
// projection of the Provider Tree onto a host mount point, plus the
// mmap-backed read cache that serves file reads without a syscall per
// page. The real binding lives in fs_posix.go (Linux/macOS, go-fuse);
// fs_stub.go covers every other GOOS the way the original's own
// virtual_drive/drive_service/stub.rs does for non-Windows.
package vdrive

// Options configures the parts of the handler spec §9 calls out as "should
// be configuration": the mmap threshold and LRU capacity named in spec
// §4.9 are defaults here, not hardcoded constants, so a host process can
// tune them.
type Options struct {
	// MmapThresholdBytes is the file size at or above which VdReadHandle
	// falls back to positional reads instead of memory-mapping.
	MmapThresholdBytes int64

	// MmapCacheCapacity bounds how many open mmaps are kept live at once.
	MmapCacheCapacity int

	// AllowOther mirrors FUSE's allow_other mount option, letting users
	// other than the mounting uid read the drive (e.g. a desktop file
	// manager running as a different user in a sandboxed session).
	AllowOther bool
}

const (
	defaultMmapThresholdBytes = 256 * 1024 * 1024
	defaultMmapCacheCapacity  = 64
)

// DefaultOptions returns spec §4.9's named constants: a 256 MiB mmap
// threshold and a 64-entry mmap LRU.
func DefaultOptions() Options {
	return Options{
		MmapThresholdBytes: defaultMmapThresholdBytes,
		MmapCacheCapacity:  defaultMmapCacheCapacity,
	}
}

func (o Options) withDefaults() Options {
	if o.MmapThresholdBytes <= 0 {
		o.MmapThresholdBytes = defaultMmapThresholdBytes
	}
	if o.MmapCacheCapacity <= 0 {
		o.MmapCacheCapacity = defaultMmapCacheCapacity
	}
	return o
}
