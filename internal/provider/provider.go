// Package provider is the Provider Tree (spec §4.4): a polymorphic,
// path-unaware filesystem over Storage. Each Provider only knows how to
// list and resolve its own children; path walking is the runtime's job
// (runtime.go). Grounded on core/src/providers/provider.rs's Provider
// trait, reconciled with core/src/virtual_drive/providers's
// VirtualFsProvider trait (which threads an explicit *Storage through
// every call instead of capturing one at construction) into a single Go
// interface — concrete providers here hold their *storage.Storage (and
// any other dependency) at construction time, matching the non-VD shape,
// and also implement the VD-only write methods, since this spec takes
// the virtual-driver branch as canonical.
package provider

import (
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// FsEntry is one entry a Provider's List returns: either a subdirectory
// (resolved lazily through GetChild) or a file backed by a concrete image.
type FsEntry struct {
	Name string

	IsFile       bool
	ImageID      types.ImageID
	ResolvedPath string
}

// Dir builds a directory FsEntry.
func Dir(name string) FsEntry { return FsEntry{Name: name} }

// File builds a file FsEntry.
func File(name string, imageID types.ImageID, resolvedPath string) FsEntry {
	return FsEntry{Name: name, IsFile: true, ImageID: imageID, ResolvedPath: resolvedPath}
}

// ResolveKind distinguishes a resolve_child outcome per spec §4.4: Listed
// children must also appear in List(); Dynamic children are addressable
// by path without ever being enumerated (e.g. a range URL the frontend
// constructed directly).
type ResolveKind int

const (
	NotFound ResolveKind = iota
	Listed
	Dynamic
)

// ResolveChild is the result of Provider.ResolveChild.
type ResolveChild struct {
	Kind     ResolveKind
	Provider Provider
}

func notFound() ResolveChild { return ResolveChild{Kind: NotFound} }

// DeleteChildKind distinguishes the filesystem object type a delete_child
// call targets.
type DeleteChildKind int

const (
	DeleteFile DeleteChildKind = iota
	DeleteDirectory
)

// DeleteChildMode supports the virtual drive's two-phase delete: Check
// only asks "would this be allowed", Commit actually performs it.
type DeleteChildMode int

const (
	DeleteCheck DeleteChildMode = iota
	DeleteCommit
)

// VdOpsContext is the virtual drive handler's side-effect surface:
// providers report what they changed so the handler can invalidate
// caches and publish events, without providers depending on the virtual
// drive package directly.
type VdOpsContext interface {
	AlbumsCreated(albumName string)
	AlbumsDeleted(albumName string)
	AlbumImagesRemoved(albumName string)
	TasksDeleted(taskID string)
}

// Provider is one node of the Provider Tree. Every method operates purely
// on the node's own bound state (query, album id, offset/count/depth);
// path resolution across multiple segments belongs to Runtime, not here.
type Provider interface {
	// Descriptor returns the persistable/cacheable identity of this node.
	Descriptor() Descriptor

	// List returns every entry directly inside this node.
	List() ([]FsEntry, error)

	// GetChild looks up a listed child by name. Returns nil if name is not
	// a (directory) child of this node.
	GetChild(name string) Provider

	// ResolveChild supports hidden dynamic children that never appear in
	// List but are still addressable directly by name (e.g. fabricated
	// range directories). The default behavior (NotFound) is expressed by
	// providers that embed unsupported.
	ResolveChild(name string) ResolveChild

	// GetChildren returns every (name, child) pair this node lists,
	// instantiating a child Provider for every directory entry; used by
	// the runtime's warm-up walk.
	GetChildren() ([]NamedProvider, error)

	// ResolveFile resolves name directly to an image without listing the
	// whole directory.
	ResolveFile(name string) (types.ImageID, string, bool)

	CanRename() bool
	Rename(newName string) error

	CanCreateChildDir() bool
	CreateChildDir(childName string, ctx VdOpsContext) error

	// DeleteChild is VD's only delete entry point; mode distinguishes the
	// Dokan/FUSE "would this succeed" probe from the real delete.
	DeleteChild(childName string, kind DeleteChildKind, mode DeleteChildMode, ctx VdOpsContext) (bool, error)
}

// NamedProvider pairs a directory entry's name with its instantiated
// child Provider, as returned by GetChildren.
type NamedProvider struct {
	Name     string
	Provider Provider
}

// unsupported is embedded by every concrete provider to supply the
// default "not applicable" behavior for the optional parts of the
// interface, the way the Rust trait's default method bodies do.
type unsupported struct{}

func (unsupported) ResolveChild(_ string) ResolveChild { return notFound() }
func (unsupported) CanRename() bool                    { return false }
func (unsupported) Rename(_ string) error              { return errNotSupported("rename") }
func (unsupported) CanCreateChildDir() bool            { return false }
func (unsupported) CreateChildDir(_ string, _ VdOpsContext) error {
	return errNotSupported("create child directory")
}
func (unsupported) DeleteChild(_ string, _ DeleteChildKind, _ DeleteChildMode, _ VdOpsContext) (bool, error) {
	return false, errNotSupported("delete")
}
func (unsupported) ResolveFile(_ string) (types.ImageID, string, bool) {
	return "", "", false
}

// defaultChildren implements Provider's default GetChildren body: list
// directory entries and resolve each through GetChild, skipping any that
// GetChild declines (matching the Rust default's filter_map).
func defaultChildren(p Provider) ([]NamedProvider, error) {
	entries, err := p.List()
	if err != nil {
		return nil, err
	}
	out := make([]NamedProvider, 0, len(entries))
	for _, e := range entries {
		if e.IsFile {
			continue
		}
		child := p.GetChild(e.Name)
		if child == nil {
			continue
		}
		out = append(out, NamedProvider{Name: e.Name, Provider: child})
	}
	return out, nil
}
