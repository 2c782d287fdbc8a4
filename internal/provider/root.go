package provider

import (
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// Root directory names, kept verbatim from the original filesystem
// projection (core/src/providers/root.rs) since they are what a mounted
// virtual drive actually shows a user.
const (
	DirByDate   = "按时间"
	DirByTask   = "按任务"
	DirByPlugin = "按插件"
	DirAlbums   = "画册"
	DirAll      = "全部"
)

const rootNoteName = "在这里你可以自由查看图片.txt"
const rootNoteBody = "这里是按不同维度浏览所有图片的只读目录。"

// RootProvider is the Provider Tree's top node (spec §4.4): it lists the
// five grouping directories and, when notes is non-nil (VFS mount), an
// explanatory note file ahead of them.
type RootProvider struct {
	unsupported

	store *storage.Storage
	notes *NoteFiles
}

// NewRootProvider builds the root node. notes may be nil outside a
// virtual drive mount, in which case no note file is synthesized.
func NewRootProvider(store *storage.Storage, notes *NoteFiles) *RootProvider {
	return &RootProvider{store: store, notes: notes}
}

func (p *RootProvider) Descriptor() Descriptor { return rootDescriptor() }

func (p *RootProvider) List() ([]FsEntry, error) {
	out := []FsEntry{Dir(DirByDate), Dir(DirByPlugin), Dir(DirByTask), Dir(DirAlbums), Dir(DirAll)}
	if p.notes != nil {
		id, path, err := p.notes.Ensure(rootNoteName, rootNoteBody)
		if err != nil {
			return nil, err
		}
		out = append([]FsEntry{File(rootNoteName, id, path)}, out...)
	}
	return out, nil
}

func (p *RootProvider) GetChild(name string) Provider {
	switch {
	case ciEqual(name, DirByDate):
		return NewDateGroupProvider(p.store)
	case ciEqual(name, DirByPlugin):
		return NewPluginGroupProvider(p.store, p.notes)
	case ciEqual(name, DirByTask):
		return NewTaskGroupProvider(p.store)
	case ciEqual(name, DirAlbums):
		return NewAlbumsProvider(p.store)
	case ciEqual(name, DirAll):
		return NewCommonProvider(p.store)
	default:
		return nil
	}
}

func (p *RootProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }

func (p *RootProvider) ResolveFile(name string) (types.ImageID, string, bool) {
	if p.notes == nil || name != rootNoteName {
		return "", "", false
	}
	id, path, err := p.notes.Ensure(rootNoteName, rootNoteBody)
	if err != nil {
		return "", "", false
	}
	return id, path, true
}

// GalleryRootProvider is the flat UI-facing root (spec §4.4): the three
// views the gallery browse surface exposes directly, without the virtual
// drive's 按时间/按插件/按任务/画册/全部 grouping names.
type GalleryRootProvider struct {
	unsupported

	store *storage.Storage
}

const (
	DirGalleryAll      = "all"
	DirGalleryByPlugin = "by-plugin"
	DirGalleryByDate   = "by-date"
)

// NewGalleryRootProvider builds the gallery-facing root node.
func NewGalleryRootProvider(store *storage.Storage) *GalleryRootProvider {
	return &GalleryRootProvider{store: store}
}

func (p *GalleryRootProvider) Descriptor() Descriptor { return galleryRootDescriptor() }

func (p *GalleryRootProvider) List() ([]FsEntry, error) {
	return []FsEntry{Dir(DirGalleryAll), Dir(DirGalleryByPlugin), Dir(DirGalleryByDate)}, nil
}

func (p *GalleryRootProvider) GetChild(name string) Provider {
	switch {
	case ciEqual(name, DirGalleryAll):
		return NewCommonProvider(p.store)
	case ciEqual(name, DirGalleryByPlugin):
		return NewPluginGroupProvider(p.store, nil)
	case ciEqual(name, DirGalleryByDate):
		return NewDateGroupProvider(p.store)
	default:
		return nil
	}
}

func (p *GalleryRootProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }
