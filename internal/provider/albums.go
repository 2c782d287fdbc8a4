package provider

import (
	"strings"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/query"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// AlbumsProvider lists every album as a directory (spec §4.4), grounded
// on providers/albums.rs + virtual_drive/providers/albums.rs. mkdir
// inside it creates an album; directory delete removes one (Favorites
// excepted).
type AlbumsProvider struct {
	unsupported

	store *storage.Storage
}

func NewAlbumsProvider(store *storage.Storage) *AlbumsProvider {
	return &AlbumsProvider{store: store}
}

func (p *AlbumsProvider) Descriptor() Descriptor { return albumsDescriptor() }

func (p *AlbumsProvider) List() ([]FsEntry, error) {
	albums, err := p.store.GetAlbums()
	if err != nil {
		return nil, err
	}
	out := make([]FsEntry, len(albums))
	for i, a := range albums {
		out[i] = Dir(a.Name)
	}
	return out, nil
}

func (p *AlbumsProvider) GetChild(name string) Provider {
	id, err := p.store.FindAlbumIDByNameCI(name)
	if err != nil {
		return nil
	}
	return NewAlbumProvider(p.store, id)
}

func (p *AlbumsProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }

func (p *AlbumsProvider) CanCreateChildDir() bool { return true }

func (p *AlbumsProvider) CreateChildDir(childName string, ctx VdOpsContext) error {
	album, err := p.store.AddAlbum(childName)
	if err != nil {
		return err
	}
	ctx.AlbumsCreated(album.Name)
	return nil
}

func (p *AlbumsProvider) DeleteChild(childName string, kind DeleteChildKind, mode DeleteChildMode, ctx VdOpsContext) (bool, error) {
	if kind != DeleteDirectory {
		return false, errNotSupported("delete this type under albums")
	}
	childName = strings.TrimSpace(childName)
	if childName == "" {
		return false, errNotSupported("delete an album with an empty name")
	}
	id, err := p.store.FindAlbumIDByNameCI(childName)
	if err != nil {
		if errorx.KindOf(err) == errorx.NotFound {
			return false, nil
		}
		return false, err
	}
	if id == types.FavoriteAlbumID {
		return false, errNotSupported("delete the favorites album")
	}
	if mode == DeleteCheck {
		return true, nil
	}
	if err := p.store.DeleteAlbum(id); err != nil {
		return false, err
	}
	ctx.AlbumsDeleted(childName)
	return true, nil
}

// AlbumProvider lists the images inside one album, delegating pagination
// to CommonProvider over an ImageQuery.ByAlbum query.
type AlbumProvider struct {
	unsupported

	store   *storage.Storage
	albumID types.AlbumID
	inner   *CommonProvider
}

func NewAlbumProvider(store *storage.Storage, albumID types.AlbumID) *AlbumProvider {
	return &AlbumProvider{
		store:   store,
		albumID: albumID,
		inner:   NewCommonProviderWithQuery(store, query.ByAlbum(string(albumID))),
	}
}

func (p *AlbumProvider) Descriptor() Descriptor { return albumDescriptor(p.albumID) }

func (p *AlbumProvider) List() ([]FsEntry, error) { return p.inner.List() }

func (p *AlbumProvider) GetChild(name string) Provider { return p.inner.GetChild(name) }

func (p *AlbumProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }

func (p *AlbumProvider) ResolveFile(name string) (types.ImageID, string, bool) {
	return p.inner.ResolveFile(name)
}

func (p *AlbumProvider) CanRename() bool { return p.albumID != types.FavoriteAlbumID }

func (p *AlbumProvider) Rename(newName string) error {
	if p.albumID == types.FavoriteAlbumID {
		return errNotSupported("rename the favorites album")
	}
	return p.store.RenameAlbum(p.albumID, newName)
}

func (p *AlbumProvider) DeleteChild(childName string, kind DeleteChildKind, mode DeleteChildMode, ctx VdOpsContext) (bool, error) {
	if kind != DeleteFile {
		return false, errNotSupported("delete this type inside an album")
	}
	if mode == DeleteCheck {
		return true, nil
	}
	imageID, _, ok := resolveFileByName(p.store, childName)
	if !ok {
		return false, nil
	}
	removed, err := p.store.RemoveImagesFromAlbum(p.albumID, []types.ImageID{types.ImageID(imageID)})
	if err != nil {
		return false, err
	}
	if removed > 0 {
		if name, err := p.store.GetAlbumNameByID(p.albumID); err == nil && name != "" {
			ctx.AlbumImagesRemoved(name)
		}
	}
	return removed > 0, nil
}
