package provider_test

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/provider"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

func openTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kabegame.db")
	s, err := storage.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustRecordImage(t *testing.T, s *storage.Storage, id types.ImageID, createdAt int64) types.Image {
	t.Helper()
	img := types.Image{
		ID:        id,
		Path:      "/tmp/" + string(id) + ".png",
		Hash:      "",
		PluginID:  "wallhaven",
		CreatedAt: createdAt,
		FileName:  string(id) + ".png",
	}
	require.NoError(t, s.RecordImage(img))
	return img
}

func findDir(t *testing.T, entries []provider.FsEntry, name string) bool {
	t.Helper()
	for _, e := range entries {
		if !e.IsFile && e.Name == name {
			return true
		}
	}
	return false
}

func TestRootProviderListsFiveGroupsNoNotesOutsideVFS(t *testing.T) {
	s := openTestStorage(t)
	root := provider.NewRootProvider(s, nil)

	entries, err := root.List()
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.True(t, findDir(t, entries, provider.DirByDate))
	assert.True(t, findDir(t, entries, provider.DirByPlugin))
	assert.True(t, findDir(t, entries, provider.DirByTask))
	assert.True(t, findDir(t, entries, provider.DirAlbums))
	assert.True(t, findDir(t, entries, provider.DirAll))
}

func TestRootProviderPrependsNoteFileUnderVFS(t *testing.T) {
	s := openTestStorage(t)
	notes := provider.NewNoteFiles(filepath.Join(t.TempDir(), "notes"))
	root := provider.NewRootProvider(s, notes)

	entries, err := root.List()
	require.NoError(t, err)
	require.Len(t, entries, 6)
	assert.True(t, entries[0].IsFile)
}

func TestRootProviderGetChildDispatchesKnownNames(t *testing.T) {
	s := openTestStorage(t)
	root := provider.NewRootProvider(s, nil)

	child := root.GetChild(provider.DirAlbums)
	require.NotNil(t, child)
	assert.Equal(t, provider.KindAlbums, child.Descriptor().Kind)

	assert.Nil(t, root.GetChild("not-a-real-dir"))
}

func TestGalleryRootProviderListsFlatViews(t *testing.T) {
	s := openTestStorage(t)
	root := provider.NewGalleryRootProvider(s)

	entries, err := root.List()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.NotNil(t, root.GetChild(provider.DirGalleryAll))
	assert.NotNil(t, root.GetChild(provider.DirGalleryByDate))
}

func TestAlbumsProviderCreateListDeleteRoundTrip(t *testing.T) {
	s := openTestStorage(t)
	albums := provider.NewAlbumsProvider(s)
	ctx := &recordingCtx{}

	require.True(t, albums.CanCreateChildDir())
	require.NoError(t, albums.CreateChildDir("Road Trips", ctx))
	assert.Equal(t, []string{"Road Trips"}, ctx.albumsCreated)

	entries, err := albums.List()
	require.NoError(t, err)
	assert.True(t, findDir(t, entries, "Road Trips"))

	child := albums.GetChild("road trips")
	require.NotNil(t, child, "album lookup must be case-insensitive")

	ok, err := albums.DeleteChild("Road Trips", provider.DeleteDirectory, provider.DeleteCheck, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = albums.DeleteChild("Road Trips", provider.DeleteDirectory, provider.DeleteCommit, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"Road Trips"}, ctx.albumsDeleted)

	assert.Nil(t, albums.GetChild("Road Trips"))
}

func TestAlbumsProviderForbidsDeletingFavorites(t *testing.T) {
	s := openTestStorage(t)
	albums := provider.NewAlbumsProvider(s)
	ctx := &recordingCtx{}

	_, err := albums.DeleteChild("Favorites", provider.DeleteDirectory, provider.DeleteCommit, ctx)
	require.Error(t, err)
}

func TestAlbumProviderRenameAndImageRemoval(t *testing.T) {
	s := openTestStorage(t)
	img := mustRecordImage(t, s, "img-1", 100)

	album, err := s.AddAlbum("Trip")
	require.NoError(t, err)
	_, err = s.AddImagesToAlbum(album.ID, []types.ImageID{img.ID})
	require.NoError(t, err)

	albumProvider := provider.NewAlbumProvider(s, album.ID)
	require.True(t, albumProvider.CanRename())
	require.NoError(t, albumProvider.Rename("Trip 2026"))

	entries, err := albumProvider.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, img.FileName, entries[0].Name)

	ctx := &recordingCtx{}
	ok, err := albumProvider.DeleteChild(img.FileName, provider.DeleteFile, provider.DeleteCommit, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"Trip 2026"}, ctx.albumImagesRemoved)

	entries, err = albumProvider.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFavoriteAlbumProviderCannotRename(t *testing.T) {
	s := openTestStorage(t)
	favorites := provider.NewAlbumProvider(s, types.FavoriteAlbumID)
	assert.False(t, favorites.CanRename())
	assert.Error(t, favorites.Rename("nope"))
}

func TestCommonProviderLeafListing(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImage(t, s, "img-1", 100)
	mustRecordImage(t, s, "img-2", 200)

	all := provider.NewCommonProvider(s)
	entries, err := all.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsFile)
	assert.Nil(t, all.GetChild("1-2"), "below LeafSize there is no range subdirectory")
}

func TestCommonProviderDecomposesAboveLeafSize(t *testing.T) {
	s := openTestStorage(t)
	for i := 0; i < provider.LeafSize+50; i++ {
		mustRecordImage(t, s, types.ImageID("img-"+strconv.Itoa(i)), int64(i))
	}

	all := provider.NewCommonProvider(s)
	entries, err := all.List()
	require.NoError(t, err)

	// 1050 total: one 1000-block subdirectory, then 50 leaf files.
	var dirCount, fileCount int
	for _, e := range entries {
		if e.IsFile {
			fileCount++
		} else {
			dirCount++
		}
	}
	assert.Equal(t, 1, dirCount)
	assert.Equal(t, 50, fileCount)

	child := all.GetChild("1-1000")
	require.NotNil(t, child)
	childEntries, err := child.List()
	require.NoError(t, err)
	assert.Len(t, childEntries, 1000)

	assert.Nil(t, all.GetChild("1-999"), "made-up ranges must be rejected")
}

func TestPluginGroupProviderListsAndDispatches(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImage(t, s, "img-1", 100)

	pg := provider.NewPluginGroupProvider(s, nil)
	entries, err := pg.List()
	require.NoError(t, err)
	assert.True(t, findDir(t, entries, "wallhaven"))

	child := pg.GetChild("wallhaven")
	require.NotNil(t, child)
	childEntries, err := child.List()
	require.NoError(t, err)
	assert.Len(t, childEntries, 1)
}

func TestDateGroupProviderGroupsByMonth(t *testing.T) {
	s := openTestStorage(t)
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC).Unix()
	mustRecordImage(t, s, "img-1", jan)

	dg := provider.NewDateGroupProvider(s)
	entries, err := dg.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2026-01", entries[0].Name)

	child := dg.GetChild("2026-01")
	require.NotNil(t, child)
}

func TestTaskGroupProviderGroupsByTask(t *testing.T) {
	s := openTestStorage(t)
	img := types.Image{ID: "img-1", Path: "/tmp/img-1.png", PluginID: "p", TaskID: "task-1", CreatedAt: 1, FileName: "img-1.png"}
	require.NoError(t, s.RecordImage(img))

	tg := provider.NewTaskGroupProvider(s)
	entries, err := tg.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "task-1", entries[0].Name)

	child := tg.GetChild("task-1")
	require.NotNil(t, child)
	childEntries, err := child.List()
	require.NoError(t, err)
	assert.Len(t, childEntries, 1)
}

func TestRuntimeResolvesNestedPath(t *testing.T) {
	s := openTestStorage(t)
	img := mustRecordImage(t, s, "img-1", 1)
	album, err := s.AddAlbum("Trip")
	require.NoError(t, err)
	_, err = s.AddImagesToAlbum(album.ID, []types.ImageID{img.ID})
	require.NoError(t, err)

	rt, err := provider.NewRuntime(provider.NewFactory(s, nil), 64)
	require.NoError(t, err)

	dirResult := rt.Resolve(true, provider.DirAlbums+"/Trip")
	assert.Equal(t, provider.ResolveDirectory, dirResult.Kind)

	fileResult := rt.Resolve(true, provider.DirAlbums+"/Trip/"+img.FileName)
	assert.Equal(t, provider.ResolveFileResult, fileResult.Kind)
	assert.Equal(t, img.ID, fileResult.ImageID)

	notFound := rt.Resolve(true, provider.DirAlbums+"/does-not-exist")
	assert.Equal(t, provider.ResolveNotFound, notFound.Kind)
}

func TestRuntimeWarmUpPopulatesCacheAndRespectsCancellation(t *testing.T) {
	s := openTestStorage(t)
	_, err := s.AddAlbum("Trip")
	require.NoError(t, err)

	rt, err := provider.NewRuntime(provider.NewFactory(s, nil), 64)
	require.NoError(t, err)

	require.NoError(t, rt.WarmUp(context.Background(), true, 2, []string{provider.DirAlbums}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = rt.WarmUp(ctx, true, 2, []string{provider.DirAlbums})
	assert.Error(t, err)
}

type recordingCtx struct {
	albumsCreated      []string
	albumsDeleted      []string
	albumImagesRemoved []string
	tasksDeleted       []string
}

func (r *recordingCtx) AlbumsCreated(name string) { r.albumsCreated = append(r.albumsCreated, name) }
func (r *recordingCtx) AlbumsDeleted(name string) { r.albumsDeleted = append(r.albumsDeleted, name) }
func (r *recordingCtx) AlbumImagesRemoved(name string) {
	r.albumImagesRemoved = append(r.albumImagesRemoved, name)
}
func (r *recordingCtx) TasksDeleted(id string) { r.tasksDeleted = append(r.tasksDeleted, id) }
