package imgtype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImageExtBuiltin(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.IsSupportedImageExt("jpg"))
	assert.True(t, r.IsSupportedImageExt(".PNG"))
	assert.False(t, r.IsSupportedImageExt("avif"))
	assert.False(t, r.IsSupportedImageExt(""))
}

func TestSetRuntimeExtensions(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.IsSupportedImageExt("avif"))

	r.SetRuntimeExtensions([]string{".AVIF", "heic"})
	assert.True(t, r.IsSupportedImageExt("avif"))
	assert.True(t, r.IsSupportedImageExt("heic"))

	r.SetRuntimeExtensions([]string{})
	assert.False(t, r.IsSupportedImageExt("avif"))
}

func TestSupportedImageExtensionsSortedAndDeduped(t *testing.T) {
	r := NewRegistry()
	r.SetRuntimeExtensions([]string{"jpg", "avif", "avif"})
	exts := r.SupportedImageExtensions()

	assert.Contains(t, exts, "avif")
	assert.Contains(t, exts, "jpg")
	for i := 1; i < len(exts); i++ {
		assert.LessOrEqual(t, exts[i-1], exts[i])
	}

	seen := make(map[string]struct{})
	for _, e := range exts {
		_, dup := seen[e]
		require.False(t, dup, "duplicate extension %q", e)
		seen[e] = struct{}{}
	}
}

func TestMimeByExtAndIsImageMime(t *testing.T) {
	r := NewRegistry()
	m := r.MimeByExt()
	assert.Equal(t, "image/jpeg", m["jpg"])
	assert.NotContains(t, m, "avif")

	assert.True(t, r.IsImageMime("image/png"))
	assert.True(t, r.IsImageMime("IMAGE/PNG"))
	assert.False(t, r.IsImageMime("image/avif"))
	assert.False(t, r.IsImageMime(""))

	r.SetRuntimeExtensions([]string{"avif"})
	assert.True(t, r.IsImageMime("image/avif"))
}

func TestIsArchiveMime(t *testing.T) {
	assert.True(t, IsArchiveMime("application/zip"))
	assert.True(t, IsArchiveMime("APPLICATION/X-RAR-COMPRESSED"))
	assert.False(t, IsArchiveMime("image/png"))
	assert.False(t, IsArchiveMime(""))
}

func TestDefaultImageExtension(t *testing.T) {
	assert.Equal(t, "jpg", DefaultImageExtension())
}

func TestUrlHasImageExtension(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.UrlHasImageExtension("https://example.com/a/b/photo.JPG"))
	assert.True(t, r.UrlHasImageExtension("https://example.com/photo.png?size=large#frag"))
	assert.False(t, r.UrlHasImageExtension("https://example.com/a/b/photo"))
	assert.False(t, r.UrlHasImageExtension("https://example.com/doc.pdf"))
}

func TestIsImageByPath(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "picture.png")
	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	require.NoError(t, os.WriteFile(pngPath, pngHeader, 0o644))
	assert.True(t, r.IsImageByPath(pngPath))

	noExtPath := filepath.Join(dir, "mystery")
	require.NoError(t, os.WriteFile(noExtPath, pngHeader, 0o644))
	assert.True(t, r.IsImageByPath(noExtPath))

	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("hello world"), 0o644))
	assert.False(t, r.IsImageByPath(textPath))

	assert.False(t, r.IsImageByPath(filepath.Join(dir, "missing.jpg")))
}
