// Package imgtype is the Image-Type Registry (spec §4.2): the single
// decision point for "is this path/URL/MIME an image?", extensible at
// runtime by a set the UI reports (e.g. avif/heic where the host webview
// can decode them).
package imgtype

import (
	"bytes"
	stdmime "mime"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
)

// builtinExtensions is the backend's always-on set, matching the
// original's BUILTIN_IMAGE_EXTENSIONS.
var builtinExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "bmp": {}, "svg": {},
}

// extMime is the full ext -> mime table, including formats the backend
// doesn't treat as built in but will recognize if the frontend reports
// support for them.
var extMime = map[string]string{
	"jpg": "image/jpeg", "jpeg": "image/jpeg",
	"png": "image/png", "gif": "image/gif",
	"webp": "image/webp", "bmp": "image/bmp",
	"ico": "image/x-icon", "svg": "image/svg+xml",
	"avif": "image/avif", "heic": "image/heic",
}

func init() {
	// Register with the go standard mime catalog too, mirroring the
	// teacher's internal/mime init() so extension-based lookups agree
	// across the codebase.
	for ext, m := range extMime {
		stdmime.AddExtensionType("."+ext, m)
	}
}

// Registry is the runtime-extensible image type registry. The zero value
// is ready to use; the package-level Default is what most callers should
// use.
type Registry struct {
	mu   sync.RWMutex
	exts map[string]struct{}
}

// NewRegistry returns an empty runtime-extension set layered on top of the
// built-in extensions.
func NewRegistry() *Registry {
	return &Registry{exts: make(map[string]struct{})}
}

// Default is the process-wide registry instance. Lazily nothing needs to
// run before use: the zero value map inside NewRegistry is always
// non-nil.
var Default = NewRegistry()

// SetRuntimeExtensions replaces the runtime-reported extension set (e.g.
// the set the UI discovered its webview can decode).
func (r *Registry) SetRuntimeExtensions(formats []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exts = make(map[string]struct{}, len(formats))
	for _, f := range formats {
		e := normalizeExt(f)
		if e != "" {
			r.exts[e] = struct{}{}
		}
	}
}

func normalizeExt(ext string) string {
	e := strings.ToLower(strings.TrimSpace(ext))
	e = strings.TrimPrefix(e, ".")
	return e
}

// IsSupportedImageExt reports whether ext (with or without a leading dot)
// is a supported image extension: built in, or reported at runtime.
func (r *Registry) IsSupportedImageExt(ext string) bool {
	e := normalizeExt(ext)
	if e == "" {
		return false
	}
	if _, ok := builtinExtensions[e]; ok {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.exts[e]
	return ok
}

// SupportedImageExtensions returns the sorted, deduplicated set of
// currently-supported extensions (built in + runtime).
func (r *Registry) SupportedImageExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{}, len(builtinExtensions)+len(r.exts))
	for e := range builtinExtensions {
		set[e] = struct{}{}
	}
	for e := range r.exts {
		set[e] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// MimeByExt returns the ext -> mime map restricted to currently-supported
// extensions.
func (r *Registry) MimeByExt() map[string]string {
	out := make(map[string]string)
	for _, ext := range r.SupportedImageExtensions() {
		if m, ok := extMime[ext]; ok {
			out[ext] = m
		}
	}
	return out
}

func (r *Registry) supportedMimeTypes() map[string]struct{} {
	out := make(map[string]struct{})
	for _, m := range r.MimeByExt() {
		out[strings.ToLower(m)] = struct{}{}
	}
	return out
}

// IsImageMime reports whether mime (possibly empty) names a currently
// supported image MIME type.
func (r *Registry) IsImageMime(mime string) bool {
	m := strings.ToLower(strings.TrimSpace(mime))
	if m == "" {
		return false
	}
	_, ok := r.supportedMimeTypes()[m]
	return ok
}

// archiveMimes is the fixed set of archive container MIME types the
// registry recognizes for Android content:// style URIs; unlike images
// this set is not runtime-extensible.
var archiveMimes = map[string]struct{}{
	"application/zip":              {},
	"application/x-zip-compressed": {},
	"application/x-rar-compressed": {},
	"application/vnd.rar":          {},
	"application/x-7z-compressed":  {},
	"application/x-tar":            {},
	"application/gzip":             {},
	"application/x-gzip":           {},
	"application/x-bzip2":          {},
	"application/x-xz":             {},
}

// IsArchiveMime reports whether mime names a recognized archive container
// type.
func IsArchiveMime(mime string) bool {
	m := strings.ToLower(strings.TrimSpace(mime))
	if m == "" {
		return false
	}
	_, ok := archiveMimes[m]
	return ok
}

// DefaultImageExtension is the fallback extension used when none can be
// inferred (e.g. a download with no extension in its URL).
func DefaultImageExtension() string { return "jpg" }

// UrlHasImageExtension reports whether the URL's apparent file extension
// is a supported image extension.
func (r *Registry) UrlHasImageExtension(u string) bool {
	lower := strings.ToLower(u)
	dot := strings.LastIndexByte(lower, '.')
	if dot < 0 {
		return false
	}
	ext := strings.TrimSpace(lower[dot+1:])
	// Strip any trailing query string or fragment that rode along on the
	// last path segment.
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	return r.IsSupportedImageExt(ext)
}

// IsImageByPath reports whether the file at p is a supported image: the
// extension is checked first, then (if that's inconclusive) the file's
// content is sniffed and the detected MIME type is checked against the
// supported set.
func (r *Registry) IsImageByPath(p string) bool {
	if _, err := os.Stat(p); err != nil {
		return false
	}
	ext := ""
	if dot := strings.LastIndexByte(p, '.'); dot >= 0 {
		ext = p[dot+1:]
	}
	if r.IsSupportedImageExt(ext) {
		return true
	}

	f, err := os.Open(p)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	mime := http.DetectContentType(bytes.TrimRight(buf[:n], "\x00"))
	// DetectContentType returns things like "image/jpeg; charset=...";
	// keep only the type/subtype part.
	if semi := strings.IndexByte(mime, ';'); semi >= 0 {
		mime = mime[:semi]
	}
	return r.IsImageMime(mime)
}
