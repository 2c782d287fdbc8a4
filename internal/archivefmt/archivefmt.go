// Package archivefmt is the Archive Registry (spec §4.3): it recognizes
// archive URLs/paths the crawler hands it, extracts them into a working
// directory, and walks the result for images a Task can ingest.
package archivefmt

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mholt/archiver/v3"

	"github.com/kabegame/kabegame-sub003/internal/imgtype"
)

// Downloader fetches src into dst on disk. The caller supplies this so the
// registry never has to know about the crawler's own HTTP client or auth.
type Downloader func(ctx context.Context, src, dst string) error

// CancelCheck reports whether the calling task has been canceled. Processors
// consult it between extraction steps so a canceled Task doesn't keep
// unpacking a large archive to completion.
type CancelCheck func() bool

// Processor knows how to recognize and unpack one archive format.
type Processor interface {
	// SupportedTypes lists the lowercase type names this processor answers
	// to (e.g. "zip"), used both for Registry.SupportedTypes and for an
	// explicit type hint in Process.
	SupportedTypes() []string
	// CanHandle reports whether url names a file this processor can open,
	// judged by extension.
	CanHandle(url string) bool
	// Process downloads (if url is remote), extracts into a uniquely named
	// subdirectory of destDir named after the archive's stem, and returns
	// that subdirectory's path.
	Process(ctx context.Context, src string, destDir string, dl Downloader, cancel CancelCheck) (string, error)
}

// Registry dispatches archive urls/paths to the Processor that can handle
// them, by explicit type hint first and then by extension.
type Registry struct {
	processors []Processor
	types      *imgtype.Registry
}

// NewRegistry builds the default registry: zip and rar, matching the
// original's ArchiveManager::new.
func NewRegistry(types *imgtype.Registry) *Registry {
	if types == nil {
		types = imgtype.Default
	}
	return &Registry{
		processors: []Processor{
			&archiverProcessor{kind: "zip", exts: []string{"zip"}, unarchiver: archiver.NewZip()},
			&archiverProcessor{kind: "rar", exts: []string{"rar"}, unarchiver: archiver.NewRar()},
		},
		types: types,
	}
}

// Register adds an additional processor, e.g. for a format only one plugin
// needs.
func (r *Registry) Register(p Processor) {
	r.processors = append(r.processors, p)
}

// SupportedTypes returns the sorted, deduplicated set of archive type names
// across all registered processors.
func (r *Registry) SupportedTypes() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range r.processors {
		for _, t := range p.SupportedTypes() {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

// GetProcessor resolves the Processor for src, preferring an explicit
// typeHint ("zip", "rar", ...) and falling back to extension sniffing.
func (r *Registry) GetProcessor(typeHint, src string) (Processor, bool) {
	if typeHint != "" {
		hint := strings.ToLower(strings.TrimSpace(typeHint))
		for _, p := range r.processors {
			for _, t := range p.SupportedTypes() {
				if t == hint {
					return p, true
				}
			}
		}
	}
	for _, p := range r.processors {
		if p.CanHandle(src) {
			return p, true
		}
	}
	return nil, false
}

// Process resolves a processor for src and runs it, returning the path of
// the subdirectory the archive was extracted into.
func (r *Registry) Process(ctx context.Context, typeHint, src, destDir string, dl Downloader, cancel CancelCheck) (string, error) {
	p, ok := r.GetProcessor(typeHint, src)
	if !ok {
		return "", fmt.Errorf("no archive processor for %q", src)
	}
	return p.Process(ctx, src, destDir, dl, cancel)
}

// ResolveLocalPath returns the local filesystem path named by src if src is
// a file:// URL or an existing plain path, mirroring the original's
// resolve_local_path_from_url.
func ResolveLocalPath(src string) (string, bool) {
	if strings.HasPrefix(src, "file://") {
		u, err := url.Parse(src)
		if err != nil {
			return "", false
		}
		p := u.Path
		if p == "" {
			return "", false
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", false
		}
		return abs, true
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return "", false
	}
	if _, err := os.Stat(src); err != nil {
		return "", false
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", false
	}
	return abs, true
}

// CollectImagesRecursive walks dir and returns the absolute paths of every
// file types recognizes as a supported image.
func CollectImagesRecursive(dir string, types *imgtype.Registry) ([]string, error) {
	if types == nil {
		types = imgtype.Default
	}
	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if types.IsSupportedImageExt(ext) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect images under %s: %w", dir, err)
	}
	return out, nil
}

// archiverProcessor adapts a github.com/mholt/archiver/v3 format to the
// Processor interface, handling the download-then-extract
// sequence common to every format the original implemented by hand.
type archiverProcessor struct {
	kind       string
	exts       []string
	unarchiver interface {
		Unarchive(source, destination string) error
	}
}

func (a *archiverProcessor) SupportedTypes() []string { return []string{a.kind} }

func (a *archiverProcessor) CanHandle(src string) bool {
	if local, ok := ResolveLocalPath(src); ok {
		return a.hasExt(local)
	}
	return a.hasExt(strings.ToLower(src))
}

func (a *archiverProcessor) hasExt(p string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
	for _, e := range a.exts {
		if ext == e {
			return true
		}
	}
	return false
}

func (a *archiverProcessor) Process(ctx context.Context, src, destDir string, dl Downloader, cancel CancelCheck) (string, error) {
	archivePath, ok := ResolveLocalPath(src)
	if !ok {
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			return "", fmt.Errorf("unsupported archive url: %s", src)
		}
		if dl == nil {
			return "", fmt.Errorf("remote archive %s requires a downloader", src)
		}
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return "", fmt.Errorf("create extraction dir: %w", err)
		}
		archivePath = filepath.Join(destDir, "__kg_archive."+a.kind)
		if err := dl(ctx, src, archivePath); err != nil {
			return "", fmt.Errorf("download archive: %w", err)
		}
	}

	if cancel != nil && cancel() {
		return "", fmt.Errorf("task canceled")
	}

	stem := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	extractDir, err := uniqueSubdir(destDir, stem)
	if err != nil {
		return "", fmt.Errorf("create extraction dir: %w", err)
	}

	if err := a.unarchiver.Unarchive(archivePath, extractDir); err != nil {
		return "", fmt.Errorf("extract %s archive: %w", a.kind, err)
	}

	if cancel != nil && cancel() {
		return "", fmt.Errorf("task canceled")
	}

	return extractDir, nil
}

// uniqueSubdir creates and returns destDir/stem, or destDir/stem-N for the
// smallest N that doesn't already exist, so two archives sharing a stem
// (e.g. two different "comic.zip" downloads) never collide.
func uniqueSubdir(destDir, stem string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	candidate := filepath.Join(destDir, stem)
	for n := 1; ; n++ {
		if err := os.Mkdir(candidate, 0o755); err == nil {
			return candidate, nil
		} else if !os.IsExist(err) {
			return "", err
		}
		candidate = filepath.Join(destDir, fmt.Sprintf("%s-%d", stem, n))
	}
}
