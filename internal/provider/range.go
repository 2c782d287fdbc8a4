package provider

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kabegame/kabegame-sub003/internal/query"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// LeafSize is the largest image count a directory may enumerate directly
// rather than decomposing into range subdirectories (spec §4.4.1).
const LeafSize = 1000

// GroupSize bounds how many same-magnitude range subdirectories can
// appear consecutively; it falls out of the greedy decomposition itself
// (the moment ten blocks of size P would accumulate, the next bigger
// power of ten becomes the greedy choice instead) but is named here to
// document that invariant.
const GroupSize = 10

// fsEntriesFromStorage converts storage.FsEntry rows into provider
// FsEntry values.
func fsEntriesFromStorage(rows []storage.FsEntry) []FsEntry {
	out := make([]FsEntry, len(rows))
	for i, r := range rows {
		out[i] = File(r.FileName, r.ImageID, r.ResolvedPath)
	}
	return out
}

// largestBlock returns the largest power of ten P >= LeafSize with P <=
// remaining, demoted by one order of magnitude when P == remaining: a
// block equal to the whole node would just rebuild an identical node
// (this is exactly what every group subdirectory's own count looks
// like, since it is itself a power of ten), so the demotion guarantees
// decomposition always makes forward progress.
func largestBlock(remaining int) int {
	p := LeafSize
	for p*10 <= remaining {
		p *= 10
	}
	if p == remaining {
		p /= 10
	}
	return p
}

// greedyBlocks returns the sequence of block sizes the greedy
// decomposition emits as subdirectories for a directory holding total
// entries (excluding the trailing leaf remainder). The block size only
// steps down by one order of magnitude once it stops fitting the
// remaining count, rather than being recomputed from scratch on every
// entry; recomputing from scratch would re-trigger the P == remaining
// demotion at every exact power-of-ten remainder along the way (e.g.
// both 100000 and, later, 10000), fragmenting what should be ten equal
// 10000-blocks into a lopsided mix of 10000- and 1000-blocks.
func greedyBlocks(total int) []int {
	if total <= LeafSize {
		return nil
	}
	var blocks []int
	remaining := total
	size := largestBlock(total)
	for remaining >= LeafSize {
		if size > remaining {
			size /= 10
			continue
		}
		blocks = append(blocks, size)
		remaining -= size
	}
	return blocks
}

// calcDepthForSize computes the child depth for a range holding count
// entries: 0 (leaf) at or below LeafSize, otherwise the ceiling of
// log10(count) minus 3.
func calcDepthForSize(count int) int {
	if count <= LeafSize {
		return 0
	}
	d := int(math.Ceil(math.Log10(float64(count)))) - 3
	if d < 0 {
		d = 0
	}
	return d
}

// parseRange parses a "<from>-<to>" 1-based inclusive range name into a
// 0-based (offset, count) pair.
func parseRange(name string) (offset, count int, ok bool) {
	from, to, found := strings.Cut(name, "-")
	if !found {
		return 0, 0, false
	}
	f, err1 := strconv.Atoi(from)
	t, err2 := strconv.Atoi(to)
	if err1 != nil || err2 != nil || f < 1 || t < f {
		return 0, 0, false
	}
	return f - 1, t - f + 1, true
}

// validateGreedyRange reports whether (offset, count) is exactly one of
// the subdirectories the greedy decomposition of total would emit,
// rejecting any made-up range a caller constructs by hand.
func validateGreedyRange(offset, count, total int) bool {
	blocks := greedyBlocks(total)
	localOffset := 0
	sum := 0
	for _, p := range blocks {
		if localOffset == offset && p == count {
			return true
		}
		localOffset += p
		sum += p
	}
	remainder := total - sum
	return remainder > 0 && localOffset == offset && remainder == count
}

// listGreedySubdirsWithRemainder lists a directory of total entries
// matching q, starting at absolute baseOffset, as a sequence of range
// subdirectories followed by the trailing leaf files.
func listGreedySubdirsWithRemainder(store *storage.Storage, q query.ImageQuery, baseOffset, total int) ([]FsEntry, error) {
	var entries []FsEntry
	localOffset := 0
	for _, p := range greedyBlocks(total) {
		entries = append(entries, Dir(fmt.Sprintf("%d-%d", localOffset+1, localOffset+p)))
		localOffset += p
	}
	if remaining := total - localOffset; remaining > 0 {
		rows, err := store.GetImagesFsEntriesByQuery(q, baseOffset+localOffset, remaining)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fsEntriesFromStorage(rows)...)
	}
	return entries, nil
}

// resolveFileByName implements the shared "<image_id>.<ext>" (or bare
// image id) file resolution both CommonProvider and RangeProvider use.
func resolveFileByName(store *storage.Storage, name string) (string, string, bool) {
	imageID := name
	if idx := strings.LastIndex(name, "."); idx > 0 {
		imageID = name[:idx]
	}
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return "", "", false
	}
	path, ok := store.ResolveGalleryImagePath(types.ImageID(imageID))
	if !ok {
		return "", "", false
	}
	return imageID, path, true
}
