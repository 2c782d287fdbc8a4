package provider

import (
	"fmt"
	"strings"

	"github.com/kabegame/kabegame-sub003/internal/query"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// Kind discriminates the variants of Descriptor, mirroring
// core/src/providers/descriptor.rs's serde-tagged ProviderDescriptor enum.
type Kind int

const (
	KindRoot Kind = iota
	KindGalleryRoot
	KindAlbums
	KindAlbum
	KindPluginGroup
	KindDateGroup
	KindDateRangeRoot
	KindTaskGroup
	KindAll
	KindRange
)

// Descriptor is the persistable, cacheable identity of a Provider Tree
// node (spec §4.4). Two Descriptors that compare equal under Key address
// the same node and may share a cached Provider instance.
type Descriptor struct {
	Kind Kind

	AlbumID types.AlbumID
	Query   query.ImageQuery

	Offset int
	Count  int
	Depth  int
}

// Key renders d into a stable string suitable as a comparable cache key.
// query.ImageQuery's Args slice is not itself comparable, so the query is
// flattened into its decorator text, ordering mode, and stringified args.
func (d Descriptor) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", d.Kind)
	switch d.Kind {
	case KindAlbum:
		fmt.Fprintf(&b, "|%s", d.AlbumID)
	case KindAll:
		b.WriteByte('|')
		writeQueryKey(&b, d.Query)
	case KindRange:
		b.WriteByte('|')
		writeQueryKey(&b, d.Query)
		fmt.Fprintf(&b, "|%d|%d|%d", d.Offset, d.Count, d.Depth)
	}
	return b.String()
}

func writeQueryKey(b *strings.Builder, q query.ImageQuery) {
	fmt.Fprintf(b, "%d:%s:", q.OrderBy, q.Decorator)
	for i, a := range q.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%v", a)
	}
}

func rootDescriptor() Descriptor        { return Descriptor{Kind: KindRoot} }
func galleryRootDescriptor() Descriptor { return Descriptor{Kind: KindGalleryRoot} }
func albumsDescriptor() Descriptor      { return Descriptor{Kind: KindAlbums} }
func albumDescriptor(id types.AlbumID) Descriptor {
	return Descriptor{Kind: KindAlbum, AlbumID: id}
}
func pluginGroupDescriptor() Descriptor { return Descriptor{Kind: KindPluginGroup} }
func dateGroupDescriptor() Descriptor   { return Descriptor{Kind: KindDateGroup} }
func taskGroupDescriptor() Descriptor   { return Descriptor{Kind: KindTaskGroup} }
func allDescriptor(q query.ImageQuery) Descriptor {
	return Descriptor{Kind: KindAll, Query: q}
}
func rangeDescriptor(q query.ImageQuery, offset, count, depth int) Descriptor {
	return Descriptor{Kind: KindRange, Query: q, Offset: offset, Count: count, Depth: depth}
}
