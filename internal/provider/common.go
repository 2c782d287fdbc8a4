package provider

import (
	"github.com/kabegame/kabegame-sub003/internal/query"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// CommonProvider is the shared "all images matching a query" engine
// backing the All view plus every query-scoped group (Album,
// PluginImages, DateImages, TaskImages). It owns the greedy
// range-decomposition for any query whose match count exceeds LeafSize
// (spec §4.4.1), grounded on
// virtual_drive/providers/all.rs's AllProvider.
type CommonProvider struct {
	unsupported

	store *storage.Storage
	query query.ImageQuery
}

// NewCommonProvider builds the unfiltered "all images" view.
func NewCommonProvider(store *storage.Storage) *CommonProvider {
	return NewCommonProviderWithQuery(store, query.AllRecent())
}

// NewCommonProviderWithQuery builds a CommonProvider scoped to q.
func NewCommonProviderWithQuery(store *storage.Storage, q query.ImageQuery) *CommonProvider {
	return &CommonProvider{store: store, query: q}
}

func (p *CommonProvider) Descriptor() Descriptor { return allDescriptor(p.query) }

func (p *CommonProvider) List() ([]FsEntry, error) {
	total, err := p.store.GetImagesCountByQuery(p.query)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}
	if total <= LeafSize {
		rows, err := p.store.GetImagesFsEntriesByQuery(p.query, 0, total)
		if err != nil {
			return nil, err
		}
		return fsEntriesFromStorage(rows), nil
	}
	return listGreedySubdirsWithRemainder(p.store, p.query, 0, total)
}

func (p *CommonProvider) GetChild(name string) Provider {
	total, err := p.store.GetImagesCountByQuery(p.query)
	if err != nil || total == 0 || total <= LeafSize {
		return nil
	}
	offset, count, ok := parseRange(name)
	if !ok || !validateGreedyRange(offset, count, total) {
		return nil
	}
	depth := calcDepthForSize(count)
	return NewRangeProvider(p.store, p.query, offset, count, depth)
}

func (p *CommonProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }

func (p *CommonProvider) ResolveFile(name string) (types.ImageID, string, bool) {
	id, path, ok := resolveFileByName(p.store, name)
	return types.ImageID(id), path, ok
}

// RangeProvider is one node of the greedy decomposition tree: either a
// leaf (depth 0, enumerating files directly) or an interior node that
// recursively decomposes its own count.
type RangeProvider struct {
	unsupported

	store  *storage.Storage
	query  query.ImageQuery
	offset int
	count  int
	depth  int
}

// NewRangeProvider builds a RangeProvider over [offset, offset+count) of
// query's matches, at the given decomposition depth.
func NewRangeProvider(store *storage.Storage, q query.ImageQuery, offset, count, depth int) *RangeProvider {
	return &RangeProvider{store: store, query: q, offset: offset, count: count, depth: depth}
}

func (p *RangeProvider) Descriptor() Descriptor {
	return rangeDescriptor(p.query, p.offset, p.count, p.depth)
}

func (p *RangeProvider) List() ([]FsEntry, error) {
	if p.depth == 0 {
		rows, err := p.store.GetImagesFsEntriesByQuery(p.query, p.offset, p.count)
		if err != nil {
			return nil, err
		}
		return fsEntriesFromStorage(rows), nil
	}
	return listGreedySubdirsWithRemainder(p.store, p.query, p.offset, p.count)
}

func (p *RangeProvider) GetChild(name string) Provider {
	if p.depth == 0 {
		return nil
	}
	localOffset, localCount, ok := parseRange(name)
	if !ok || !validateGreedyRange(localOffset, localCount, p.count) {
		return nil
	}
	return NewRangeProvider(p.store, p.query, p.offset+localOffset, localCount, calcDepthForSize(localCount))
}

func (p *RangeProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }

func (p *RangeProvider) ResolveFile(name string) (types.ImageID, string, bool) {
	id, path, ok := resolveFileByName(p.store, name)
	return types.ImageID(id), path, ok
}
