package provider

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kabegame/kabegame-sub003/internal/cache"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// warmUpFanOut bounds how many Provider.GetChildren calls the warm-up
// walk issues concurrently per BFS level.
const warmUpFanOut = 8

// Runtime is the Provider Tree's cache + path walker (spec §4.5): a
// descriptor-keyed LRU of live Provider instances, rebuilt on demand
// through Factory on a miss, plus the segment-by-segment path resolution
// every IPC/virtual-drive lookup goes through.
type Runtime struct {
	factory *Factory
	cache   *cache.LRU[string, Provider]
}

// NewRuntime builds a Runtime backed by factory, caching up to capacity
// live Provider instances.
func NewRuntime(factory *Factory, capacity int) (*Runtime, error) {
	c, err := cache.New[string, Provider](capacity, nil)
	if err != nil {
		return nil, err
	}
	return &Runtime{factory: factory, cache: c}, nil
}

// getOrBuild returns the cached Provider for d, constructing and caching
// one via the factory on a miss.
func (r *Runtime) getOrBuild(d Descriptor) (Provider, bool) {
	p, err := r.cache.GetOrCreate(d.Key(), func() (Provider, error) {
		built := r.factory.Build(d)
		if built == nil {
			return nil, errNotSupported("build provider for descriptor")
		}
		return built, nil
	})
	if err != nil {
		return nil, false
	}
	return p, true
}

// adopt returns the canonical cached instance for p's descriptor,
// registering p itself if nothing was cached yet. This keeps two
// concurrently-discovered references to the same logical node (e.g. the
// same Album reached by two different paths) sharing one Provider.
func (r *Runtime) adopt(p Provider) Provider {
	key := p.Descriptor().Key()
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}
	r.cache.Add(key, p)
	return p
}

// Root returns the runtime's Provider Tree root, mount being true for a
// virtual drive (按时间/按插件/按任务/画册/全部 root) or false for the flat
// gallery browse root.
func (r *Runtime) Root(mount bool) Provider {
	d := rootDescriptor()
	if !mount {
		d = galleryRootDescriptor()
	}
	p, _ := r.getOrBuild(d)
	return p
}

// ResultKind discriminates what Resolve found at a path.
type ResultKind int

const (
	ResolveNotFound ResultKind = iota
	ResolveDirectory
	ResolveFileResult
)

// Result is the outcome of walking a slash-separated path.
type Result struct {
	Kind         ResultKind
	Provider     Provider
	ImageID      types.ImageID
	ResolvedPath string
}

// Resolve walks path segment by segment from root, consulting each
// provider's GetChild first (the "listed" fast path) and falling back to
// ResolveChild for dynamic children that never appear in List. The final
// segment may additionally resolve to a file via ResolveFile if no
// directory child matched (spec §4.5).
func (r *Runtime) Resolve(mount bool, path string) Result {
	cur := r.Root(mount)
	if cur == nil {
		return Result{Kind: ResolveNotFound}
	}

	segments := splitPath(path)
	for i, seg := range segments {
		if child := cur.GetChild(seg); child != nil {
			cur = r.adopt(child)
			continue
		}
		if rc := cur.ResolveChild(seg); rc.Kind != NotFound && rc.Provider != nil {
			cur = r.adopt(rc.Provider)
			continue
		}
		if i == len(segments)-1 {
			if imageID, resolved, ok := cur.ResolveFile(seg); ok {
				return Result{Kind: ResolveFileResult, ImageID: imageID, ResolvedPath: resolved}
			}
		}
		return Result{Kind: ResolveNotFound}
	}
	return Result{Kind: ResolveDirectory, Provider: cur}
}

func splitPath(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type warmNode struct {
	provider Provider
	depth    int
	hot      bool
}

// WarmUp walks the tree breadth-first from root, populating the cache up
// to shallowDepth everywhere and all the way to the leaves under any
// directory named in hotDirNames (e.g. 画册, 按插件), matching spec
// §4.5's warm-up pass. It is cancelable and yields between BFS levels.
func (r *Runtime) WarmUp(ctx context.Context, mount bool, shallowDepth int, hotDirNames []string) error {
	root := r.Root(mount)
	if root == nil {
		return nil
	}
	frontier := []warmNode{{provider: root, depth: 0}}

	for len(frontier) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(warmUpFanOut)
		children := make([][]NamedProvider, len(frontier))

		for i, n := range frontier {
			i, n := i, n
			if n.depth >= shallowDepth && !n.hot {
				continue
			}
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				kids, err := n.provider.GetChildren()
				if err != nil {
					return err
				}
				children[i] = kids
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var next []warmNode
		for i, n := range frontier {
			for _, c := range children[i] {
				cached := r.adopt(c.Provider)
				next = append(next, warmNode{
					provider: cached,
					depth:    n.depth + 1,
					hot:      n.hot || isHotDir(c.Name, hotDirNames),
				})
			}
		}
		frontier = next
	}
	return nil
}

func isHotDir(name string, hotDirNames []string) bool {
	for _, h := range hotDirNames {
		if ciEqual(name, h) {
			return true
		}
	}
	return false
}
