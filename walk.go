package zarr

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxDepth bounds how many levels below the root the walk descends.
const DefaultMaxDepth = 64

// walker visits a hierarchy depth-first, pre-order. Every call returns the
// aggregate of its own subtree and the caller merges it, so no accumulator is
// shared between calls. Sibling subtrees are handed to extra goroutines only
// while tokens remain, so at most concurrency goroutines read the store at
// once regardless of depth.
type walker struct {
	store    Store
	codec    KeyCodec
	log      zerolog.Logger
	metrics  *Metrics
	strict   bool
	maxDepth int
	tokens   *semaphore.Weighted
}

func newWalker(store Store, opts Options) *walker {
	w := &walker{
		store:    store,
		codec:    opts.Codec,
		log:      zerolog.Nop(),
		metrics:  opts.Metrics,
		strict:   opts.StrictListing,
		maxDepth: opts.MaxDepth,
	}
	if opts.Logger != nil {
		w.log = *opts.Logger
	}
	if w.codec == nil {
		w.codec = IdentityCodec{}
	}
	if w.maxDepth <= 0 {
		w.maxDepth = DefaultMaxDepth
	}
	if opts.Concurrency > 1 {
		// the calling goroutine does work too
		w.tokens = semaphore.NewWeighted(int64(opts.Concurrency - 1))
	}
	return w
}

// walk returns every metadata document of the hierarchy in store, root
// documents first, keyed by hierarchical key. The root must be a group.
func (w *walker) walk(ctx context.Context) (*Aggregate, error) {
	agg := NewAggregate(w.codec)
	root, err := w.readRoot()
	if err != nil {
		return nil, err
	}
	if err := insertNode(agg, root); err != nil {
		return nil, err
	}
	w.metrics.recordNode(root)

	sub, err := w.walkGroup(ctx, nil)
	if err != nil {
		return nil, err
	}
	agg.Merge(sub)
	return agg, nil
}

// readRoot reads the root documents without probing for .zarray, the root
// having already been validated as a group.
func (w *walker) readRoot() (*Node, error) {
	n := &Node{Kind: NodeGroup}
	var err error
	if n.Core, err = readCoreDocument(w.store, string(MTGroup)); err != nil {
		return nil, err
	}
	if n.Attrs, err = readAttributes(w.store, string(MTAttributes)); err != nil {
		return nil, err
	}
	return n, nil
}

func (w *walker) walkGroup(ctx context.Context, p Path) (*Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	children, err := w.store.List(p.String())
	if err != nil {
		if w.strict {
			return nil, newError(ErrUnreadableDirectory, p.String(), err)
		}
		w.log.Warn().Err(err).Str("path", p.String()).Msg("cannot list directory, treating it as empty")
		w.metrics.recordUnreadableDir()
		return NewAggregate(w.codec), nil
	}
	if len(children) > 0 && len(p)+1 > w.maxDepth {
		return nil, newError(ErrMaxDepthExceeded, p.String(), fmt.Errorf("more than %d levels deep", w.maxDepth))
	}

	results, err := w.visitAll(ctx, p, children)
	if err != nil {
		return nil, err
	}

	// merging in listing order keeps the output identical to a sequential walk
	agg := NewAggregate(w.codec)
	for _, sub := range results {
		agg.Merge(sub)
	}
	return agg, nil
}

// visitAll visits the children of p, returning their aggregates in listing
// order. A child runs on its own goroutine when a token is free and inline
// otherwise, so nested groups never wait on each other for tokens.
func (w *walker) visitAll(ctx context.Context, p Path, children []string) ([]*Aggregate, error) {
	results := make([]*Aggregate, len(children))
	if w.tokens == nil || len(children) < 2 {
		for i, name := range children {
			var err error
			if results[i], err = w.visit(ctx, p.Join(name)); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range children {
		i, child := i, p.Join(name)
		if w.tokens.TryAcquire(1) {
			g.Go(func() (err error) {
				defer w.tokens.Release(1)
				results[i], err = w.visit(gctx, child)
				return err
			})
			continue
		}
		var err error
		if results[i], err = w.visit(gctx, child); err != nil {
			cancel()
			if gerr := g.Wait(); gerr != nil {
				return nil, gerr
			}
			return nil, err
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// visit collects the documents of the directory at p. Arrays are leaves and
// plain directories are not descended into.
func (w *walker) visit(ctx context.Context, p Path) (*Aggregate, error) {
	agg := NewAggregate(w.codec)
	n, err := ReadNode(w.store, p)
	if err != nil {
		return nil, err
	}
	if n.Kind == NodeNeither {
		w.log.Debug().Str("path", p.String()).Msg("skipping plain directory")
		return agg, nil
	}

	w.log.Debug().Str("path", p.String()).Stringer("kind", n.Kind).Bool("attrs", n.Attrs != nil).Msg("found node")
	w.metrics.recordNode(n)
	if err := insertNode(agg, n); err != nil {
		return nil, err
	}

	if n.Kind == NodeGroup {
		sub, err := w.walkGroup(ctx, p)
		if err != nil {
			return nil, err
		}
		agg.Merge(sub)
	}
	return agg, nil
}

func insertNode(agg *Aggregate, n *Node) error {
	if err := agg.Insert(n.Path.Key(n.Kind.MetaType()), n.Core); err != nil {
		return err
	}
	if n.Attrs != nil {
		return agg.Insert(n.Path.Key(MTAttributes), n.Attrs)
	}
	return nil
}
