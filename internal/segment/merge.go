package segment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vexsearch/mergebench/internal/fts"
	"github.com/vexsearch/mergebench/pkg/directory"
)

// Merge writes one new segment holding every row of sources, in source
// order, and returns its meta. The sources are left in place.
func Merge(ctx context.Context, dir directory.Directory, sources []ID, opts Options) (Meta, error) {
	if len(sources) == 0 {
		return Meta{}, ErrNoSources
	}
	if opts.Compression == "" {
		opts.Compression = CompressionZstd
	}

	readers := make([]*Reader, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range sources {
		g.Go(func() error {
			r, err := Open(gctx, dir, id)
			if err != nil {
				return err
			}
			readers[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Meta{}, fmt.Errorf("failed to read merge sources: %w", err)
	}

	index := fts.NewIndexBuilder()
	fast := newFastFields()
	var docs [][]byte
	var total uint32
	for _, r := range readers {
		index.AppendFrom(r.index, total)
		fast.appendFrom(r.fast)
		docs = append(docs, r.docs...)
		total += r.NumDocs()
	}
	if total == 0 {
		return Meta{}, ErrEmptySegment
	}

	id := NewID()
	if err := writeComponents(ctx, dir, id, index, fast, docs, opts.Compression); err != nil {
		return Meta{}, err
	}
	return Meta{ID: id, NumDocs: total}, nil
}
