// Package index implements an embedded segment index: committing buffered
// documents as segments and merging segments in the background according to
// a pluggable merge policy.
package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vexsearch/mergebench/internal/fts"
	"github.com/vexsearch/mergebench/internal/logging"
	"github.com/vexsearch/mergebench/internal/merge"
	"github.com/vexsearch/mergebench/internal/schema"
	"github.com/vexsearch/mergebench/internal/segment"
	"github.com/vexsearch/mergebench/pkg/directory"
)

const (
	// DefaultMergeWorkers is the size of the background merge pool.
	DefaultMergeWorkers = 4

	// DefaultMemoryBudgetBytes is the writer buffer size that triggers a flush.
	DefaultMemoryBudgetBytes = 50_000_000
)

// Options configures an index and its writer.
type Options struct {
	MergeWorkers      int
	MemoryBudgetBytes int
	Segment           segment.Options
	Logger            *logging.Logger
}

// DefaultOptions returns the defaults.
func DefaultOptions() Options {
	return Options{
		MergeWorkers:      DefaultMergeWorkers,
		MemoryBudgetBytes: DefaultMemoryBudgetBytes,
		Segment:           segment.DefaultOptions(),
	}
}

func (o Options) withDefaults() Options {
	if o.MergeWorkers <= 0 {
		o.MergeWorkers = DefaultMergeWorkers
	}
	if o.MemoryBudgetBytes <= 0 {
		o.MemoryBudgetBytes = DefaultMemoryBudgetBytes
	}
	if o.Segment.Compression == "" {
		o.Segment.Compression = segment.CompressionZstd
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	return o
}

// Index is a handle on an index stored in a directory.
// At most one Writer may be open per Index.
type Index struct {
	dir        directory.Directory
	schema     *schema.Schema
	tokenizers *fts.TokenizerManager
	opts       Options
	logger     *logging.Logger

	mu         sync.Mutex
	writerOpen bool
}

// Create initializes a new, empty index in dir.
func Create(ctx context.Context, dir directory.Directory, s *schema.Schema, opts Options) (*Index, error) {
	if _, err := loadManifest(ctx, dir); err == nil {
		return nil, ErrIndexExists
	} else if !errors.Is(err, ErrIndexNotFound) {
		return nil, err
	}

	m := &Manifest{Schema: s.Fields()}
	if err := saveManifest(ctx, dir, m); err != nil {
		return nil, err
	}
	return newIndex(dir, s, opts), nil
}

// Open opens an existing index and deletes segment files that the committed
// meta does not reference.
func Open(ctx context.Context, dir directory.Directory, opts Options) (*Index, error) {
	m, err := loadManifest(ctx, dir)
	if err != nil {
		return nil, err
	}
	s, err := schema.FromFields(m.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMeta, err)
	}

	idx := newIndex(dir, s, opts)
	result, err := collectOrphans(ctx, dir, m)
	if err != nil {
		return nil, err
	}
	if len(result.Deleted) > 0 {
		idx.logger.Info("deleted orphan segment files", "count", len(result.Deleted))
	}
	for _, err := range result.Errors {
		idx.logger.Warn("orphan cleanup failed", "error", err)
	}
	return idx, nil
}

// OpenOrCreate opens the index in dir, creating it when absent. An existing
// index must have the same schema.
func OpenOrCreate(ctx context.Context, dir directory.Directory, s *schema.Schema, opts Options) (*Index, error) {
	idx, err := Open(ctx, dir, opts)
	if errors.Is(err, ErrIndexNotFound) {
		return Create(ctx, dir, s, opts)
	}
	if err != nil {
		return nil, err
	}
	if !idx.schema.Equal(s) {
		return nil, ErrSchemaMismatch
	}
	return idx, nil
}

func newIndex(dir directory.Directory, s *schema.Schema, opts Options) *Index {
	opts = opts.withDefaults()
	return &Index{
		dir:        dir,
		schema:     s,
		tokenizers: fts.NewTokenizerManager(),
		opts:       opts,
		logger:     opts.Logger,
	}
}

// Schema returns the index schema.
func (i *Index) Schema() *schema.Schema {
	return i.schema
}

// Tokenizers returns the index's tokenizer registry. Tokenizers referenced by
// the schema must be registered before a writer is opened.
func (i *Index) Tokenizers() *fts.TokenizerManager {
	return i.tokenizers
}

// Directory returns the directory the index is stored in.
func (i *Index) Directory() directory.Directory {
	return i.dir
}

// Meta reads the committed state from the directory.
func (i *Index) Meta(ctx context.Context) (*Manifest, error) {
	return loadManifest(ctx, i.dir)
}

// SegmentMetas returns the committed live segments.
func (i *Index) SegmentMetas(ctx context.Context) ([]segment.Meta, error) {
	m, err := i.Meta(ctx)
	if err != nil {
		return nil, err
	}
	return m.Segments, nil
}

// GarbageCollect deletes segment files not referenced by the committed meta.
// It fails while a writer is open, since the writer's uncommitted segments
// are not referenced yet.
func (i *Index) GarbageCollect(ctx context.Context) (*GCResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.writerOpen {
		return nil, ErrWriterExists
	}
	m, err := loadManifest(ctx, i.dir)
	if err != nil {
		return nil, err
	}
	return collectOrphans(ctx, i.dir, m)
}

// Writer opens the index writer. A nil policy never merges.
func (i *Index) Writer(ctx context.Context, policy merge.Policy) (*Writer, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.writerOpen {
		return nil, ErrWriterExists
	}

	m, err := loadManifest(ctx, i.dir)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		policy = merge.NoMerge{}
	}

	w, err := newWriter(ctx, i, m, policy)
	if err != nil {
		return nil, err
	}
	i.writerOpen = true
	return w, nil
}

func (i *Index) releaseWriter() {
	i.mu.Lock()
	i.writerOpen = false
	i.mu.Unlock()
}
