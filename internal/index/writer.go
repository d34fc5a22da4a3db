package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vexsearch/mergebench/internal/logging"
	"github.com/vexsearch/mergebench/internal/merge"
	"github.com/vexsearch/mergebench/internal/metrics"
	"github.com/vexsearch/mergebench/internal/schema"
	"github.com/vexsearch/mergebench/internal/segment"
)

// Writer buffers documents, commits them as segments and owns the merge
// scheduler. AddDocument and Commit may be called from several goroutines;
// they are serialized.
type Writer struct {
	index  *Index
	sched  *scheduler
	logger *logging.Logger
	budget int

	mu          sync.Mutex
	buf         *segment.Writer
	uncommitted []segment.Meta
	closed      bool
}

func newWriter(ctx context.Context, idx *Index, m *Manifest, policy merge.Policy) (*Writer, error) {
	buf, err := segment.NewWriter(idx.schema, idx.tokenizers, idx.opts.Segment)
	if err != nil {
		return nil, err
	}
	return &Writer{
		index:  idx,
		sched:  newScheduler(ctx, idx.dir, m, policy, idx.opts),
		logger: idx.logger,
		budget: idx.opts.MemoryBudgetBytes,
		buf:    buf,
	}, nil
}

// AddDocument buffers doc. When the buffer exceeds the memory budget it is
// written as an uncommitted segment, invisible until the next Commit.
func (w *Writer) AddDocument(ctx context.Context, doc *schema.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}

	if err := w.buf.AddDocument(doc); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	metrics.IncDocumentsIndexed()

	if w.buf.SizeBytes() >= w.budget {
		return w.flushLocked(ctx)
	}
	return nil
}

func (w *Writer) flushLocked(ctx context.Context) error {
	if w.buf.NumDocs() == 0 {
		return nil
	}
	meta, err := w.buf.Finish(ctx, w.index.dir)
	if err != nil {
		return fmt.Errorf("failed to flush segment: %w", err)
	}
	w.uncommitted = append(w.uncommitted, meta)
	w.logger.Debug("flushed segment", "segment", meta.ID.String(), "num_docs", meta.NumDocs)

	next, err := segment.NewWriter(w.index.schema, w.index.tokenizers, w.index.opts.Segment)
	if err != nil {
		return err
	}
	w.buf = next
	return nil
}

// Commit flushes buffered documents, makes every uncommitted segment
// visible, persists meta.json and lets the merge policy run once. It does
// not wait for merges. It returns the new opstamp.
func (w *Writer) Commit(ctx context.Context) (uint64, error) {
	start := time.Now()
	opstamp, err := w.commit(ctx)
	metrics.ObserveCommit(time.Since(start).Seconds(), err)
	return opstamp, err
}

func (w *Writer) commit(ctx context.Context) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrWriterClosed
	}

	if err := w.flushLocked(ctx); err != nil {
		return 0, err
	}
	opstamp, err := w.sched.commit(w.uncommitted)
	if err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	w.logger.Debug("commit", "opstamp", opstamp, "new_segments", len(w.uncommitted))
	w.uncommitted = nil
	return opstamp, nil
}

// Rollback discards buffered documents and uncommitted segments.
func (w *Writer) Rollback(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	return w.rollbackLocked(ctx)
}

func (w *Writer) rollbackLocked(ctx context.Context) error {
	var errs []error
	for _, m := range w.uncommitted {
		if err := segment.Delete(ctx, w.index.dir, m.ID); err != nil {
			errs = append(errs, err)
		}
	}
	w.uncommitted = nil

	buf, err := segment.NewWriter(w.index.schema, w.index.tokenizers, w.index.opts.Segment)
	if err != nil {
		errs = append(errs, err)
	} else {
		w.buf = buf
	}
	return errors.Join(errs...)
}

// WaitMergingThreads blocks until every queued and running merge has
// finished, including merges scheduled meanwhile, and returns the first merge
// error. It neither cancels merges nor times out.
func (w *Writer) WaitMergingThreads() error {
	return w.sched.wait()
}

// SetMergePolicy replaces the policy used for later re-evaluations.
func (w *Writer) SetMergePolicy(p merge.Policy) {
	if p == nil {
		p = merge.NoMerge{}
	}
	w.sched.setPolicy(p)
}

// MergePolicy returns the current policy.
func (w *Writer) MergePolicy() merge.Policy {
	return w.sched.currentPolicy()
}

// Segments returns the live segments, including those being merged.
func (w *Writer) Segments() []segment.Meta {
	return w.sched.segments()
}

// NumBufferedDocs returns the number of documents not yet written.
func (w *Writer) NumBufferedDocs() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.NumDocs()
}

// Close discards uncommitted work, waits for merges and stops the merge
// workers. The index accepts a new writer afterwards.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	rbErr := w.rollbackLocked(ctx)
	w.mu.Unlock()

	err := w.sched.close()
	w.index.releaseWriter()
	return errors.Join(err, rbErr)
}
