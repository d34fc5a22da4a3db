package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vexsearch/mergebench/internal/index"
	"github.com/vexsearch/mergebench/internal/logging"
	"github.com/vexsearch/mergebench/internal/people"
	"github.com/vexsearch/mergebench/internal/schema"
	"github.com/vexsearch/mergebench/pkg/directory"
)

// Options configures a Runner.
type Options struct {
	Index index.Options
	// SettleDelay is slept before every scenario.
	SettleDelay time.Duration
	Logger      *logging.Logger
}

// Runner executes scenarios against one index directory, resetting it
// before each run.
type Runner struct {
	dir    directory.Directory
	schema *schema.Schema
	opts   Options
	logger *logging.Logger
}

// NewRunner returns a Runner over dir. dir must implement
// directory.Resetter.
func NewRunner(dir directory.Directory, opts Options) (*Runner, error) {
	if _, ok := dir.(directory.Resetter); !ok {
		return nil, directory.ErrResetUnsupported
	}
	s, err := people.BuildSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to build people schema: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{dir: dir, schema: s, opts: opts, logger: logger}, nil
}

// Run indexes records under sc and reports the elapsed time and the segment
// files present right after the last commit, or after merges settled when
// sc waits for them. The writer is closed afterwards, which waits for merges
// still running.
func (r *Runner) Run(ctx context.Context, sc Scenario, records []people.Person) (*RunResult, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger.WithRun(sc.Label)

	if err := sleep(ctx, r.opts.SettleDelay); err != nil {
		return nil, err
	}

	idx, err := r.prepareIndex(ctx, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("scenario started", "scenario", sc.String(), "documents", len(records))
	start := time.Now()

	policy, err := sc.NewPolicy(r.logger)
	if err != nil {
		return nil, err
	}
	w, err := idx.Writer(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to init writer: %w", err)
	}

	if err := feed(ctx, w, sc.Cadence, records); err != nil {
		return nil, errors.Join(err, w.Close(ctx))
	}
	if sc.WaitForMerges {
		if err := w.WaitMergingThreads(); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to wait for merging threads: %w", err), w.Close(ctx))
		}
	}
	elapsed := time.Since(start)

	counts, err := CountSegmentFiles(ctx, r.dir)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to count final segment files: %w", err), w.Close(ctx))
	}
	if err := w.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	logger.Info("scenario finished",
		"elapsed_ms", elapsed.Milliseconds(),
		"segment_files", counts.Total())
	return &RunResult{
		TotalIndexTime:         elapsed.String(),
		FinalSegmentFileCounts: counts,
	}, nil
}

// RunAll runs every scenario in order and hands each result to emit. It
// stops at the first failure.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario, records []people.Person, emit func(Scenario, *RunResult) error) error {
	for _, sc := range scenarios {
		res, err := r.Run(ctx, sc, records)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", sc.Label, err)
		}
		if err := emit(sc, res); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) prepareIndex(ctx context.Context, logger *logging.Logger) (*index.Index, error) {
	if err := r.dir.(directory.Resetter).Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to cleanup index directory: %w", err)
	}

	opts := r.opts.Index
	opts.Logger = logger
	idx, err := index.OpenOrCreate(ctx, r.dir, r.schema, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open people index: %w", err)
	}
	if err := people.RegisterTokenizers(idx.Tokenizers()); err != nil {
		return nil, fmt.Errorf("failed to register tokenizers: %w", err)
	}
	return idx, nil
}

func feed(ctx context.Context, w *index.Writer, cadence Cadence, records []people.Person) error {
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := records[i].ToDocument()
		if err != nil {
			return fmt.Errorf("failed to convert person into document: %w", err)
		}
		if err := w.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to add document to writer: %w", err)
		}
		if cadence == CadenceCommitEachDocument {
			if _, err := w.Commit(ctx); err != nil {
				return fmt.Errorf("failed to commit the writer: %w", err)
			}
		}
	}
	if cadence == CadenceSingleCommit {
		if _, err := w.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit the writer: %w", err)
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
