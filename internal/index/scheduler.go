package index

import (
	"context"
	"sync"
	"time"

	"github.com/vexsearch/mergebench/internal/logging"
	"github.com/vexsearch/mergebench/internal/merge"
	"github.com/vexsearch/mergebench/internal/metrics"
	"github.com/vexsearch/mergebench/internal/schema"
	"github.com/vexsearch/mergebench/internal/segment"
	"github.com/vexsearch/mergebench/pkg/directory"
)

// scheduler owns the live segment set and runs merges on a fixed pool of
// workers.
//
// Every change to the live set, every snapshot and every policy call happens
// under mu. Segments claimed by a queued or running merge are left out of
// snapshots until finishMerge releases them. pending counts queued plus
// running merges; candidates produced by a finishing merge are queued before
// that merge stops counting, so pending only reaches zero at quiescence.
type scheduler struct {
	ctx    context.Context
	dir    directory.Directory
	opts   segment.Options
	schema []schema.Field
	logger *logging.Logger

	mu      sync.Mutex
	work    *sync.Cond // queue non-empty or closed
	idle    *sync.Cond // pending reached zero
	policy  merge.Policy
	live    []segment.Meta
	claimed map[segment.ID]bool
	queue   []merge.Candidate
	pending int
	opstamp uint64
	err     error
	closed  bool

	wg sync.WaitGroup
}

func newScheduler(ctx context.Context, dir directory.Directory, m *Manifest, policy merge.Policy, opts Options) *scheduler {
	s := &scheduler{
		ctx:     context.WithoutCancel(ctx),
		dir:     dir,
		opts:    opts.Segment,
		schema:  m.Schema,
		logger:  opts.Logger,
		policy:  policy,
		live:    append([]segment.Meta(nil), m.Segments...),
		claimed: make(map[segment.ID]bool),
		opstamp: m.Opstamp,
	}
	s.work = sync.NewCond(&s.mu)
	s.idle = sync.NewCond(&s.mu)

	metrics.SetLiveSegments(len(s.live))
	for i := 0; i < opts.MergeWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *scheduler) setPolicy(p merge.Policy) {
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
}

func (s *scheduler) currentPolicy() merge.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// segments returns every live segment, claimed or not.
func (s *scheduler) segments() []segment.Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]segment.Meta(nil), s.live...)
}

// commit makes segs visible, persists meta.json and re-evaluates once.
func (s *scheduler) commit(segs []segment.Meta) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevLive := s.live
	s.live = append(append([]segment.Meta(nil), s.live...), segs...)
	s.opstamp++
	if err := s.saveLocked(); err != nil {
		s.live = prevLive
		s.opstamp--
		return 0, err
	}
	metrics.SetLiveSegments(len(s.live))

	s.maybeMergeLocked()
	return s.opstamp, nil
}

func (s *scheduler) saveLocked() error {
	return saveManifest(s.ctx, s.dir, &Manifest{
		Opstamp:  s.opstamp,
		Segments: s.live,
		Schema:   s.schema,
	})
}

// snapshotLocked returns the live segments not claimed by a merge, in
// creation order.
func (s *scheduler) snapshotLocked() []segment.Meta {
	snap := make([]segment.Meta, 0, len(s.live))
	for _, m := range s.live {
		if !s.claimed[m.ID] {
			snap = append(snap, m)
		}
	}
	return snap
}

// maybeMergeLocked asks the policy for candidates and queues the valid ones.
func (s *scheduler) maybeMergeLocked() {
	if s.err != nil || s.closed {
		return
	}

	snap := s.snapshotLocked()
	offered := make(map[segment.ID]bool, len(snap))
	for _, m := range snap {
		offered[m.ID] = true
	}

	candidates := s.policy.ComputeMergeCandidates(append([]segment.Meta(nil), snap...))
	for _, c := range candidates {
		if reason := s.rejectLocked(c, offered); reason != "" {
			s.logger.Warn("dropping merge candidate", "reason", reason, "segments", len(c))
			continue
		}
		c = append(merge.Candidate(nil), c...)
		for _, id := range c {
			s.claimed[id] = true
		}
		s.queue = append(s.queue, c)
		s.pending++
		s.logger.Debug("merge scheduled", "segments", len(c))
		s.work.Signal()
	}
	metrics.SetMergesInFlight(s.pending)
}

func (s *scheduler) rejectLocked(c merge.Candidate, offered map[segment.ID]bool) string {
	if len(c) < 2 {
		return "fewer than two segments"
	}
	seen := make(map[segment.ID]bool, len(c))
	for _, id := range c {
		switch {
		case !offered[id]:
			return "unknown segment " + id.Short()
		case seen[id]:
			return "duplicate segment " + id.Short()
		case s.claimed[id]:
			return "segment " + id.Short() + " already claimed"
		}
		seen[id] = true
	}
	return ""
}

func (s *scheduler) worker() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.work.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		c := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		start := time.Now()
		merged, err := segment.Merge(s.ctx, s.dir, c, s.opts)
		s.finishMerge(c, merged, err, time.Since(start))
	}
}

// finishMerge is the single point where merge results reach the live set.
func (s *scheduler) finishMerge(sources merge.Candidate, merged segment.Meta, err error, elapsed time.Duration) {
	s.mu.Lock()
	if err == nil {
		err = s.swapLocked(sources, merged)
		if err != nil {
			_ = segment.Delete(s.ctx, s.dir, merged.ID)
		}
	}
	for _, id := range sources {
		delete(s.claimed, id)
	}
	metrics.ObserveMerge(elapsed.Seconds(), err)

	if err != nil {
		s.failLocked(err)
		s.doneLocked()
		s.mu.Unlock()
		return
	}

	s.logger.Info("merge finished",
		"segment", merged.ID.String(),
		"sources", len(sources),
		"num_docs", merged.NumDocs,
		"duration_ms", elapsed.Milliseconds())
	s.maybeMergeLocked()
	s.mu.Unlock()

	// sources are no longer referenced by meta.json
	for _, id := range sources {
		if err := segment.Delete(s.ctx, s.dir, id); err != nil {
			s.logger.Warn("failed to delete merged segment files", "segment", id.String(), "error", err)
		}
	}

	s.mu.Lock()
	s.doneLocked()
	s.mu.Unlock()
}

// swapLocked replaces sources with merged in the live set and persists it.
func (s *scheduler) swapLocked(sources merge.Candidate, merged segment.Meta) error {
	drop := make(map[segment.ID]bool, len(sources))
	for _, id := range sources {
		drop[id] = true
	}
	next := make([]segment.Meta, 0, len(s.live)-len(sources)+1)
	for _, m := range s.live {
		if !drop[m.ID] {
			next = append(next, m)
		}
	}
	next = append(next, merged)

	prev := s.live
	s.live = next
	if err := s.saveLocked(); err != nil {
		s.live = prev
		return err
	}
	metrics.SetLiveSegments(len(s.live))
	return nil
}

// failLocked records the first merge error and drops queued merges.
func (s *scheduler) failLocked(err error) {
	s.logger.Error("merge failed", "error", err)
	if s.err == nil {
		s.err = err
	}
	for _, c := range s.queue {
		for _, id := range c {
			delete(s.claimed, id)
		}
		s.pending--
	}
	s.queue = nil
}

func (s *scheduler) doneLocked() {
	s.pending--
	metrics.SetMergesInFlight(s.pending)
	if s.pending == 0 {
		s.idle.Broadcast()
	}
}

// wait blocks until no merge is queued or running and returns the first
// merge error.
func (s *scheduler) wait() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	return s.err
}

// close waits for merges and stops the workers.
func (s *scheduler) close() error {
	err := s.wait()

	s.mu.Lock()
	s.closed = true
	s.work.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()
	return err
}
