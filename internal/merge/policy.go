// Package merge decides which segments of an index should be merged.
//
// A Policy is a pure function from a segment snapshot to disjoint merge
// candidates. It runs synchronously on whichever goroutine triggered the
// re-evaluation, under the scheduler lock, so it must not block or do I/O.
package merge

import (
	"errors"

	"github.com/vexsearch/mergebench/internal/logging"
	"github.com/vexsearch/mergebench/internal/metrics"
	"github.com/vexsearch/mergebench/internal/segment"
)

// ErrInvalidTarget is returned for a bin-packing target of zero documents.
var ErrInvalidTarget = errors.New("target docs per segment must be positive")

// SegmentMeta is one entry of a segment snapshot.
type SegmentMeta = segment.Meta

// Candidate is a group of two or more segments to merge into one.
type Candidate []segment.ID

// Policy computes merge candidates for a snapshot. The snapshot must be
// treated as read-only. Candidates returned by one call are disjoint.
type Policy interface {
	ComputeMergeCandidates(segments []SegmentMeta) []Candidate
}

// observe emits the one diagnostic line every policy call produces.
func observe(logger *logging.Logger, run, policy string, segments []SegmentMeta) {
	metrics.IncPolicyInvocation(run)
	logger.Info("merge policy invoked", "run", run, "policy", policy, "count", len(segments))
}

func orNop(logger *logging.Logger) *logging.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}

// MergeWheneverPossible merges every segment into one as soon as two exist.
type MergeWheneverPossible struct {
	run    string
	logger *logging.Logger
}

// NewMergeWheneverPossible returns the greedy merge-all policy. run labels
// the diagnostic output.
func NewMergeWheneverPossible(run string, logger *logging.Logger) *MergeWheneverPossible {
	return &MergeWheneverPossible{run: run, logger: orNop(logger)}
}

func (p *MergeWheneverPossible) ComputeMergeCandidates(segments []SegmentMeta) []Candidate {
	observe(p.logger, p.run, "merge_whenever_possible", segments)

	if len(segments) < 2 {
		return nil
	}
	c := make(Candidate, len(segments))
	for i, s := range segments {
		c[i] = s.ID
	}
	return []Candidate{c}
}

// TargetDocsPerSegment packs segments, in snapshot order, into a bin whose
// document total stays strictly below the target.
//
// A bin is opened only when none exists, so at most one candidate is
// produced per call. Segments that do not fit are left for a later call.
type TargetDocsPerSegment struct {
	run    string
	target uint32
	logger *logging.Logger
}

// NewTargetDocsPerSegment returns the bin-packing policy for target docs.
func NewTargetDocsPerSegment(run string, target uint32, logger *logging.Logger) (*TargetDocsPerSegment, error) {
	if target == 0 {
		return nil, ErrInvalidTarget
	}
	return &TargetDocsPerSegment{run: run, target: target, logger: orNop(logger)}, nil
}

// Target returns the document ceiling.
func (p *TargetDocsPerSegment) Target() uint32 {
	return p.target
}

type bin struct {
	docs    uint64
	members Candidate
}

func (p *TargetDocsPerSegment) ComputeMergeCandidates(segments []SegmentMeta) []Candidate {
	observe(p.logger, p.run, "target_docs_per_segment", segments)

	var bins []*bin
	for _, s := range segments {
		d := uint64(s.NumDocs)
		placed := false
		for _, b := range bins {
			if b.docs+d < uint64(p.target) {
				b.docs += d
				b.members = append(b.members, s.ID)
				placed = true
				break
			}
		}
		if !placed && len(bins) == 0 {
			bins = append(bins, &bin{docs: d, members: Candidate{s.ID}})
		}
	}

	var out []Candidate
	for _, b := range bins {
		if len(b.members) >= 2 {
			out = append(out, b.members)
		}
	}
	return out
}

// NoMerge never merges.
type NoMerge struct{}

func (NoMerge) ComputeMergeCandidates([]SegmentMeta) []Candidate {
	return nil
}
