package bench

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexsearch/mergebench/internal/index"
	"github.com/vexsearch/mergebench/internal/logging"
	"github.com/vexsearch/mergebench/internal/merge"
	"github.com/vexsearch/mergebench/internal/people"
	"github.com/vexsearch/mergebench/pkg/directory"
)

func testRunner(t *testing.T, dir directory.Directory, logger *logging.Logger) *Runner {
	t.Helper()
	opts := Options{Index: index.DefaultOptions(), Logger: logger}
	opts.Index.MergeWorkers = 2
	r, err := NewRunner(dir, opts)
	require.NoError(t, err)
	return r
}

func scenario(t *testing.T, label string, target uint32) Scenario {
	t.Helper()
	all, err := Select(Scenarios(target), []string{label})
	require.NoError(t, err)
	return all[0]
}

func allOnes() SegmentFileCounts {
	return SegmentFileCounts{Fast: 1, FieldNorm: 1, Idx: 1, Pos: 1, Store: 1, Term: 1}
}

func TestScenarios(t *testing.T) {
	all := Scenarios(DefaultTargetDocs)
	require.Len(t, all, 8)

	want := []struct {
		label   string
		cadence Cadence
		policy  PolicyKind
		wait    bool
	}{
		{"a", CadenceSingleCommit, PolicyGreedy, false},
		{"b", CadenceSingleCommit, PolicyGreedy, true},
		{"c", CadenceSingleCommit, PolicyTargetDocs, false},
		{"d", CadenceSingleCommit, PolicyTargetDocs, true},
		{"e", CadenceCommitEachDocument, PolicyGreedy, false},
		{"f", CadenceCommitEachDocument, PolicyGreedy, true},
		{"g", CadenceCommitEachDocument, PolicyTargetDocs, false},
		{"h", CadenceCommitEachDocument, PolicyTargetDocs, true},
	}
	for i, w := range want {
		sc := all[i]
		assert.Equal(t, w.label, sc.Label)
		assert.Equal(t, w.cadence, sc.Cadence, sc.Label)
		assert.Equal(t, w.policy, sc.Policy, sc.Label)
		assert.Equal(t, w.wait, sc.WaitForMerges, sc.Label)
		if sc.Policy == PolicyTargetDocs {
			assert.Equal(t, uint32(DefaultTargetDocs), sc.Target)
		} else {
			assert.Zero(t, sc.Target)
		}
		assert.NoError(t, sc.Validate())
	}
}

func TestSelect(t *testing.T) {
	all := Scenarios(DefaultTargetDocs)

	got, err := Select(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, 8)

	got, err = Select(all, []string{"h", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "h", got[0].Label)
	assert.Equal(t, "a", got[1].Label)

	_, err = Select(all, []string{"z"})
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name string
		sc   Scenario
	}{
		{"empty label", Scenario{Cadence: CadenceSingleCommit, Policy: PolicyGreedy}},
		{"unknown cadence", Scenario{Label: "x", Cadence: "hourly", Policy: PolicyGreedy}},
		{"unknown policy", Scenario{Label: "x", Cadence: CadenceSingleCommit, Policy: "log"}},
		{"zero target", Scenario{Label: "x", Cadence: CadenceSingleCommit, Policy: PolicyTargetDocs}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.sc.Validate(), ErrInvalidScenario)
		})
	}
}

func TestScenarioNewPolicy(t *testing.T) {
	p, err := scenario(t, "a", 100).NewPolicy(nil)
	require.NoError(t, err)
	assert.IsType(t, &merge.MergeWheneverPossible{}, p)

	p, err = scenario(t, "c", 100).NewPolicy(nil)
	require.NoError(t, err)
	require.IsType(t, &merge.TargetDocsPerSegment{}, p)
	assert.Equal(t, uint32(100), p.(*merge.TargetDocsPerSegment).Target())

	assert.Contains(t, scenario(t, "h", 100).String(), "target_docs(100)")
}

func TestCountSegmentFiles(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemoryDirectory()
	for _, name := range []string{
		"a.fast", "a.fieldnorm", "a.idx", "a.pos", "a.store", "a.term",
		"b.fast", "b.term",
		"meta.json", "writer.lock.tmp",
	} {
		require.NoError(t, dir.Write(ctx, name, []byte("x")))
	}

	c, err := CountSegmentFiles(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, SegmentFileCounts{Fast: 2, FieldNorm: 1, Idx: 1, Pos: 1, Store: 1, Term: 2}, c)
	assert.Equal(t, uint32(8), c.Total())
	assert.False(t, c.Uniform())
	assert.True(t, allOnes().Uniform())
}

func TestNewRunnerRequiresResetter(t *testing.T) {
	type plain struct{ directory.Directory }
	_, err := NewRunner(plain{directory.NewMemoryDirectory()}, Options{})
	assert.ErrorIs(t, err, directory.ErrResetUnsupported)
}

func TestRunSingleCommitGreedy(t *testing.T) {
	ctx := context.Background()
	records := people.Generate(50, 1)

	for _, label := range []string{"a", "b"} {
		t.Run(label, func(t *testing.T) {
			dir := directory.NewMemoryDirectory()
			r := testRunner(t, dir, nil)

			res, err := r.Run(ctx, scenario(t, label, DefaultTargetDocs), records)
			require.NoError(t, err)
			assert.Equal(t, allOnes(), res.FinalSegmentFileCounts)

			d, err := time.ParseDuration(res.TotalIndexTime)
			require.NoError(t, err)
			assert.Greater(t, d, time.Duration(0))
		})
	}
}

func TestRunCommitEachDocumentGreedyWait(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemoryDirectory()
	var logs bytes.Buffer
	r := testRunner(t, dir, logging.NewWithWriter(&logs))

	records := people.Generate(25, 2)
	res, err := r.Run(ctx, scenario(t, "f", DefaultTargetDocs), records)
	require.NoError(t, err)
	assert.Equal(t, allOnes(), res.FinalSegmentFileCounts)

	idx, err := index.Open(ctx, dir, index.DefaultOptions())
	require.NoError(t, err)
	m, err := idx.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(records)), m.NumDocs())
	assert.Equal(t, uint64(len(records)), m.Opstamp)

	stats, err := ParsePolicyStats(&logs, "f")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Calls, len(records), "one invocation per commit at least")
	assert.Positive(t, stats.Lengths["1"])
}

func TestRunCommitEachDocumentTargetWait(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemoryDirectory()
	r := testRunner(t, dir, nil)

	records := people.Generate(30, 3)
	res, err := r.Run(ctx, scenario(t, "h", 8), records)
	require.NoError(t, err)

	counts := res.FinalSegmentFileCounts
	assert.True(t, counts.Uniform(), "no half-written segment after waiting: %+v", counts)
	assert.GreaterOrEqual(t, counts.Fast, uint32(1))

	idx, err := index.Open(ctx, dir, index.DefaultOptions())
	require.NoError(t, err)
	segs, err := idx.SegmentMetas(ctx)
	require.NoError(t, err)
	assert.Len(t, segs, int(counts.Fast))

	var total uint64
	for _, s := range segs {
		total += uint64(s.NumDocs)
	}
	assert.Equal(t, uint64(len(records)), total)
}

func TestRunResetsDirectory(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemoryDirectory()
	require.NoError(t, dir.Write(ctx, "stale.store", []byte("old")))
	r := testRunner(t, dir, nil)

	res, err := r.Run(ctx, scenario(t, "b", DefaultTargetDocs), people.Generate(5, 4))
	require.NoError(t, err)
	assert.Equal(t, allOnes(), res.FinalSegmentFileCounts)

	ok, err := dir.Exists(ctx, "stale.store")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunCanceledDuringSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRunner(directory.NewMemoryDirectory(), Options{SettleDelay: time.Hour})
	require.NoError(t, err)
	_, err = r.Run(ctx, scenario(t, "a", DefaultTargetDocs), people.Generate(1, 5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAll(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t, directory.NewMemoryDirectory(), nil)
	records := people.Generate(10, 6)

	scenarios, err := Select(Scenarios(4), []string{"a", "f", "h"})
	require.NoError(t, err)

	var seen []string
	err = r.RunAll(ctx, scenarios, records, func(sc Scenario, res *RunResult) error {
		seen = append(seen, sc.Label)
		assert.True(t, res.FinalSegmentFileCounts.Total() > 0)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "f", "h"}, seen)

	errStop := errors.New("stop")
	seen = nil
	err = r.RunAll(ctx, scenarios, records, func(sc Scenario, _ *RunResult) error {
		seen = append(seen, sc.Label)
		return errStop
	})
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, []string{"a"}, seen)
}

func TestParsePolicyStats(t *testing.T) {
	log := strings.Join([]string{
		`{"run":"a","count":"3"}`,
		`{"run":"a","count":"3"}`,
		`{"run":"a","count":"1"}`,
		`{"time":"2024-01-01T00:00:00Z","level":"INFO","msg":"merge policy invoked","run":"b","policy":"merge_whenever_possible","count":2}`,
		`{"level":"INFO","msg":"scenario started","run":"a"}`,
		`{"run":7,"count":1}`,
		`{"run":"a","count":"many"}`,
		`All done!!`,
		``,
	}, "\n")

	stats, err := ParsePolicyStats(strings.NewReader(log), "")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Calls)
	assert.Equal(t, map[string]int{"1": 1, "2": 1, "3": 2}, stats.Lengths)
	assert.Equal(t, 4, stats.Skipped)
	assert.Equal(t, []int{1, 2, 3}, stats.SortedLengths())

	stats, err = ParsePolicyStats(strings.NewReader(log), "a")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Calls)
	assert.Equal(t, map[string]int{"1": 1, "3": 2}, stats.Lengths)
}
