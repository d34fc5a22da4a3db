// Package bench drives the merge policy benchmark: it indexes a people
// dataset under several commit cadence and merge policy combinations and
// reports the elapsed time and the segment files left behind.
package bench

import (
	"errors"
	"fmt"

	"github.com/vexsearch/mergebench/internal/logging"
	"github.com/vexsearch/mergebench/internal/merge"
)

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrInvalidScenario = errors.New("invalid scenario")
)

// Cadence is how often a run commits.
type Cadence string

const (
	// CadenceSingleCommit commits once after every document was added.
	CadenceSingleCommit Cadence = "single_commit"
	// CadenceCommitEachDocument commits after every added document.
	CadenceCommitEachDocument Cadence = "commit_each_document"
)

// PolicyKind names a merge policy.
type PolicyKind string

const (
	PolicyGreedy     PolicyKind = "greedy"
	PolicyTargetDocs PolicyKind = "target_docs"
)

// DefaultTargetDocs is the bin-packing target of the target_docs scenarios.
const DefaultTargetDocs = 10000

// Scenario is one benchmark run configuration.
type Scenario struct {
	// Label tags the policy's diagnostic lines, e.g. "a".
	Label         string
	Cadence       Cadence
	Policy        PolicyKind
	Target        uint32
	WaitForMerges bool
}

// Validate checks cadence, policy and target.
func (s Scenario) Validate() error {
	if s.Label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidScenario)
	}
	switch s.Cadence {
	case CadenceSingleCommit, CadenceCommitEachDocument:
	default:
		return fmt.Errorf("%w: unknown cadence %q", ErrInvalidScenario, s.Cadence)
	}
	switch s.Policy {
	case PolicyGreedy:
	case PolicyTargetDocs:
		if s.Target == 0 {
			return fmt.Errorf("%w: %s needs a positive target", ErrInvalidScenario, s.Policy)
		}
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidScenario, s.Policy)
	}
	return nil
}

// NewPolicy builds a fresh policy for one run.
func (s Scenario) NewPolicy(logger *logging.Logger) (merge.Policy, error) {
	switch s.Policy {
	case PolicyGreedy:
		return merge.NewMergeWheneverPossible(s.Label, logger), nil
	case PolicyTargetDocs:
		return merge.NewTargetDocsPerSegment(s.Label, s.Target, logger)
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidScenario, s.Policy)
	}
}

func (s Scenario) String() string {
	wait := "no wait"
	if s.WaitForMerges {
		wait = "wait"
	}
	policy := string(s.Policy)
	if s.Policy == PolicyTargetDocs {
		policy = fmt.Sprintf("%s(%d)", s.Policy, s.Target)
	}
	return fmt.Sprintf("%s: %s / %s / %s", s.Label, s.Cadence, policy, wait)
}

// Scenarios returns runs a through h: every combination of cadence, policy
// and waiting, in that nesting order.
func Scenarios(target uint32) []Scenario {
	const labels = "abcdefgh"
	var out []Scenario
	for _, cadence := range []Cadence{CadenceSingleCommit, CadenceCommitEachDocument} {
		for _, policy := range []PolicyKind{PolicyGreedy, PolicyTargetDocs} {
			for _, wait := range []bool{false, true} {
				sc := Scenario{
					Label:         labels[len(out) : len(out)+1],
					Cadence:       cadence,
					Policy:        policy,
					WaitForMerges: wait,
				}
				if policy == PolicyTargetDocs {
					sc.Target = target
				}
				out = append(out, sc)
			}
		}
	}
	return out
}

// Select returns the scenarios named by labels, in the order given. No
// labels selects all of them.
func Select(all []Scenario, labels []string) ([]Scenario, error) {
	if len(labels) == 0 {
		return all, nil
	}
	byLabel := make(map[string]Scenario, len(all))
	for _, s := range all {
		byLabel[s.Label] = s
	}
	out := make([]Scenario, 0, len(labels))
	for _, l := range labels {
		s, ok := byLabel[l]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, l)
		}
		out = append(out, s)
	}
	return out, nil
}
