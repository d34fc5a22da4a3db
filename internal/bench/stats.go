package bench

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// PolicyStats summarizes merge policy diagnostic lines: how many times the
// policy ran and how often it saw each snapshot length.
type PolicyStats struct {
	Calls   int            `json:"calls"`
	Lengths map[string]int `json:"lengths"`
	// Skipped counts lines that are not policy diagnostics.
	Skipped int `json:"skipped"`
}

// SortedLengths returns the observed snapshot lengths in ascending order.
func (s *PolicyStats) SortedLengths() []int {
	out := make([]int, 0, len(s.Lengths))
	for k := range s.Lengths {
		if n, err := strconv.Atoi(k); err == nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

type policyLine struct {
	Run   *string         `json:"run"`
	Count json.RawMessage `json:"count"`
}

// ParsePolicyStats reads a JSON-lines log and aggregates every line carrying
// a string run and a count, given as a number or a numeric string. A
// non-empty run restricts the aggregation to that label.
func ParsePolicyStats(r io.Reader, run string) (*PolicyStats, error) {
	stats := &PolicyStats{Lengths: make(map[string]int)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var line policyLine
		if err := json.Unmarshal([]byte(text), &line); err != nil || line.Run == nil {
			stats.Skipped++
			continue
		}
		count, ok := parseCount(line.Count)
		if !ok {
			stats.Skipped++
			continue
		}
		if run != "" && *line.Run != run {
			continue
		}
		stats.Calls++
		stats.Lengths[strconv.Itoa(count)]++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return stats, nil
}

func parseCount(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
