package bench

import (
	"context"
	"fmt"
	"strings"

	"github.com/vexsearch/mergebench/pkg/directory"
)

// RunResult is what one scenario reports.
type RunResult struct {
	TotalIndexTime         string            `json:"totalIndexTime"`
	FinalSegmentFileCounts SegmentFileCounts `json:"finalSegmentFileCounts"`
}

// SegmentFileCounts counts index files by segment component suffix.
type SegmentFileCounts struct {
	Fast      uint32 `json:"fast"`
	FieldNorm uint32 `json:"fieldnorm"`
	Idx       uint32 `json:"idx"`
	Pos       uint32 `json:"pos"`
	Store     uint32 `json:"store"`
	Term      uint32 `json:"term"`
}

// Total returns the number of counted files.
func (c SegmentFileCounts) Total() uint32 {
	return c.Fast + c.FieldNorm + c.Idx + c.Pos + c.Store + c.Term
}

// Uniform reports whether every component has the same count, which holds
// whenever no segment is half written or half deleted.
func (c SegmentFileCounts) Uniform() bool {
	return c.Fast == c.FieldNorm && c.Fast == c.Idx && c.Fast == c.Pos &&
		c.Fast == c.Store && c.Fast == c.Term
}

// CountSegmentFiles counts files in dir by suffix. Files with any other
// suffix, meta.json included, are ignored.
func CountSegmentFiles(ctx context.Context, dir directory.Directory) (SegmentFileCounts, error) {
	files, err := dir.List(ctx)
	if err != nil {
		return SegmentFileCounts{}, fmt.Errorf("failed to list index files: %w", err)
	}

	var c SegmentFileCounts
	for _, f := range files {
		switch {
		case strings.HasSuffix(f.Name, "fast"):
			c.Fast++
		case strings.HasSuffix(f.Name, "fieldnorm"):
			c.FieldNorm++
		case strings.HasSuffix(f.Name, "idx"):
			c.Idx++
		case strings.HasSuffix(f.Name, "pos"):
			c.Pos++
		case strings.HasSuffix(f.Name, "store"):
			c.Store++
		case strings.HasSuffix(f.Name, "term"):
			c.Term++
		}
	}
	return c, nil
}
