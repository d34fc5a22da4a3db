package index

import (
	"context"
	"fmt"

	"github.com/vexsearch/mergebench/internal/segment"
	"github.com/vexsearch/mergebench/pkg/directory"
)

// GCResult reports an orphan collection pass.
type GCResult struct {
	FilesScanned int
	Deleted      []string
	Errors       []error
}

// collectOrphans deletes segment component files whose segment is not live
// in m. Files that are not segment components are left alone.
func collectOrphans(ctx context.Context, dir directory.Directory, m *Manifest) (*GCResult, error) {
	files, err := dir.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list index files: %w", err)
	}

	live := make(map[segment.ID]bool, len(m.Segments))
	for _, s := range m.Segments {
		live[s.ID] = true
	}

	result := &GCResult{FilesScanned: len(files)}
	for _, f := range files {
		id, _, ok := segment.ParseFileName(f.Name)
		if !ok || live[id] {
			continue
		}
		if err := dir.Delete(ctx, f.Name); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to delete %s: %w", f.Name, err))
			continue
		}
		result.Deleted = append(result.Deleted, f.Name)
	}
	return result, nil
}
