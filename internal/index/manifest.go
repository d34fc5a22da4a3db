package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vexsearch/mergebench/internal/schema"
	"github.com/vexsearch/mergebench/internal/segment"
	"github.com/vexsearch/mergebench/internal/version"
	"github.com/vexsearch/mergebench/pkg/directory"
)

// MetaFileName is the file holding the committed state of an index.
const MetaFileName = "meta.json"

// Manifest is the committed state of an index: its schema and the live
// segments as of the last commit or merge.
type Manifest struct {
	// FormatVersion identifies the meta.json format version for compatibility.
	FormatVersion int `json:"format_version"`

	// Opstamp is incremented by every commit.
	Opstamp uint64 `json:"opstamp"`

	Segments []segment.Meta `json:"segments"`
	Schema   []schema.Field `json:"schema"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NumDocs returns the total document count across segments.
func (m *Manifest) NumDocs() uint64 {
	var n uint64
	for _, s := range m.Segments {
		n += uint64(s.NumDocs)
	}
	return n
}

// Validate checks format version and segment id uniqueness.
func (m *Manifest) Validate() error {
	if err := version.CheckMetaVersion(m.FormatVersion); err != nil {
		return err
	}
	seen := make(map[segment.ID]bool, len(m.Segments))
	for _, s := range m.Segments {
		if _, err := segment.ParseID(string(s.ID)); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptMeta, err)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: segment %s listed twice", ErrCorruptMeta, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

func loadManifest(ctx context.Context, dir directory.Directory) (*Manifest, error) {
	data, err := dir.Read(ctx, MetaFileName)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", MetaFileName, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMeta, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func saveManifest(ctx context.Context, dir directory.Directory, m *Manifest) error {
	m.FormatVersion = version.MetaFormatVersionCurrent
	m.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}
	if err := dir.Write(ctx, MetaFileName, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", MetaFileName, err)
	}
	return nil
}
