package segment

import (
	"context"
	"errors"
	"fmt"

	"github.com/vexsearch/mergebench/internal/fts"
	"github.com/vexsearch/mergebench/internal/schema"
	"github.com/vexsearch/mergebench/pkg/directory"
)

// Options configures how segments are written.
type Options struct {
	Compression Compression
}

// DefaultOptions returns zstd-compressed doc stores.
func DefaultOptions() Options {
	return Options{Compression: CompressionZstd}
}

// Writer accumulates documents in memory and writes them as one segment.
// A Writer is not safe for concurrent use.
type Writer struct {
	id         ID
	schema     *schema.Schema
	tokenizers map[string]fts.Tokenizer
	opts       Options

	index     *fts.IndexBuilder
	fast      *fastFields
	docs      [][]byte
	sizeBytes int
}

// NewWriter creates a writer for a fresh segment. Every tokenizer referenced
// by the schema must be registered in tokenizers.
func NewWriter(s *schema.Schema, tokenizers *fts.TokenizerManager, opts Options) (*Writer, error) {
	if opts.Compression == "" {
		opts.Compression = CompressionZstd
	}
	if !opts.Compression.IsValid() {
		return nil, fmt.Errorf("unknown doc store compression: %q", opts.Compression)
	}

	resolved := make(map[string]fts.Tokenizer)
	for _, name := range s.Tokenizers() {
		t, ok := tokenizers.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTokenizer, name)
		}
		resolved[name] = t
	}

	return &Writer{
		id:         NewID(),
		schema:     s,
		tokenizers: resolved,
		opts:       opts,
		index:      fts.NewIndexBuilder(),
		fast:       newFastFields(),
	}, nil
}

// ID returns the id the segment will be written under.
func (w *Writer) ID() ID {
	return w.id
}

// NumDocs returns the number of buffered documents.
func (w *Writer) NumDocs() uint32 {
	return w.fast.numDocs
}

// SizeBytes estimates the memory held by buffered documents.
func (w *Writer) SizeBytes() int {
	return w.sizeBytes
}

// AddDocument indexes doc as the next row of the segment.
func (w *Writer) AddDocument(doc *schema.Document) error {
	if err := w.schema.ValidateDocument(doc); err != nil {
		return err
	}

	stored, err := encodeDocument(w.schema, doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	row := w.fast.numDocs
	for _, f := range w.schema.Fields() {
		for _, v := range doc.Get(f.Name) {
			switch f.Type {
			case schema.TypeText:
				w.index.AddTokens(f.Name, row, w.tokenizers[f.Tokenizer].Tokenize(v))
			case schema.TypeString:
				w.index.AddTokens(f.Name, row, []string{v})
			case schema.TypeFacet:
				w.index.AddTokens(f.Name, row, schema.FacetAncestors(v))
			}
		}
	}
	w.fast.addRow(w.schema, doc)
	w.docs = append(w.docs, stored)
	w.sizeBytes += doc.SizeBytes() + len(stored)
	return nil
}

// Finish writes the six component files of the segment to dir.
func (w *Writer) Finish(ctx context.Context, dir directory.Directory) (Meta, error) {
	if w.fast.numDocs == 0 {
		return Meta{}, ErrEmptySegment
	}
	if err := writeComponents(ctx, dir, w.id, w.index, w.fast, w.docs, w.opts.Compression); err != nil {
		return Meta{}, err
	}
	return Meta{ID: w.id, NumDocs: w.fast.numDocs}, nil
}

func writeComponents(ctx context.Context, dir directory.Directory, id ID, index *fts.IndexBuilder, fast *fastFields, docs [][]byte, c Compression) error {
	enc, err := index.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	store, err := encodeStore(docs, c)
	if err != nil {
		return fmt.Errorf("failed to encode doc store: %w", err)
	}

	files := []struct {
		comp Component
		data []byte
	}{
		{ComponentTerm, enc.Terms},
		{ComponentIdx, enc.Postings},
		{ComponentPos, enc.Positions},
		{ComponentFieldNorm, enc.FieldNorms},
		{ComponentFast, fast.encode()},
		{ComponentStore, store},
	}

	for i, f := range files {
		if err := dir.Write(ctx, id.FileName(f.comp), f.data); err != nil {
			for _, written := range files[:i] {
				_ = dir.Delete(ctx, id.FileName(written.comp))
			}
			return fmt.Errorf("failed to write %s: %w", id.FileName(f.comp), err)
		}
	}
	return nil
}

// Delete removes every component file of the segment. Missing files are not
// an error.
func Delete(ctx context.Context, dir directory.Directory, id ID) error {
	var errs []error
	for _, name := range id.FileNames() {
		if err := dir.Delete(ctx, name); err != nil && !errors.Is(err, directory.ErrNotFound) {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
