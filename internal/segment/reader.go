package segment

import (
	"context"
	"fmt"

	"github.com/vexsearch/mergebench/internal/fts"
	"github.com/vexsearch/mergebench/internal/schema"
	"github.com/vexsearch/mergebench/pkg/directory"
)

// Reader is a fully loaded segment.
type Reader struct {
	meta  Meta
	index *fts.IndexBuilder
	fast  *fastFields
	docs  [][]byte
}

// Open reads every component file of segment id from dir.
func Open(ctx context.Context, dir directory.Directory, id ID) (*Reader, error) {
	files := make(map[Component][]byte, len(Components))
	for _, c := range Components {
		data, err := dir.Read(ctx, id.FileName(c))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", id.FileName(c), err)
		}
		files[c] = data
	}

	index, err := fts.Decode(&fts.Encoded{
		Terms:      files[ComponentTerm],
		Postings:   files[ComponentIdx],
		Positions:  files[ComponentPos],
		FieldNorms: files[ComponentFieldNorm],
	})
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", id, err)
	}

	fast, err := decodeFastFields(files[ComponentFast])
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", id, err)
	}

	docs, err := decodeStore(files[ComponentStore])
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", id, err)
	}
	if uint32(len(docs)) != fast.numDocs {
		return nil, fmt.Errorf("%w: segment %s store has %d documents, fast fields have %d",
			ErrCorrupt, id, len(docs), fast.numDocs)
	}

	return &Reader{
		meta:  Meta{ID: id, NumDocs: fast.numDocs},
		index: index,
		fast:  fast,
		docs:  docs,
	}, nil
}

func (r *Reader) Meta() Meta {
	return r.meta
}

func (r *Reader) NumDocs() uint32 {
	return r.meta.NumDocs
}

// Index returns the decoded inverted index.
func (r *Reader) Index() *fts.IndexBuilder {
	return r.index
}

// Document returns the stored fields of a row.
func (r *Reader) Document(row uint32) (*schema.Document, error) {
	if row >= uint32(len(r.docs)) {
		return nil, fmt.Errorf("row %d out of range (segment has %d documents)", row, len(r.docs))
	}
	return decodeDocument(r.docs[row])
}

// DocFreq returns the number of rows containing term in field.
func (r *Reader) DocFreq(field, term string) uint64 {
	idx := r.index.Field(field)
	if idx == nil {
		return 0
	}
	posting, ok := idx.TermPostings[term]
	if !ok {
		return 0
	}
	return posting.GetCardinality()
}

// Facets returns the facet paths of a row.
func (r *Reader) Facets(field string, row uint32) []string {
	return r.fast.facetValues(field, row)
}

// ValueHash returns the xxhash of a string field's value in a row, or 0.
func (r *Reader) ValueHash(field string, row uint32) uint64 {
	return r.fast.hash(field, row)
}
