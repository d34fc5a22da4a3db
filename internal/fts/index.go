package fts

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// Encoding magics, one per segment component.
const (
	termsMagic     = "TERM"
	postingsMagic  = "POST"
	positionsMagic = "POSN"
	normsMagic     = "NORM"

	formatVersion uint32 = 1
)

// ErrCorrupt is returned when an encoded component cannot be decoded.
var ErrCorrupt = errors.New("fts: corrupt index data")

// FieldIndex is the inverted index of one text field within a segment.
type FieldIndex struct {
	// Field is the schema field name.
	Field string

	// TermPostings maps each term to the row IDs containing it.
	TermPostings map[string]*roaring.Bitmap

	// TermFreqs maps term -> row ID -> term frequency.
	TermFreqs map[string]map[uint32]uint32

	// TermPositions maps term -> row ID -> token positions.
	TermPositions map[string]map[uint32][]uint32

	// DocLengths maps row ID to the number of tokens in the field.
	DocLengths map[uint32]uint32
}

// NewFieldIndex creates an empty field index.
func NewFieldIndex(field string) *FieldIndex {
	return &FieldIndex{
		Field:         field,
		TermPostings:  make(map[string]*roaring.Bitmap),
		TermFreqs:     make(map[string]map[uint32]uint32),
		TermPositions: make(map[string]map[uint32][]uint32),
		DocLengths:    make(map[uint32]uint32),
	}
}

// AddTokens indexes the tokens of one value. A field holding several values
// in the same row accumulates positions after the previous value.
func (f *FieldIndex) AddTokens(docID uint32, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	base := f.DocLengths[docID]
	for i, token := range tokens {
		posting, ok := f.TermPostings[token]
		if !ok {
			posting = roaring.New()
			f.TermPostings[token] = posting
			f.TermFreqs[token] = make(map[uint32]uint32)
			f.TermPositions[token] = make(map[uint32][]uint32)
		}
		posting.Add(docID)
		f.TermFreqs[token][docID]++
		f.TermPositions[token][docID] = append(f.TermPositions[token][docID], base+uint32(i))
	}
	f.DocLengths[docID] = base + uint32(len(tokens))
}

// Terms returns the distinct terms in lexical order.
func (f *FieldIndex) Terms() []string {
	terms := make([]string, 0, len(f.TermPostings))
	for term := range f.TermPostings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// TotalDocs returns the number of rows with at least one token.
func (f *FieldIndex) TotalDocs() uint32 {
	return uint32(len(f.DocLengths))
}

// AvgDocLength returns the average field length over indexed rows.
func (f *FieldIndex) AvgDocLength() float64 {
	if len(f.DocLengths) == 0 {
		return 0
	}
	var total uint64
	for _, l := range f.DocLengths {
		total += uint64(l)
	}
	return float64(total) / float64(len(f.DocLengths))
}

// IndexBuilder accumulates field indexes for one segment.
type IndexBuilder struct {
	fields map[string]*FieldIndex
}

// NewIndexBuilder creates a new index builder.
func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{fields: make(map[string]*FieldIndex)}
}

// AddTokens indexes tokens for field in row docID.
func (b *IndexBuilder) AddTokens(field string, docID uint32, tokens []string) {
	idx, ok := b.fields[field]
	if !ok {
		idx = NewFieldIndex(field)
		b.fields[field] = idx
	}
	idx.AddTokens(docID, tokens)
}

// Field returns the index of a field, or nil.
func (b *IndexBuilder) Field(name string) *FieldIndex {
	return b.fields[name]
}

// Fields returns the indexed field names in lexical order.
func (b *IndexBuilder) Fields() []string {
	names := make([]string, 0, len(b.fields))
	for name := range b.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AppendFrom adds every field index of src with row IDs shifted by docOffset.
// Rows of src must not overlap rows already present once shifted.
func (b *IndexBuilder) AppendFrom(src *IndexBuilder, docOffset uint32) {
	for name, from := range src.fields {
		to, ok := b.fields[name]
		if !ok {
			to = NewFieldIndex(name)
			b.fields[name] = to
		}
		to.appendFrom(from, docOffset)
	}
}

func (f *FieldIndex) appendFrom(src *FieldIndex, docOffset uint32) {
	for term, posting := range src.TermPostings {
		dst, ok := f.TermPostings[term]
		if !ok {
			dst = roaring.New()
			f.TermPostings[term] = dst
			f.TermFreqs[term] = make(map[uint32]uint32)
			f.TermPositions[term] = make(map[uint32][]uint32)
		}
		it := posting.Iterator()
		for it.HasNext() {
			docID := it.Next()
			dst.Add(docID + docOffset)
			f.TermFreqs[term][docID+docOffset] = src.TermFreqs[term][docID]
			f.TermPositions[term][docID+docOffset] = append([]uint32(nil), src.TermPositions[term][docID]...)
		}
	}
	for docID, l := range src.DocLengths {
		f.DocLengths[docID+docOffset] = l
	}
}

// Encoded holds the serialized components of an IndexBuilder.
type Encoded struct {
	Terms      []byte
	Postings   []byte
	Positions  []byte
	FieldNorms []byte
}

// Encode serializes the builder into its four components. Fields and terms
// are written in lexical order and rows in ascending order, so the postings
// and positions streams line up with the term dictionary.
//
// Terms:     magic, version, numFields, {field, numTerms, {term}}
// Postings:  magic, version, {bitmapLen, bitmap, {freq per row}} per term
// Positions: magic, version, {{count, positions...} per row} per term
// Norms:     magic, version, numFields, {field, numRows, {row, length}}
func (b *IndexBuilder) Encode() (*Encoded, error) {
	terms := header(termsMagic)
	postings := header(postingsMagic)
	positions := header(positionsMagic)
	norms := header(normsMagic)

	fields := b.Fields()
	terms = binary.LittleEndian.AppendUint32(terms, uint32(len(fields)))
	norms = binary.LittleEndian.AppendUint32(norms, uint32(len(fields)))

	for _, name := range fields {
		idx := b.fields[name]
		fieldTerms := idx.Terms()

		terms = appendString(terms, name)
		terms = binary.LittleEndian.AppendUint32(terms, uint32(len(fieldTerms)))

		for _, term := range fieldTerms {
			terms = appendString(terms, term)

			posting := idx.TermPostings[term]
			bitmapBytes, err := posting.ToBytes()
			if err != nil {
				return nil, fmt.Errorf("failed to serialize posting list for %s:%q: %w", name, term, err)
			}
			postings = binary.LittleEndian.AppendUint32(postings, uint32(len(bitmapBytes)))
			postings = append(postings, bitmapBytes...)

			it := posting.Iterator()
			for it.HasNext() {
				docID := it.Next()
				postings = binary.LittleEndian.AppendUint32(postings, idx.TermFreqs[term][docID])

				pos := idx.TermPositions[term][docID]
				positions = binary.LittleEndian.AppendUint32(positions, uint32(len(pos)))
				for _, p := range pos {
					positions = binary.LittleEndian.AppendUint32(positions, p)
				}
			}
		}

		docIDs := make([]uint32, 0, len(idx.DocLengths))
		for docID := range idx.DocLengths {
			docIDs = append(docIDs, docID)
		}
		sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

		norms = appendString(norms, name)
		norms = binary.LittleEndian.AppendUint32(norms, uint32(len(docIDs)))
		for _, docID := range docIDs {
			norms = binary.LittleEndian.AppendUint32(norms, docID)
			norms = binary.LittleEndian.AppendUint32(norms, idx.DocLengths[docID])
		}
	}

	return &Encoded{
		Terms:      terms,
		Postings:   postings,
		Positions:  positions,
		FieldNorms: norms,
	}, nil
}

// Decode rebuilds an IndexBuilder from its encoded components.
func Decode(enc *Encoded) (*IndexBuilder, error) {
	terms, err := newDecoder(enc.Terms, termsMagic)
	if err != nil {
		return nil, err
	}
	postings, err := newDecoder(enc.Postings, postingsMagic)
	if err != nil {
		return nil, err
	}
	positions, err := newDecoder(enc.Positions, positionsMagic)
	if err != nil {
		return nil, err
	}
	norms, err := newDecoder(enc.FieldNorms, normsMagic)
	if err != nil {
		return nil, err
	}

	b := NewIndexBuilder()

	numFields := terms.uint32()
	for i := uint32(0); i < numFields && terms.err == nil; i++ {
		idx := NewFieldIndex(terms.string())
		b.fields[idx.Field] = idx

		numTerms := terms.uint32()
		for j := uint32(0); j < numTerms && terms.err == nil; j++ {
			term := terms.string()

			posting := roaring.New()
			if err := posting.UnmarshalBinary(postings.bytes(int(postings.uint32()))); err != nil && postings.err == nil {
				return nil, fmt.Errorf("%w: posting list for %s:%q: %v", ErrCorrupt, idx.Field, term, err)
			}
			idx.TermPostings[term] = posting
			idx.TermFreqs[term] = make(map[uint32]uint32, posting.GetCardinality())
			idx.TermPositions[term] = make(map[uint32][]uint32, posting.GetCardinality())

			it := posting.Iterator()
			for it.HasNext() {
				docID := it.Next()
				idx.TermFreqs[term][docID] = postings.uint32()

				count := positions.uint32()
				pos := make([]uint32, 0, count)
				for k := uint32(0); k < count && positions.err == nil; k++ {
					pos = append(pos, positions.uint32())
				}
				idx.TermPositions[term][docID] = pos
			}
		}
	}

	numNormFields := norms.uint32()
	for i := uint32(0); i < numNormFields && norms.err == nil; i++ {
		name := norms.string()
		idx, ok := b.fields[name]
		if !ok {
			idx = NewFieldIndex(name)
			b.fields[name] = idx
		}
		numRows := norms.uint32()
		for j := uint32(0); j < numRows && norms.err == nil; j++ {
			docID := norms.uint32()
			idx.DocLengths[docID] = norms.uint32()
		}
	}

	for _, d := range []*decoder{terms, postings, positions, norms} {
		if d.err != nil {
			return nil, d.err
		}
	}
	return b, nil
}

func header(magic string) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, magic...)
	return binary.LittleEndian.AppendUint32(buf, formatVersion)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// decoder reads little-endian values and keeps the first error.
type decoder struct {
	data []byte
	off  int
	err  error
}

func newDecoder(data []byte, magic string) (*decoder, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %s data too short", ErrCorrupt, magic)
	}
	if string(data[:4]) != magic {
		return nil, fmt.Errorf("%w: invalid magic number %q, want %q", ErrCorrupt, data[:4], magic)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported %s version %d", ErrCorrupt, magic, v)
	}
	return &decoder{data: data, off: 8}, nil
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.data) {
		d.err = fmt.Errorf("%w: unexpected end of data at offset %d", ErrCorrupt, d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) uint32() uint32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) string() string {
	return string(d.bytes(int(d.uint32())))
}
