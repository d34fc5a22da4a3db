package segment

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/vexsearch/mergebench/internal/schema"
)

const (
	fastMagic   = "FAST"
	fastVersion = 1
)

// fastFields are the columnar per-row values of a segment: facet ordinals
// for facet fields and an xxhash of the value of string fields.
type fastFields struct {
	numDocs uint32
	facets  map[string][][]string
	hashes  map[string][]uint64
}

func newFastFields() *fastFields {
	return &fastFields{
		facets: make(map[string][][]string),
		hashes: make(map[string][]uint64),
	}
}

func (f *fastFields) addRow(s *schema.Schema, doc *schema.Document) {
	for _, field := range s.Fields() {
		switch field.Type {
		case schema.TypeFacet:
			f.facets[field.Name] = append(f.facets[field.Name], doc.Get(field.Name))
		case schema.TypeString:
			var h uint64
			if v, ok := doc.First(field.Name); ok {
				h = xxhash.Sum64String(v)
			}
			f.hashes[field.Name] = append(f.hashes[field.Name], h)
		}
	}
	f.numDocs++
}

// appendFrom appends the rows of src after the rows of f.
func (f *fastFields) appendFrom(src *fastFields) {
	for name, rows := range src.facets {
		f.facets[name] = append(padFacets(f.facets[name], f.numDocs), rows...)
	}
	for name, rows := range src.hashes {
		f.hashes[name] = append(padHashes(f.hashes[name], f.numDocs), rows...)
	}
	f.numDocs += src.numDocs
	for name := range f.facets {
		f.facets[name] = padFacets(f.facets[name], f.numDocs)
	}
	for name := range f.hashes {
		f.hashes[name] = padHashes(f.hashes[name], f.numDocs)
	}
}

func padFacets(rows [][]string, n uint32) [][]string {
	for uint32(len(rows)) < n {
		rows = append(rows, nil)
	}
	return rows
}

func padHashes(rows []uint64, n uint32) []uint64 {
	for uint32(len(rows)) < n {
		rows = append(rows, 0)
	}
	return rows
}

func (f *fastFields) facetValues(field string, row uint32) []string {
	rows := f.facets[field]
	if row >= uint32(len(rows)) {
		return nil
	}
	return rows[row]
}

func (f *fastFields) hash(field string, row uint32) uint64 {
	rows := f.hashes[field]
	if row >= uint32(len(rows)) {
		return 0
	}
	return rows[row]
}

// encode serializes the columns.
//
// Layout: magic, version, numDocs,
// numFacetFields, {name, dictSize, {path}, {count, {ordinal}} per row},
// numHashFields, {name, {hash} per row}.
func (f *fastFields) encode() []byte {
	out := append([]byte(nil), fastMagic...)
	out = binary.LittleEndian.AppendUint32(out, fastVersion)
	out = binary.LittleEndian.AppendUint32(out, f.numDocs)

	facetNames := sortedKeys(f.facets)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(facetNames)))
	for _, name := range facetNames {
		rows := padFacets(f.facets[name], f.numDocs)

		ordinals := make(map[string]uint32)
		var dict []string
		for _, row := range rows {
			for _, v := range row {
				if _, ok := ordinals[v]; !ok {
					ordinals[v] = 0
					dict = append(dict, v)
				}
			}
		}
		sort.Strings(dict)
		for i, v := range dict {
			ordinals[v] = uint32(i)
		}

		out = appendString(out, name)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(dict)))
		for _, v := range dict {
			out = appendString(out, v)
		}
		for _, row := range rows {
			out = binary.LittleEndian.AppendUint32(out, uint32(len(row)))
			for _, v := range row {
				out = binary.LittleEndian.AppendUint32(out, ordinals[v])
			}
		}
	}

	hashNames := sortedKeys(f.hashes)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(hashNames)))
	for _, name := range hashNames {
		out = appendString(out, name)
		for _, h := range padHashes(f.hashes[name], f.numDocs) {
			out = binary.LittleEndian.AppendUint64(out, h)
		}
	}
	return out
}

func decodeFastFields(data []byte) (*fastFields, error) {
	r := &binReader{data: data}
	if string(r.bytes(4)) != fastMagic {
		return nil, fmt.Errorf("%w: bad fast field header", ErrCorrupt)
	}
	if v := r.uint32(); v != fastVersion {
		return nil, fmt.Errorf("%w: unsupported fast field version %d", ErrCorrupt, v)
	}

	f := newFastFields()
	f.numDocs = r.uint32()

	numFacets := r.uint32()
	for i := uint32(0); i < numFacets && r.err == nil; i++ {
		name := r.string()
		dictSize := r.uint32()
		dict := make([]string, 0, min(dictSize, 1<<16))
		for j := uint32(0); j < dictSize && r.err == nil; j++ {
			dict = append(dict, r.string())
		}
		rows := make([][]string, 0, min(f.numDocs, 1<<20))
		for j := uint32(0); j < f.numDocs && r.err == nil; j++ {
			count := r.uint32()
			var row []string
			for k := uint32(0); k < count && r.err == nil; k++ {
				ord := r.uint32()
				if ord >= uint32(len(dict)) {
					return nil, fmt.Errorf("%w: facet ordinal %d out of range", ErrCorrupt, ord)
				}
				row = append(row, dict[ord])
			}
			rows = append(rows, row)
		}
		f.facets[name] = rows
	}

	numHashes := r.uint32()
	for i := uint32(0); i < numHashes && r.err == nil; i++ {
		name := r.string()
		rows := make([]uint64, 0, min(f.numDocs, 1<<20))
		for j := uint32(0); j < f.numDocs && r.err == nil; j++ {
			rows = append(rows, r.uint64())
		}
		f.hashes[name] = rows
	}

	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// binReader reads little-endian values and keeps the first error.
type binReader struct {
	data []byte
	off  int
	err  error
}

func (r *binReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: unexpected end of data at offset %d", ErrCorrupt, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *binReader) uint32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *binReader) uint64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *binReader) string() string {
	return string(r.bytes(int(r.uint32())))
}
