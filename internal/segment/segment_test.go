package segment

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/vexsearch/mergebench/internal/fts"
	"github.com/vexsearch/mergebench/internal/schema"
	"github.com/vexsearch/mergebench/pkg/directory"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder().
		AddStringField("id", true).
		AddTextField("name", "default", false).
		AddTextField("name_ngram", "ngram_2_3", false).
		AddFacetField("country").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return s
}

func testTokenizers(t *testing.T) *fts.TokenizerManager {
	t.Helper()
	m := fts.NewTokenizerManager()
	if err := m.RegisterConfig("ngram_2_3", &fts.Config{Tokenizer: "ngram", MinGram: 2, MaxGram: 3}); err != nil {
		t.Fatal(err)
	}
	return m
}

func testDoc(id, name, country string) *schema.Document {
	doc := schema.NewDocument()
	doc.Add("id", id)
	doc.Add("name", name)
	doc.Add("name_ngram", name)
	doc.AddFacet("country", "country/"+country)
	return doc
}

func writeSegment(t *testing.T, dir directory.Directory, opts Options, docs ...*schema.Document) Meta {
	t.Helper()
	w, err := NewWriter(testSchema(t), testTokenizers(t), opts)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	for _, d := range docs {
		if err := w.AddDocument(d); err != nil {
			t.Fatalf("AddDocument() error = %v", err)
		}
	}
	meta, err := w.Finish(context.Background(), dir)
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return meta
}

func fileNames(t *testing.T, dir directory.Directory) []string {
	t.Helper()
	files, err := dir.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatal("ids should be unique")
	}
	if _, err := ParseID(a.String()); err != nil {
		t.Errorf("ParseID(%q) error = %v", a, err)
	}
	if len(a.Short()) != 8 {
		t.Errorf("Short() = %q", a.Short())
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"0123456789abcdef0123456789abcdef", true},
		{"0123456789ABCDEF0123456789abcdef", false},
		{"0123456789abcdef", false},
		{"0123456789abcdef0123456789abcdeg", false},
		{"", false},
	}
	for _, tt := range tests {
		_, err := ParseID(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("ParseID(%q) error = %v, want ok=%v", tt.input, err, tt.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidID) {
			t.Errorf("ParseID(%q) error = %v, want ErrInvalidID", tt.input, err)
		}
	}
}

func TestParseFileName(t *testing.T) {
	id := NewID()
	for _, name := range id.FileNames() {
		got, comp, ok := ParseFileName(name)
		if !ok || got != id {
			t.Errorf("ParseFileName(%q) = %q, %q, %v", name, got, comp, ok)
		}
	}

	invalid := []string{"meta.json", id.String() + ".json", id.String(), "abc.idx", id.String() + ".idx.tmp"}
	for _, name := range invalid {
		if _, _, ok := ParseFileName(name); ok {
			t.Errorf("ParseFileName(%q) should fail", name)
		}
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionZstd, CompressionLZ4, CompressionNone} {
		t.Run(string(c), func(t *testing.T) {
			ctx := context.Background()
			dir := directory.NewMemoryDirectory()

			meta := writeSegment(t, dir, Options{Compression: c},
				testDoc("p-1", "Ann Smith", "FR"),
				testDoc("p-2", "Bob Smith", "US"),
				testDoc("p-3", "Cyd Jones", "FR"),
			)
			if meta.NumDocs != 3 {
				t.Fatalf("NumDocs = %d, want 3", meta.NumDocs)
			}
			if got, want := fileNames(t, dir), func() []string {
				n := meta.ID.FileNames()
				sort.Strings(n)
				return n
			}(); !reflect.DeepEqual(got, want) {
				t.Fatalf("files = %v, want %v", got, want)
			}

			r, err := Open(ctx, dir, meta.ID)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if r.NumDocs() != 3 || r.Meta() != meta {
				t.Errorf("Meta() = %+v, want %+v", r.Meta(), meta)
			}
			if df := r.DocFreq("name", "smith"); df != 2 {
				t.Errorf("DocFreq(name, smith) = %d, want 2", df)
			}
			if df := r.DocFreq("name_ngram", "smi"); df != 2 {
				t.Errorf("DocFreq(name_ngram, smi) = %d, want 2", df)
			}
			if df := r.DocFreq("id", "p-2"); df != 1 {
				t.Errorf("DocFreq(id, p-2) = %d, want 1", df)
			}
			if df := r.DocFreq("country", "/country"); df != 3 {
				t.Errorf("DocFreq(country, /country) = %d, want 3", df)
			}
			if df := r.DocFreq("country", "/country/FR"); df != 2 {
				t.Errorf("DocFreq(country, /country/FR) = %d, want 2", df)
			}

			doc, err := r.Document(1)
			if err != nil {
				t.Fatalf("Document(1) error = %v", err)
			}
			if v, _ := doc.First("id"); v != "p-2" {
				t.Errorf("stored id = %q, want p-2", v)
			}
			if _, ok := doc.First("name"); ok {
				t.Error("unstored field should not be in the doc store")
			}
			if v, _ := doc.First("country"); v != "/country/US" {
				t.Errorf("stored facet = %q", v)
			}

			if got := r.Facets("country", 2); !reflect.DeepEqual(got, []string{"/country/FR"}) {
				t.Errorf("Facets(country, 2) = %v", got)
			}
			if h := r.ValueHash("id", 0); h != xxhash.Sum64String("p-1") {
				t.Errorf("ValueHash(id, 0) = %x", h)
			}
			if _, err := r.Document(3); err == nil {
				t.Error("Document(3) should be out of range")
			}
		})
	}
}

func TestWriterManyDocumentsSpanBlocks(t *testing.T) {
	dir := directory.NewMemoryDirectory()
	var docs []*schema.Document
	for i := 0; i < 2000; i++ {
		docs = append(docs, testDoc(fmt.Sprintf("person-%04d", i), fmt.Sprintf("Name%d Surname%d", i, i%7), "DE"))
	}
	meta := writeSegment(t, dir, DefaultOptions(), docs...)

	r, err := Open(context.Background(), dir, meta.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, row := range []uint32{0, 999, 1999} {
		doc, err := r.Document(row)
		if err != nil {
			t.Fatalf("Document(%d) error = %v", row, err)
		}
		if v, _ := doc.First("id"); v != fmt.Sprintf("person-%04d", row) {
			t.Errorf("Document(%d) id = %q", row, v)
		}
	}
}

func TestWriterErrors(t *testing.T) {
	s := testSchema(t)

	if _, err := NewWriter(s, fts.NewTokenizerManager(), DefaultOptions()); !errors.Is(err, ErrUnknownTokenizer) {
		t.Errorf("NewWriter() error = %v, want ErrUnknownTokenizer", err)
	}
	if _, err := NewWriter(s, testTokenizers(t), Options{Compression: "brotli"}); err == nil {
		t.Error("NewWriter() should reject unknown compression")
	}

	w, err := NewWriter(s, testTokenizers(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finish(context.Background(), directory.NewMemoryDirectory()); !errors.Is(err, ErrEmptySegment) {
		t.Errorf("Finish() error = %v, want ErrEmptySegment", err)
	}

	bad := schema.NewDocument()
	bad.Add("unknown", "x")
	if err := w.AddDocument(bad); !errors.Is(err, schema.ErrUnknownField) {
		t.Errorf("AddDocument() error = %v, want ErrUnknownField", err)
	}
	if w.NumDocs() != 0 || w.SizeBytes() != 0 {
		t.Error("rejected document should not be buffered")
	}
}

func TestMergeConservesDocuments(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemoryDirectory()

	a := writeSegment(t, dir, DefaultOptions(), testDoc("a-1", "Ann", "FR"), testDoc("a-2", "Ann Lee", "GB"))
	b := writeSegment(t, dir, Options{Compression: CompressionLZ4}, testDoc("b-1", "Bob", "US"))
	c := writeSegment(t, dir, DefaultOptions(), testDoc("c-1", "Cyd Ann", "FR"), testDoc("c-2", "Dee", "CZ"), testDoc("c-3", "Eve", "DE"))

	merged, err := Merge(ctx, dir, []ID{a.ID, b.ID, c.ID}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.NumDocs != a.NumDocs+b.NumDocs+c.NumDocs {
		t.Fatalf("merged NumDocs = %d, want %d", merged.NumDocs, a.NumDocs+b.NumDocs+c.NumDocs)
	}

	r, err := Open(ctx, dir, merged.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	wantIDs := []string{"a-1", "a-2", "b-1", "c-1", "c-2", "c-3"}
	for row, want := range wantIDs {
		doc, err := r.Document(uint32(row))
		if err != nil {
			t.Fatalf("Document(%d) error = %v", row, err)
		}
		if got, _ := doc.First("id"); got != want {
			t.Errorf("row %d id = %q, want %q", row, got, want)
		}
		if h := r.ValueHash("id", uint32(row)); h != xxhash.Sum64String(want) {
			t.Errorf("row %d hash mismatch", row)
		}
	}

	ann := r.Index().Field("name").TermPostings["ann"].ToArray()
	if !reflect.DeepEqual(ann, []uint32{0, 1, 3}) {
		t.Errorf("postings(ann) = %v, want [0 1 3]", ann)
	}
	if got := r.Facets("country", 5); !reflect.DeepEqual(got, []string{"/country/DE"}) {
		t.Errorf("Facets(country, 5) = %v", got)
	}

	// sources are untouched until the caller deletes them
	if _, err := Open(ctx, dir, b.ID); err != nil {
		t.Errorf("source should still be readable: %v", err)
	}
}

func TestMergeErrors(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemoryDirectory()

	if _, err := Merge(ctx, dir, nil, DefaultOptions()); !errors.Is(err, ErrNoSources) {
		t.Errorf("Merge(nil) error = %v, want ErrNoSources", err)
	}

	a := writeSegment(t, dir, DefaultOptions(), testDoc("a-1", "Ann", "FR"))
	_, err := Merge(ctx, dir, []ID{a.ID, NewID()}, DefaultOptions())
	if !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("Merge() with missing source error = %v, want ErrNotFound", err)
	}
	if got := fileNames(t, dir); len(got) != len(Components) {
		t.Errorf("failed merge should not leave files behind: %v", got)
	}
}

func TestOpenCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemoryDirectory()
	meta := writeSegment(t, dir, DefaultOptions(), testDoc("a-1", "Ann", "FR"))

	if err := dir.Write(ctx, meta.ID.FileName(ComponentStore), []byte("STORgarbage")); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(ctx, dir, meta.ID); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Open() error = %v, want ErrCorrupt", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemoryDirectory()
	meta := writeSegment(t, dir, DefaultOptions(), testDoc("a-1", "Ann", "FR"))
	keep := writeSegment(t, dir, DefaultOptions(), testDoc("b-1", "Bob", "FR"))

	if err := Delete(ctx, dir, meta.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := Delete(ctx, dir, meta.ID); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}

	want := keep.ID.FileNames()
	sort.Strings(want)
	if got := fileNames(t, dir); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}
