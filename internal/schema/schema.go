package schema

import (
	"errors"
	"fmt"
)

// Schema is an immutable, ordered set of field definitions.
type Schema struct {
	fields []Field
	byName map[string]int
}

// Fields returns the field definitions in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the definition of the named field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Tokenizers returns the distinct tokenizer names referenced by text fields.
func (s *Schema) Tokenizers() []string {
	seen := make(map[string]bool)
	var names []string
	for _, f := range s.fields {
		if f.Type != TypeText || seen[f.Tokenizer] {
			continue
		}
		seen[f.Tokenizer] = true
		names = append(names, f.Tokenizer)
	}
	return names
}

// ValidateDocument checks that every field of doc is declared and that facet
// values are well-formed paths.
func (s *Schema) ValidateDocument(doc *Document) error {
	for _, name := range doc.FieldNames() {
		f, ok := s.Field(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if f.Type != TypeFacet {
			continue
		}
		for _, v := range doc.Get(name) {
			if err := ValidateFacet(v); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
		}
	}
	return nil
}

// Builder collects field definitions. Errors are reported by Build.
type Builder struct {
	fields []Field
	errs   []error
}

// NewBuilder creates an empty schema builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddTextField declares a tokenized text field.
func (b *Builder) AddTextField(name, tokenizer string, stored bool) *Builder {
	return b.add(Field{Name: name, Type: TypeText, Tokenizer: tokenizer, Stored: stored})
}

// AddStringField declares an untokenized string field.
func (b *Builder) AddStringField(name string, stored bool) *Builder {
	return b.add(Field{Name: name, Type: TypeString, Stored: stored})
}

// AddFacetField declares a facet field. Facets are always stored.
func (b *Builder) AddFacetField(name string) *Builder {
	return b.add(Field{Name: name, Type: TypeFacet, Stored: true})
}

func (b *Builder) add(f Field) *Builder {
	if err := f.Validate(); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	for _, existing := range b.fields {
		if existing.Name == f.Name {
			b.errs = append(b.errs, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name))
			return b
		}
	}
	b.fields = append(b.fields, f)
	return b
}

// Build returns the schema, or the joined errors of every rejected field.
func (b *Builder) Build() (*Schema, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if len(b.fields) == 0 {
		return nil, ErrEmptySchema
	}
	s := &Schema{
		fields: make([]Field, len(b.fields)),
		byName: make(map[string]int, len(b.fields)),
	}
	copy(s.fields, b.fields)
	for i, f := range s.fields {
		s.byName[f.Name] = i
	}
	return s, nil
}

// FromFields rebuilds a schema from persisted field definitions.
func FromFields(fields []Field) (*Schema, error) {
	b := NewBuilder()
	for _, f := range fields {
		b.add(f)
	}
	return b.Build()
}

// Equal reports whether two schemas declare the same fields in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}
