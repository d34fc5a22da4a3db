// Package schema describes the fields of indexed documents.
package schema

import "fmt"

// MaxFieldNameLength is the maximum length for field names.
const MaxFieldNameLength = 128

// FieldType is the indexing behavior of a field.
type FieldType string

const (
	// TypeText is tokenized with the field's named tokenizer.
	TypeText FieldType = "text"
	// TypeString is indexed as a single untokenized term.
	TypeString FieldType = "string"
	// TypeFacet holds hierarchical paths such as "/country/US".
	TypeFacet FieldType = "facet"
)

// IsValid returns true if the type is a recognized field type.
func (t FieldType) IsValid() bool {
	switch t {
	case TypeText, TypeString, TypeFacet:
		return true
	default:
		return false
	}
}

// Field is the definition of one schema field.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`

	// Tokenizer names an entry of the index's tokenizer registry. Text only.
	Tokenizer string `json:"tokenizer,omitempty"`

	// Stored fields are kept in the document store.
	Stored bool `json:"stored"`
}

// ValidateFieldName checks that a name is non-empty, at most 128 bytes and
// made of ASCII letters, digits and underscores.
func ValidateFieldName(name string) error {
	if name == "" {
		return ErrEmptyFieldName
	}
	if len(name) > MaxFieldNameLength {
		return ErrFieldNameTooLong
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return fmt.Errorf("%w: %q", ErrFieldNameInvalid, name)
		}
	}
	return nil
}

// Validate checks the field definition.
func (f Field) Validate() error {
	if err := ValidateFieldName(f.Name); err != nil {
		return err
	}
	if !f.Type.IsValid() {
		return fmt.Errorf("%w: %q for field %q", ErrInvalidType, f.Type, f.Name)
	}
	if f.Type == TypeText && f.Tokenizer == "" {
		return fmt.Errorf("%w: %q", ErrMissingTokenizer, f.Name)
	}
	return nil
}
