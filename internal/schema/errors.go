package schema

import "errors"

var (
	ErrEmptyFieldName   = errors.New("field name cannot be empty")
	ErrFieldNameTooLong = errors.New("field name exceeds 128 characters")
	ErrFieldNameInvalid = errors.New("field name must contain only letters, digits and '_'")
	ErrDuplicateField   = errors.New("field already defined")
	ErrInvalidType      = errors.New("invalid field type")
	ErrMissingTokenizer = errors.New("text field requires a tokenizer")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidFacet     = errors.New("invalid facet path")
	ErrEmptySchema      = errors.New("schema has no fields")
)
