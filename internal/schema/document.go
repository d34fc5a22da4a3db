package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Document is a set of field values. A field may hold several values.
type Document struct {
	fields map[string][]string
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{fields: make(map[string][]string)}
}

// Add appends a value to a field.
func (d *Document) Add(field, value string) {
	d.fields[field] = append(d.fields[field], value)
}

// AddOptional appends the value when it is non-nil.
func (d *Document) AddOptional(field string, value *string) {
	if value != nil {
		d.Add(field, *value)
	}
}

// AddFacet appends a facet path, adding the leading '/' when missing.
func (d *Document) AddFacet(field, path string) {
	d.Add(field, NormalizeFacet(path))
}

// Get returns the values of a field.
func (d *Document) Get(field string) []string {
	return d.fields[field]
}

// First returns the first value of a field.
func (d *Document) First(field string) (string, bool) {
	vals := d.fields[field]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// FieldNames returns the names of the fields holding values, sorted.
func (d *Document) FieldNames() []string {
	names := make([]string, 0, len(d.fields))
	for name := range d.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of fields holding values.
func (d *Document) Len() int {
	return len(d.fields)
}

// SizeBytes estimates the in-memory footprint of the document.
func (d *Document) SizeBytes() int {
	size := 0
	for name, vals := range d.fields {
		size += len(name) + 16
		for _, v := range vals {
			size += len(v) + 16
		}
	}
	return size
}

// NormalizeFacet returns path with a leading '/'.
func NormalizeFacet(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// ValidateFacet checks that path is absolute and has no empty segment.
func ValidateFacet(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q must start with '/'", ErrInvalidFacet, path)
	}
	if path == "/" {
		return nil
	}
	for _, part := range strings.Split(path[1:], "/") {
		if part == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidFacet, path)
		}
	}
	return nil
}

// FacetAncestors returns path and every ancestor, root first, excluding "/".
// "/country/US" yields ["/country", "/country/US"].
func FacetAncestors(path string) []string {
	if path == "/" || path == "" {
		return nil
	}
	var out []string
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			out = append(out, path[:i])
		}
	}
	return append(out, path)
}
