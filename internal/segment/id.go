// Package segment implements immutable index segments: their identity, the
// six component files they are written as, and merging.
package segment

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidID        = errors.New("invalid segment id")
	ErrCorrupt          = errors.New("corrupt segment data")
	ErrNoSources        = errors.New("merge requires at least one source segment")
	ErrEmptySegment     = errors.New("segment has no documents")
	ErrUnknownTokenizer = errors.New("unknown tokenizer")
)

// ID identifies a segment: 32 lowercase hex characters.
type ID string

// NewID returns a fresh random segment id.
func NewID() ID {
	u := uuid.New()
	return ID(hex.EncodeToString(u[:]))
}

// ParseID validates s as a segment id.
func ParseID(s string) (ID, error) {
	if len(s) != 32 {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	if _, err := hex.DecodeString(s); err != nil || strings.ToLower(s) != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(s), nil
}

func (id ID) String() string {
	return string(id)
}

// Short returns the first 8 characters, for logs.
func (id ID) Short() string {
	if len(id) < 8 {
		return string(id)
	}
	return string(id[:8])
}

// Component is one of the files a segment is written as.
type Component string

const (
	ComponentFast      Component = "fast"
	ComponentFieldNorm Component = "fieldnorm"
	ComponentIdx       Component = "idx"
	ComponentPos       Component = "pos"
	ComponentStore     Component = "store"
	ComponentTerm      Component = "term"
)

// Components lists every component in file-name order.
var Components = []Component{
	ComponentFast,
	ComponentFieldNorm,
	ComponentIdx,
	ComponentPos,
	ComponentStore,
	ComponentTerm,
}

// FileName returns the file name of a component of the segment.
func (id ID) FileName(c Component) string {
	return string(id) + "." + string(c)
}

// FileNames returns the names of every component file of the segment.
func (id ID) FileNames() []string {
	names := make([]string, len(Components))
	for i, c := range Components {
		names[i] = id.FileName(c)
	}
	return names
}

// ParseFileName splits a component file name into segment id and component.
func ParseFileName(name string) (ID, Component, bool) {
	base, ext, ok := strings.Cut(name, ".")
	if !ok {
		return "", "", false
	}
	id, err := ParseID(base)
	if err != nil {
		return "", "", false
	}
	for _, c := range Components {
		if Component(ext) == c {
			return id, c, true
		}
	}
	return "", "", false
}

// Meta describes a committed segment.
type Meta struct {
	ID      ID     `json:"segment_id"`
	NumDocs uint32 `json:"num_docs"`
}
