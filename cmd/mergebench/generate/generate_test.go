package generate

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/vexsearch/mergebench/internal/people"
)

func TestExecuteStdout(t *testing.T) {
	var out bytes.Buffer
	if err := Execute("", 5, 9, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := people.Decode(&out)
	if err != nil {
		t.Fatalf("output is not a people array: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("expected 5 people, got %d", len(got))
	}
}

func TestExecuteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.json")
	if err := Execute(path, 12, 9, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := people.Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(got) != 12 {
		t.Errorf("expected 12 people, got %d", len(got))
	}
	if err := Execute(path, -1, 9, nil); err == nil {
		t.Error("expected error for negative count")
	}
}
