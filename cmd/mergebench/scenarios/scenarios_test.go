package scenarios

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	if err := Print(&out, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 9 {
		t.Fatalf("expected header and 8 scenarios, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "a ") || !strings.HasPrefix(lines[8], "h ") {
		t.Errorf("unexpected order:\n%s", out.String())
	}
	if !strings.Contains(lines[4], "500") {
		t.Errorf("expected target in scenario d: %s", lines[4])
	}
}
