package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func binary(t *testing.T) string {
	t.Helper()
	binaryPath, err := filepath.Abs("../../mergebench")
	if err != nil {
		t.Fatalf("failed to get binary path: %v", err)
	}
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skip("mergebench binary not found - run 'go build -o mergebench ./cmd/mergebench' first")
	}
	return binaryPath
}

func TestSubcommands(t *testing.T) {
	binaryPath := binary(t)

	t.Run("help shows usage", func(t *testing.T) {
		out, err := exec.Command(binaryPath, "help").CombinedOutput()
		if err != nil {
			t.Fatalf("help command failed: %v", err)
		}
		for _, sub := range []string{"run", "scenarios", "generate", "stats"} {
			if !strings.Contains(string(out), sub) {
				t.Errorf("help output missing %s: %s", sub, out)
			}
		}
	})

	t.Run("version prints version info", func(t *testing.T) {
		out, err := exec.Command(binaryPath, "version").CombinedOutput()
		if err != nil {
			t.Fatalf("version command failed: %v", err)
		}
		if !strings.Contains(string(out), "mergebench") {
			t.Errorf("version output incorrect: %s", out)
		}
	})

	t.Run("no args shows usage and exits 1", func(t *testing.T) {
		out, err := exec.Command(binaryPath).CombinedOutput()
		if err == nil {
			t.Fatal("expected non-zero exit for no args")
		}
		if !strings.Contains(string(out), "Usage:") {
			t.Errorf("expected usage output, got: %s", out)
		}
	})

	t.Run("unknown command exits 1", func(t *testing.T) {
		out, err := exec.Command(binaryPath, "notreal").CombinedOutput()
		if err == nil {
			t.Fatal("expected non-zero exit for unknown command")
		}
		if !strings.Contains(string(out), "Unknown command") {
			t.Errorf("expected unknown command message, got: %s", out)
		}
	})
}

func TestRunMissingDataPathExits1(t *testing.T) {
	binaryPath := binary(t)

	cmd := exec.Command(binaryPath, "run")
	cmd.Env = []string{"INDEX_PEOPLE_PATH=" + t.TempDir()}
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected non-zero exit without DATA_PEOPLE_PATH")
	}
	if !strings.Contains(string(out), "DATA_PEOPLE_PATH") {
		t.Errorf("expected missing path message, got: %s", out)
	}
}

func TestGenerateThenRun(t *testing.T) {
	binaryPath := binary(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "people.json")

	if out, err := exec.Command(binaryPath, "generate", "--count=30", "--out="+data).CombinedOutput(); err != nil {
		t.Fatalf("generate failed: %v: %s", err, out)
	}

	cmd := exec.Command(binaryPath, "run", "--scenarios=b,f")
	cmd.Env = []string{
		"DATA_PEOPLE_PATH=" + data,
		"INDEX_PEOPLE_PATH=" + filepath.Join(dir, "index"),
	}
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 result lines, got %q", out)
	}
	for _, line := range lines {
		var res struct {
			TotalIndexTime         string         `json:"totalIndexTime"`
			FinalSegmentFileCounts map[string]int `json:"finalSegmentFileCounts"`
		}
		if err := json.Unmarshal([]byte(line), &res); err != nil {
			t.Fatalf("invalid result line %q: %v", line, err)
		}
		if res.FinalSegmentFileCounts["store"] != 1 {
			t.Errorf("expected one store file after waiting, got %v", res.FinalSegmentFileCounts)
		}
	}
}
