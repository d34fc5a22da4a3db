package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testDirectories(t *testing.T) map[string]Directory {
	t.Helper()
	fsDir, err := NewFSDirectory(filepath.Join(t.TempDir(), "index"))
	if err != nil {
		t.Fatalf("failed to create fs directory: %v", err)
	}
	return map[string]Directory{
		"fs":           fsDir,
		"memory":       NewMemoryDirectory(),
		"instrumented": NewInstrumentedDirectory(NewMemoryDirectory()),
	}
}

func TestDirectoryContract(t *testing.T) {
	ctx := context.Background()

	for name, dir := range testDirectories(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := dir.Read(ctx, "missing.idx"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := dir.Write(ctx, "a.idx", []byte("hello")); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			data, err := dir.Read(ctx, "a.idx")
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if string(data) != "hello" {
				t.Errorf("expected hello, got %q", data)
			}

			// Overwrite replaces content atomically.
			if err := dir.Write(ctx, "a.idx", []byte("world")); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			data, _ = dir.Read(ctx, "a.idx")
			if string(data) != "world" {
				t.Errorf("expected world, got %q", data)
			}

			if err := dir.Write(ctx, "b.store", []byte("x")); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			files, err := dir.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(files) != 2 || files[0].Name != "a.idx" || files[1].Name != "b.store" {
				t.Errorf("unexpected listing: %+v", files)
			}
			if files[0].Size != 5 {
				t.Errorf("expected size 5, got %d", files[0].Size)
			}

			ok, err := dir.Exists(ctx, "b.store")
			if err != nil || !ok {
				t.Errorf("expected b.store to exist, ok=%v err=%v", ok, err)
			}

			if err := dir.Delete(ctx, "b.store"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			// Deleting twice is not an error.
			if err := dir.Delete(ctx, "b.store"); err != nil {
				t.Fatalf("second Delete failed: %v", err)
			}
			ok, _ = dir.Exists(ctx, "b.store")
			if ok {
				t.Error("expected b.store to be gone")
			}

			r, ok := dir.(Resetter)
			if !ok {
				t.Fatal("expected directory to support Reset")
			}
			if err := r.Reset(ctx); err != nil {
				t.Fatalf("Reset failed: %v", err)
			}
			files, _ = dir.List(ctx)
			if len(files) != 0 {
				t.Errorf("expected empty directory after reset, got %d files", len(files))
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"meta.json", false},
		{"0a1b2c.idx", false},
		{"", true},
		{".", true},
		{"..", true},
		{"nested/file.idx", true},
		{`back\slash`, true},
	}

	for _, tt := range tests {
		err := ValidateName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) should wrap ErrInvalidName, got %v", tt.name, err)
		}
	}
}

func TestFSDirectoryIgnoresTemporaryFiles(t *testing.T) {
	root := t.TempDir()
	dir, err := NewFSDirectory(root)
	if err != nil {
		t.Fatalf("NewFSDirectory failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "seg.store.tmp"), []byte("partial"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, "subdir"), 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	if err := dir.Write(context.Background(), "seg.store", []byte("done")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	files, err := dir.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 || files[0].Name != "seg.store" {
		t.Errorf("expected only seg.store, got %+v", files)
	}
}

func TestNew(t *testing.T) {
	root := filepath.Join(t.TempDir(), "idx")

	dir, err := New(Config{Type: "fs", Path: root})
	if err != nil {
		t.Fatalf("New(fs) failed: %v", err)
	}
	if _, ok := dir.(*FSDirectory); !ok {
		t.Errorf("expected *FSDirectory, got %T", dir)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("expected root to be created: %v", err)
	}

	dir, err = New(Config{Type: "memory"})
	if err != nil {
		t.Fatalf("New(memory) failed: %v", err)
	}
	if _, ok := dir.(*MemoryDirectory); !ok {
		t.Errorf("expected *MemoryDirectory, got %T", dir)
	}

	if _, err := New(Config{Type: "ftp"}); err == nil {
		t.Error("expected error for unknown directory type")
	}
	if _, err := New(Config{Type: "fs"}); err == nil {
		t.Error("expected error for empty fs path")
	}
}

func TestInstrumentedResetUnsupported(t *testing.T) {
	var inner Directory = struct{ Directory }{NewMemoryDirectory()}
	dir := NewInstrumentedDirectory(inner)
	if err := dir.Reset(context.Background()); !errors.Is(err, ErrResetUnsupported) {
		t.Errorf("expected ErrResetUnsupported, got %v", err)
	}
}
