package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type MemoryDirectory struct {
	mu    sync.RWMutex
	files map[string]*memoryFile
}

type memoryFile struct {
	data         []byte
	lastModified time.Time
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		files: make(map[string]*memoryFile),
	}
}

func (d *MemoryDirectory) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	f, ok := d.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

func (d *MemoryDirectory) Write(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[name] = &memoryFile{data: buf, lastModified: time.Now()}
	return nil
}

func (d *MemoryDirectory) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, name)
	return nil
}

func (d *MemoryDirectory) List(ctx context.Context) ([]FileInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	files := make([]FileInfo, 0, len(d.files))
	for name, f := range d.files {
		files = append(files, FileInfo{
			Name:         name,
			Size:         int64(len(f.data)),
			LastModified: f.lastModified,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (d *MemoryDirectory) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.files[name]
	return ok, nil
}

// Reset drops every file.
func (d *MemoryDirectory) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files = make(map[string]*memoryFile)
	return nil
}
