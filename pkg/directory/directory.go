// Package directory provides the flat file namespace an index is stored in.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")

	ErrResetUnsupported = errors.New("directory does not support reset")
)

// FileInfo describes a file stored in a Directory.
type FileInfo struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// Directory is a flat namespace of immutable files.
// Write must be atomic: readers observe either the previous content or the
// complete new content, never a partial file.
type Directory interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]FileInfo, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// Config selects and configures a Directory implementation.
type Config struct {
	Type string // "fs", "memory" or "s3"
	Path string // root directory for fs, key prefix for s3
	S3   S3Config
}

// New creates a Directory from the given config.
func New(cfg Config) (Directory, error) {
	switch cfg.Type {
	case "", "fs", "filesystem":
		return NewFSDirectory(cfg.Path)
	case "memory":
		return NewMemoryDirectory(), nil
	case "s3":
		s3cfg := cfg.S3
		if s3cfg.Prefix == "" {
			s3cfg.Prefix = cfg.Path
		}
		return NewS3Directory(s3cfg)
	default:
		return nil, fmt.Errorf("unknown directory type: %q", cfg.Type)
	}
}

// ValidateName rejects names that would escape the flat namespace.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

// Resetter is implemented by directories that can be emptied in place.
type Resetter interface {
	Reset(ctx context.Context) error
}
