package directory

import (
	"context"
	"time"

	"github.com/vexsearch/mergebench/internal/metrics"
)

// InstrumentedDirectory wraps a Directory with Prometheus metrics.
type InstrumentedDirectory struct {
	inner Directory
}

// NewInstrumentedDirectory creates a new instrumented directory wrapper.
func NewInstrumentedDirectory(inner Directory) *InstrumentedDirectory {
	return &InstrumentedDirectory{inner: inner}
}

// Unwrap returns the wrapped directory.
func (d *InstrumentedDirectory) Unwrap() Directory {
	return d.inner
}

func (d *InstrumentedDirectory) Read(ctx context.Context, name string) ([]byte, error) {
	start := time.Now()
	data, err := d.inner.Read(ctx, name)
	metrics.ObserveDirectoryOp("read", time.Since(start).Seconds(), err)
	return data, err
}

func (d *InstrumentedDirectory) Write(ctx context.Context, name string, data []byte) error {
	start := time.Now()
	err := d.inner.Write(ctx, name, data)
	metrics.ObserveDirectoryOp("write", time.Since(start).Seconds(), err)
	if err == nil {
		metrics.AddDirectoryBytesWritten(len(data))
	}
	return err
}

func (d *InstrumentedDirectory) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := d.inner.Delete(ctx, name)
	metrics.ObserveDirectoryOp("delete", time.Since(start).Seconds(), err)
	return err
}

func (d *InstrumentedDirectory) List(ctx context.Context) ([]FileInfo, error) {
	start := time.Now()
	files, err := d.inner.List(ctx)
	metrics.ObserveDirectoryOp("list", time.Since(start).Seconds(), err)
	return files, err
}

func (d *InstrumentedDirectory) Exists(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	ok, err := d.inner.Exists(ctx, name)
	metrics.ObserveDirectoryOp("exists", time.Since(start).Seconds(), err)
	return ok, err
}

// Reset empties the wrapped directory when it supports it.
func (d *InstrumentedDirectory) Reset(ctx context.Context) error {
	r, ok := d.inner.(Resetter)
	if !ok {
		return ErrResetUnsupported
	}
	return r.Reset(ctx)
}
