package index

import "errors"

var (
	ErrIndexNotFound  = errors.New("index not found")
	ErrIndexExists    = errors.New("index already exists")
	ErrSchemaMismatch = errors.New("schema does not match the existing index")
	ErrCorruptMeta    = errors.New("corrupt index meta")
	ErrWriterExists   = errors.New("an index writer is already open")
	ErrWriterClosed   = errors.New("index writer is closed")
)
