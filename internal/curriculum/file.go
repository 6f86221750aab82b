package curriculum

import (
	"bytes"
	"io"
	"sync"
)

// FileHandle is a local file the author picked but has not uploaded yet.
// The owner must call Release exactly when the file is discarded; after a
// successful upload ownership passes to the code that consumed it.
type FileHandle interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
	Release() error
}

// MemoryFile is an in-memory FileHandle, used by tests and small notes.
type MemoryFile struct {
	name        string
	contentType string
	data        []byte

	mu       sync.Mutex
	released bool
}

// NewMemoryFile wraps data as a FileHandle
func NewMemoryFile(name, contentType string, data []byte) *MemoryFile {
	return &MemoryFile{name: name, contentType: contentType, data: data}
}

func (f *MemoryFile) Name() string        { return f.name }
func (f *MemoryFile) Size() int64         { return int64(len(f.data)) }
func (f *MemoryFile) ContentType() string { return f.contentType }

// Open returns a reader over the file contents
func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// Release marks the file as discarded
func (f *MemoryFile) Release() error {
	f.mu.Lock()
	f.released = true
	f.mu.Unlock()
	return nil
}

// Released reports whether Release has been called
func (f *MemoryFile) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}
