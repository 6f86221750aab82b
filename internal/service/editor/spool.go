package editor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"coursecraft/internal/domain"
)

// SpooledFile is an uploaded file parked on local disk until the editor
// sends it on or discards it. It implements curriculum.FileHandle.
type SpooledFile struct {
	name        string
	contentType string
	path        string
	size        int64

	once sync.Once
}

// Spool copies r into a temp file under dir. More than limit bytes fails
// with domain.ErrFileTooLarge and leaves nothing behind.
func Spool(dir, name, contentType string, r io.Reader, limit int64) (*SpooledFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("spool %s: %w", name, err)
	}
	if n > limit {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", name, limit, domain.ErrFileTooLarge)
	}

	return &SpooledFile{name: name, contentType: contentType, path: f.Name(), size: n}, nil
}

func (f *SpooledFile) Name() string        { return f.name }
func (f *SpooledFile) Size() int64         { return f.size }
func (f *SpooledFile) ContentType() string { return f.contentType }
func (f *SpooledFile) Path() string        { return f.path }

// Open reads the spooled bytes. *os.File also serves range requests for
// previews.
func (f *SpooledFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// Release deletes the temp file. Safe to call more than once.
func (f *SpooledFile) Release() error {
	var err error
	f.once.Do(func() {
		if rmErr := os.Remove(f.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = rmErr
		}
	})
	return err
}
