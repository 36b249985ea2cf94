package etag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Source is a read-only byte sequence of known length that parts can be read
// from at arbitrary offsets.
type Source interface {
	io.ReaderAt
	// Name identifies the source in errors, usually a file path.
	Name() string
	// Size returns the length of the source in bytes.
	Size() int64
}

// File is a Source backed by a regular file on disk.
type File struct {
	f    *os.File
	size int64
}

var errIsDir = errors.New("is a directory")

// OpenFile opens the named regular file for reading. Its size is taken once,
// at open time.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "open", Path: path, Err: errIsDir}
	}

	return &File{f: f, size: fi.Size()}, nil
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.f.ReadAt(p, off)
}

func (f *File) Name() string {
	return f.f.Name()
}

func (f *File) Size() int64 {
	return f.size
}

func (f *File) Close() error {
	return f.f.Close()
}

type bytesSource struct {
	*bytes.Reader
	name string
}

func (b bytesSource) Name() string {
	return b.name
}

// NewBytesSource returns a Source over an in-memory byte slice.
func NewBytesSource(name string, p []byte) Source {
	return bytesSource{Reader: bytes.NewReader(p), name: name}
}

// exactReader fails with io.ErrUnexpectedEOF if the underlying reader ends
// before n bytes were read. Reads stop once ctx is done.
type exactReader struct {
	ctx context.Context
	r   io.Reader
	n   int64
}

func (e *exactReader) Read(p []byte) (int, error) {
	if err := e.ctx.Err(); err != nil {
		return 0, err
	}
	if e.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > e.n {
		p = p[:e.n]
	}

	n, err := e.r.Read(p)
	e.n -= int64(n)
	if err == io.EOF && e.n > 0 {
		err = fmt.Errorf("%w: %d bytes missing", io.ErrUnexpectedEOF, e.n)
	}
	return n, err
}
