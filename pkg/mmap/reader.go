// Package mmap provides memory-mapped, seekable file input.
package mmap

import (
	"io"
	"os"

	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

// Reader reads a memory-mapped file. It implements io.ReadSeeker,
// io.ReaderAt and io.Closer. A Reader is not safe for concurrent use.
type Reader struct {
	file *os.File
	data []byte
	off  int64
}

// Open maps filename read-only. Empty files are not mapped; the Reader then
// behaves as an empty stream.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("path", filename)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat file").
			WithDetail("path", filename)
	}

	size := stat.Size()
	if size == 0 {
		return &Reader{file: file}, nil
	}
	if int64(int(size)) != size {
		_ = file.Close()
		return nil, errors.Newf(errors.ErrorTypeFile, "file too large to map: %d bytes", size)
	}

	data, err := mmap(int(file.Fd()), int(size))
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to mmap file").
			WithDetail("path", filename)
	}

	// Advice is a hint; a failure changes nothing observable.
	_ = adviseSequential(data)

	return &Reader{
		file: file,
		data: data,
	}, nil
}

// Len returns the size of the mapping.
func (r *Reader) Len() int64 {
	return int64(len(r.data))
}

// Bytes returns the mapped file. The slice is invalid after Close.
func (r *Reader) Bytes() []byte {
	return r.data
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.off:])
	r.off += int64(n)
	return n, nil
}

// ReadAt implements io.ReaderAt.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New(errors.ErrorTypeValidation, "mmap: negative offset")
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.off + offset
	case io.SeekEnd:
		abs = int64(len(r.data)) + offset
	default:
		return 0, errors.New(errors.ErrorTypeValidation, "mmap: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New(errors.ErrorTypeValidation, "mmap: negative position")
	}
	r.off = abs
	return abs, nil
}

// Close unmaps the file and closes it. Close is idempotent.
func (r *Reader) Close() error {
	var err error
	if r.data != nil {
		err = munmap(r.data)
		r.data = nil
	}
	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.file = nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to release mapping")
	}
	return nil
}
