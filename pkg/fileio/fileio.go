// Package fileio opens CSV files for reading and writing. Compression is
// chosen from the file extension; plain files may be memory-mapped.
package fileio

import (
	"bytes"
	"io"
	"os"

	"github.com/ajitpratap0/dialectcsv/pkg/compression"
	"github.com/ajitpratap0/dialectcsv/pkg/errors"
	"github.com/ajitpratap0/dialectcsv/pkg/mmap"
)

// ReadSeekCloser is a seekable input that must be closed.
type ReadSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

// ReadOptions controls OpenRead.
type ReadOptions struct {
	// Mmap maps plain files into memory instead of reading them through
	// the file descriptor. Ignored for compressed files.
	Mmap bool
	// Algorithm overrides extension detection when set.
	Algorithm compression.Algorithm
}

// OpenRead opens path for reading. Compressed input is decompressed into
// memory so that the result stays seekable.
func OpenRead(path string, opts ReadOptions) (ReadSeekCloser, error) {
	alg := opts.Algorithm
	if alg == "" {
		alg = compression.FromPath(path)
	}

	if alg != compression.None {
		return openCompressed(path, alg)
	}
	if opts.Mmap {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("path", path)
	}
	return f, nil
}

func openCompressed(path string, alg compression.Algorithm) (ReadSeekCloser, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("path", path)
	}
	defer f.Close()

	zr, err := compression.NewReader(f, alg)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decompress file").
			WithDetail("path", path).
			WithDetail("algorithm", string(alg))
	}
	return memFile{bytes.NewReader(data)}, nil
}

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// WriteOptions controls OpenWrite.
type WriteOptions struct {
	// Algorithm overrides extension detection when set.
	Algorithm compression.Algorithm
	// Level is the compression level. Zero means compression.Default.
	Level compression.Level
}

// File is an output file, possibly compressing.
type File struct {
	f  *os.File
	zw compression.WriteFlushCloser
}

// OpenWrite creates or truncates path.
func OpenWrite(path string, opts WriteOptions) (*File, error) {
	alg := opts.Algorithm
	if alg == "" {
		alg = compression.FromPath(path)
	}
	level := opts.Level
	if level == 0 {
		level = compression.Default
	}

	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create file").
			WithDetail("path", path)
	}

	zw, err := compression.NewWriter(f, alg, level)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &File{f: f, zw: zw}, nil
}

// Write implements io.Writer.
func (w *File) Write(p []byte) (int, error) {
	return w.zw.Write(p)
}

// Flush pushes compressed data to the file.
func (w *File) Flush() error {
	return w.zw.Flush()
}

// Close ends the compressed stream and closes the file.
func (w *File) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.zw.Close()
	if cerr := w.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	w.f = nil
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file")
	}
	return nil
}

// Name returns the path the file was created with.
func (w *File) Name() string {
	if w.f == nil {
		return ""
	}
	return w.f.Name()
}
