// Package compression provides the streaming codecs behind compressed CSV
// files. A codec is chosen by name or from the file extension:
//
//	w, err := compression.NewWriter(file, compression.FromPath(path), compression.Default)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
// Snappy, S2 and LZ4 favour speed, Zstd favours ratio and Gzip/Deflate are
// there for compatibility.
package compression

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

// Algorithm names a codec.
type Algorithm string

const (
	None    Algorithm = "none"
	Gzip    Algorithm = "gzip"
	Snappy  Algorithm = "snappy" // framed format
	LZ4     Algorithm = "lz4"    // frame format
	Zstd    Algorithm = "zstd"
	S2      Algorithm = "s2"
	Deflate Algorithm = "deflate" // raw, no zlib header
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate}

// Level trades speed for ratio. Codecs without levels ignore it.
type Level int

const (
	Fastest Level = 1
	Default Level = 5
	Better  Level = 7
	Best    Level = 9
)

var levelNames = map[string]Level{
	"fastest": Fastest,
	"default": Default,
	"better":  Better,
	"best":    Best,
}

// ParseLevel resolves a level name. The empty string is Default.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	if l, ok := levelNames[s]; ok {
		return l, nil
	}
	return Default, errors.Newf(errors.ErrorTypeConfig, "unknown compression level: %s", s)
}

// WriteFlushCloser is a compressing writer. Flush pushes buffered data to
// the underlying writer without ending the stream; Close ends the stream but
// does not close the underlying writer.
type WriteFlushCloser interface {
	io.WriteCloser
	Flush() error
}

type codec struct {
	exts      []string
	newWriter func(io.Writer, Level) (WriteFlushCloser, error)
	newReader func(io.Reader) (io.ReadCloser, error)
}

var codecs = map[Algorithm]codec{
	None: {
		newWriter: func(w io.Writer, _ Level) (WriteFlushCloser, error) { return &plainWriter{w: w}, nil },
		newReader: func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(r), nil },
	},
	Gzip: {
		exts: []string{".gz", ".gzip"},
		newWriter: func(w io.Writer, l Level) (WriteFlushCloser, error) {
			return gzip.NewWriterLevel(w, stdlibLevel(l))
		},
		newReader: func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) },
	},
	Deflate: {
		exts: []string{".deflate"},
		newWriter: func(w io.Writer, l Level) (WriteFlushCloser, error) {
			return flate.NewWriter(w, stdlibLevel(l))
		},
		newReader: func(r io.Reader) (io.ReadCloser, error) { return flate.NewReader(r), nil },
	},
	Snappy: {
		exts:      []string{".sz", ".snappy"},
		newWriter: func(w io.Writer, _ Level) (WriteFlushCloser, error) { return snappy.NewBufferedWriter(w), nil },
		newReader: func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(snappy.NewReader(r)), nil },
	},
	S2: {
		exts: []string{".s2"},
		newWriter: func(w io.Writer, l Level) (WriteFlushCloser, error) {
			var opts []s2.WriterOption
			switch {
			case l >= Best:
				opts = append(opts, s2.WriterBestCompression())
			case l >= Better:
				opts = append(opts, s2.WriterBetterCompression())
			}
			return s2.NewWriter(w, opts...), nil
		},
		newReader: func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(s2.NewReader(r)), nil },
	},
	LZ4: {
		exts: []string{".lz4"},
		newWriter: func(w io.Writer, l Level) (WriteFlushCloser, error) {
			lw := lz4.NewWriter(w)
			if err := lw.Apply(lz4.CompressionLevelOption(lz4Level(l))); err != nil {
				return nil, err
			}
			return lw, nil
		},
		newReader: func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(lz4.NewReader(r)), nil },
	},
	Zstd: {
		exts: []string{".zst", ".zstd"},
		newWriter: func(w io.Writer, l Level) (WriteFlushCloser, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(l)))
		},
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		},
	},
}

func lookup(alg Algorithm) (codec, error) {
	if alg == "" {
		alg = None
	}
	c, ok := codecs[alg]
	if !ok {
		return codec{}, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", alg)
	}
	return c, nil
}

// ParseAlgorithm resolves an algorithm name. The empty string is None.
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if _, err := lookup(alg); err != nil {
		return None, err
	}
	if alg == "" {
		return None, nil
	}
	return alg, nil
}

// FromPath picks the algorithm implied by the file extension, or None.
func FromPath(path string) Algorithm {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return None
	}
	for alg, c := range codecs {
		for _, e := range c.exts {
			if e == ext {
				return alg
			}
		}
	}
	return None
}

// NewWriter wraps dst in a compressor.
func NewWriter(dst io.Writer, alg Algorithm, level Level) (WriteFlushCloser, error) {
	c, err := lookup(alg)
	if err != nil {
		return nil, err
	}
	w, err := c.newWriter(dst, level)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create compressor").
			WithDetail("algorithm", string(alg)).
			WithDetail("level", int(level))
	}
	return w, nil
}

// NewReader wraps src in a decompressor. Closing the result does not close
// src.
func NewReader(src io.Reader, alg Algorithm) (io.ReadCloser, error) {
	c, err := lookup(alg)
	if err != nil {
		return nil, err
	}
	r, err := c.newReader(src)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid compressed stream").
			WithDetail("algorithm", string(alg))
	}
	return r, nil
}

// plainWriter is the None codec. Flush forwards to dst when it can flush.
type plainWriter struct {
	w io.Writer
}

func (p *plainWriter) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *plainWriter) Flush() error {
	if f, ok := p.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (p *plainWriter) Close() error {
	return p.Flush()
}

// stdlibLevel maps a Level onto the compress/flate scale shared by gzip.
func stdlibLevel(l Level) int {
	switch l {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

func lz4Level(l Level) lz4.CompressionLevel {
	switch {
	case l <= Fastest:
		return lz4.Fast
	case l >= Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func zstdLevel(l Level) zstd.EncoderLevel {
	switch {
	case l <= Fastest:
		return zstd.SpeedFastest
	case l >= Best:
		return zstd.SpeedBestCompression
	case l >= Better:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedDefault
	}
}
