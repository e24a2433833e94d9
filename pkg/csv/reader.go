package csv

import (
	"io"
	"iter"

	"go.uber.org/zap"

	"github.com/ajitpratap0/dialectcsv/pkg/arena"
	"github.com/ajitpratap0/dialectcsv/pkg/config"
	"github.com/ajitpratap0/dialectcsv/pkg/errors"
	"github.com/ajitpratap0/dialectcsv/pkg/fileio"
	"github.com/ajitpratap0/dialectcsv/pkg/logger"
	"github.com/ajitpratap0/dialectcsv/pkg/metrics"
)

const initialLineSize = 256

// Reader reads records from a seekable byte stream.
//
// A Reader holds two arenas. The persistent arena keeps the header row for
// the life of the reader; the temporary arena holds the current line and
// its fields and is reset on every Next, Rewind and Seek. The Record
// returned by Next is therefore only usable until the next of those calls.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	dialect config.Dialect
	parser  *Parser
	opts    options
	logger  *zap.Logger

	src    *byteSource
	closer io.Closer

	persist *arena.Arena
	temp    *arena.Arena
	fields  *Fields
	header  *Fields
	headers []string
	index   map[string]int

	dataStart int64
	dataLine  int
	line      int
	position  int64
	gen       uint64
	closed    bool
}

// NewReader creates a reader over src. src is never closed by the reader.
// If the dialect has a header row it is read and parsed here, once.
func NewReader(src io.ReadSeeker, d config.Dialect, opts ...Option) (*Reader, error) {
	if src == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "csv: nil source")
	}
	parser, err := NewParser(d)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	r := &Reader{
		dialect: d,
		parser:  parser,
		opts:    o,
		logger:  o.logger.With(logger.Component("reader")),
	}
	if d.Path != "" {
		r.logger = r.logger.With(logger.Path(d.Path))
	}

	if r.persist, err = o.newArena(); err != nil {
		return nil, err
	}
	if r.temp, err = o.newArena(); err != nil {
		o.releaseArena(r.persist)
		return nil, err
	}
	r.src = newByteSource(src, o.bufferSize)
	r.fields = NewFields(r.temp)
	r.header = NewFields(r.persist)

	if err := r.start(); err != nil {
		r.release()
		return nil, err
	}
	return r, nil
}

// Open opens d.Path through fileio and returns a reader that owns the file.
// Compressed files are recognised by extension.
func Open(d config.Dialect, opts ...Option) (*Reader, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "csv: dialect has no path")
	}

	o := applyOptions(opts)
	f, err := fileio.OpenRead(d.Path, fileio.ReadOptions{Mmap: o.useMmap, Algorithm: o.algorithm})
	if err != nil {
		return nil, err
	}

	r, err := NewReader(f, d, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// start positions the reader at the first data record: BOM stripped, offset
// lines skipped and the header, if any, loaded.
func (r *Reader) start() error {
	r.advance()
	r.persist.Reset()
	r.header.Reset()
	r.headers = nil
	r.index = nil

	if err := r.src.seek(0); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to seek to start of input")
	}
	r.line = 1

	if bom := r.dialect.BOM(); len(bom) > 0 && r.src.hasPrefix(bom) {
		r.src.discard(len(bom))
	}

	for i := 0; i < r.dialect.Offset; i++ {
		_, err := r.readFullRecord()
		r.temp.Reset()
		if err == io.EOF {
			break
		}
		if err != nil && !IsParseError(err) {
			return err
		}
	}

	if r.dialect.HasHeader {
		if err := r.loadHeaders(); err != nil {
			return err
		}
	}
	r.temp.Reset()

	r.dataStart = r.src.offset()
	r.dataLine = r.line
	r.position = 0
	return nil
}

func (r *Reader) loadHeaders() error {
	lineNo := r.line
	ref, err := r.readFullRecord()
	if err == io.EOF {
		r.logger.Debug("input has no header line")
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.parser.ParseInto(r.header, r.temp.Bytes(ref), lineNo); err != nil {
		return err
	}
	r.headers = r.header.Strings()
	r.index = make(map[string]int, len(r.headers))
	for i, h := range r.headers {
		if _, dup := r.index[h]; !dup {
			r.index[h] = i
		}
	}

	r.logger.Debug("header loaded",
		zap.Int("columns", len(r.headers)),
		zap.Strings("headers", r.headers))
	return nil
}

// readFullRecord reads one logical line into the temporary arena. Line
// terminators inside enclosures belong to the line; the terminating \n,
// \r\n or \r is consumed but not stored. An enclosure opens a quoted
// section only at the start of a field (after optional blanks when
// trimming) or directly after a closing enclosure; a bare one inside an
// unquoted value is ordinary data.
//
// A line that does not fit the arena is consumed entirely and reported as a
// ParserBufferOverflow ParseError.
func (r *Reader) readFullRecord() (arena.Ref, error) {
	var (
		encl      = byte(r.dialect.Enclosure)
		delim     = byte(r.dialect.Delimiter)
		trim      = r.dialect.TrimFields
		startOff  = r.src.offset()
		startLine = r.line
		inQuotes  bool
		atStart   = true
		closed    bool
		n         int
	)

	ref, overflow := r.temp.Alloc(initialLineSize)

	for {
		c, err := r.src.readByte()
		if err != nil {
			if err != io.EOF {
				return arena.Ref{}, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input").
					WithDetail("line", startLine)
			}
			if r.src.offset() == startOff {
				return arena.Ref{}, io.EOF
			}
			break
		}

		if !inQuotes && (c == '\n' || c == '\r') {
			if c == '\r' {
				if next, err := r.src.peekByte(); err == nil && next == '\n' {
					r.src.discard(1)
				}
			}
			r.line++
			break
		}

		switch {
		case inQuotes:
			if c == encl {
				inQuotes = false
				closed = true
			}
		case c == encl && (atStart || closed):
			inQuotes = true
			atStart, closed = false, false
		case c == delim:
			atStart, closed = true, false
		case trim && atStart && (c == ' ' || c == '\t'):
		default:
			atStart, closed = false, false
		}

		switch c {
		case '\n':
			r.line++
		case '\r':
			if next, err := r.src.peekByte(); err != nil || next != '\n' {
				r.line++
			}
		}

		if overflow != nil {
			continue
		}
		if n == ref.Len {
			grown, err := r.temp.Realloc(ref, ref.Len*2)
			if err != nil {
				overflow = err
				continue
			}
			ref = grown
		}
		r.temp.Bytes(ref)[n] = c
		n++
	}

	if overflow != nil {
		return arena.Ref{}, &ParseError{Code: ParserBufferOverflow, Line: startLine, Column: n, Err: overflow}
	}
	ref.Len = n
	return ref, nil
}

// advance invalidates the current record.
func (r *Reader) advance() {
	r.gen++
	r.temp.Reset()
	r.fields.Reset()
}

// Next returns the next record. It returns io.EOF at the end of the input
// or once Limit records have been consumed since the last rewind. A
// malformed line yields a *ParseError; the reader has already moved past
// that line, so the caller may keep calling Next.
func (r *Reader) Next() (*Record, error) {
	if r.closed {
		return nil, ErrClosed
	}
	r.advance()

	if limit := r.dialect.Limit; limit > 0 && r.position >= int64(limit) {
		return nil, io.EOF
	}

	for {
		lineNo := r.line
		before := r.src.offset()
		ref, err := r.readFullRecord()
		metrics.BytesRead.Add(float64(r.src.offset() - before))
		if err != nil {
			if IsParseError(err) {
				r.position++
				r.failed(err)
			}
			return nil, err
		}

		line := r.temp.Bytes(ref)
		if len(line) == 0 && r.dialect.SkipEmptyLines {
			r.temp.Reset()
			continue
		}
		r.position++

		if err := r.parser.ParseInto(r.fields, line, lineNo); err != nil {
			r.failed(err)
			return nil, err
		}

		if r.dialect.StrictMode && len(r.headers) > 0 && r.fields.Len() != len(r.headers) {
			err := &ParseError{Code: ParserMalformedCSV, Line: lineNo, Err: ErrFieldCount}
			r.fields.Reset()
			r.failed(err)
			return nil, err
		}

		metrics.RecordsRead.WithLabelValues(metrics.StatusOK).Inc()
		return &Record{
			reader: r,
			fields: r.fields,
			gen:    r.gen,
			line:   lineNo,
		}, nil
	}
}

func (r *Reader) failed(err error) {
	metrics.RecordsRead.WithLabelValues(metrics.StatusError).Inc()
	var pe *ParseError
	if errors.As(err, &pe) {
		metrics.ParseErrors.WithLabelValues(pe.Code.String()).Inc()
	}
	r.logger.Warn("malformed record", logger.Err(err))
}

// Records iterates over the remaining records. Parse errors are yielded
// with a nil record and iteration continues; any other error ends it.
func (r *Reader) Records() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) {
				return
			}
			if err != nil && !IsParseError(err) {
				return
			}
		}
	}
}

// Rewind moves back to the first data record. The header is not parsed
// again.
func (r *Reader) Rewind() error {
	if r.closed {
		return ErrClosed
	}
	r.advance()
	if err := r.src.seek(r.dataStart); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to rewind input")
	}
	r.line = r.dataLine
	r.position = 0
	r.logger.Debug("rewound", zap.Int64("offset", r.dataStart))
	return nil
}

// Seek positions the reader so that the next call to Next returns record n
// (0-based). It costs a full count plus n reads. Out-of-range positions,
// including those at or beyond Limit, return ErrSeekOutOfRange and leave
// the reader where it was.
func (r *Reader) Seek(n int64) error {
	if r.closed {
		return ErrClosed
	}
	count, err := r.RecordCount()
	if err != nil {
		return err
	}
	if n < 0 || n >= count || (r.dialect.Limit > 0 && n >= int64(r.dialect.Limit)) {
		return ErrSeekOutOfRange
	}

	if err := r.Rewind(); err != nil {
		return err
	}
	for i := int64(0); i < n; i++ {
		if _, err := r.Next(); err != nil && !IsParseError(err) {
			return err
		}
	}
	return nil
}

// RecordCount scans the data section and returns the number of logical
// records, excluding blank lines when SkipEmptyLines is set. Malformed lines
// are counted. Limit is ignored. The reader position and the current record
// are left untouched. The count is not cached.
func (r *Reader) RecordCount() (int64, error) {
	if r.closed {
		return 0, ErrClosed
	}
	savedOff, savedLine := r.src.offset(), r.line
	restore := func() error {
		r.line = savedLine
		if err := r.src.seek(savedOff); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to restore input position")
		}
		return nil
	}

	region := r.temp.BeginRegion()
	defer func() { _ = region.End() }()

	if err := r.src.seek(r.dataStart); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to seek to data start")
	}
	r.line = r.dataLine

	var count int64
	for {
		ref, err := r.readFullRecord()
		if err == io.EOF {
			break
		}
		if err != nil && !IsParseError(err) {
			_ = restore()
			return 0, err
		}
		if err == nil && ref.Len == 0 && r.dialect.SkipEmptyLines {
			_ = region.Restore()
			continue
		}
		count++
		_ = region.Restore()
	}

	if err := restore(); err != nil {
		return 0, err
	}
	r.logger.Debug("counted records", zap.Int64("count", count))
	return count, nil
}

// HasNext reports whether any unread bytes remain. It does not check that
// they form a valid record.
func (r *Reader) HasNext() bool {
	if r.closed {
		return false
	}
	_, err := r.src.peekByte()
	return err == nil
}

// Headers returns a copy of the header row, or nil.
func (r *Reader) Headers() []string {
	if r.headers == nil {
		return nil
	}
	return append([]string(nil), r.headers...)
}

// Line returns the 1-based physical line number the next read starts on.
func (r *Reader) Line() int {
	return r.line
}

// Position returns the number of records consumed since the last rewind,
// malformed ones included.
func (r *Reader) Position() int64 {
	return r.position
}

// Dialect returns the reader's dialect.
func (r *Reader) Dialect() config.Dialect {
	return r.dialect
}

// SetDialect switches to d and restarts from the beginning of the same
// source, reloading the header.
func (r *Reader) SetDialect(d config.Dialect) error {
	if r.closed {
		return ErrClosed
	}
	parser, err := NewParser(d)
	if err != nil {
		return err
	}
	r.dialect = d
	r.parser = parser
	if err := r.start(); err != nil {
		return err
	}
	r.logger.Debug("dialect changed",
		zap.String("delimiter", d.Delimiter.String()),
		zap.Bool("has_header", d.HasHeader))
	return nil
}

// Close releases the reader's arenas and buffer, and closes the file if the
// reader opened it. Close is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.gen++
	metrics.ArenaUsedBytes.WithLabelValues("reader").Set(float64(r.temp.Peak() + r.persist.Peak()))
	r.release()

	if r.closer != nil {
		if err := r.closer.Close(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to close input")
		}
	}
	return nil
}

func (r *Reader) release() {
	r.src.release()
	r.opts.releaseArena(r.temp)
	r.opts.releaseArena(r.persist)
}
