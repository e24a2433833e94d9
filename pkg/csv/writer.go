package csv

import (
	"bufio"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/dialectcsv/pkg/arena"
	"github.com/ajitpratap0/dialectcsv/pkg/config"
	"github.com/ajitpratap0/dialectcsv/pkg/fileio"
	"github.com/ajitpratap0/dialectcsv/pkg/logger"
	"github.com/ajitpratap0/dialectcsv/pkg/metrics"
)

// lineTerminator ends every row a Writer emits.
const lineTerminator = "\r\n"

const initialRowSize = 256

type flusher interface {
	Flush() error
}

// Writer encodes records into a byte stream.
//
// Each row is encoded into an arena region and handed to the underlying
// writer in a single call, so a row that fails to encode writes nothing.
// Errors are sticky: after the first failure every call returns it.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	dialect config.Dialect
	opts    options
	logger  *zap.Logger

	out    *bufio.Writer
	dst    io.Writer
	closer io.Closer
	arena  *arena.Arena

	headers []string
	line    int
	err     error
	closed  bool
}

// NewWriter creates a writer on dst, which is never closed by the writer.
// The BOM, if the dialect asks for one, and the header row, if headers is
// not empty, are written immediately.
func NewWriter(dst io.Writer, d config.Dialect, headers []string, opts ...Option) (*Writer, error) {
	if dst == nil {
		return nil, writeErr(WriterNullPointer, nil)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	a, err := o.newArena()
	if err != nil {
		return nil, writeErr(WriterMemoryAllocation, err)
	}

	w := &Writer{
		dialect: d,
		opts:    o,
		logger:  o.logger.With(logger.Component("writer")),
		out:     bufio.NewWriterSize(dst, o.bufferSize),
		dst:     dst,
		arena:   a,
	}
	if d.Path != "" {
		w.logger = w.logger.With(logger.Path(d.Path))
	}
	if len(headers) > 0 {
		w.headers = append([]string(nil), headers...)
	}

	if err := w.init(); err != nil {
		o.releaseArena(a)
		return nil, err
	}
	return w, nil
}

// Create opens d.Path through fileio and returns a writer that owns the
// file. The compression codec follows the file extension unless
// WithCompression says otherwise.
func Create(d config.Dialect, headers []string, opts ...Option) (*Writer, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	f, err := fileio.OpenWrite(d.Path, fileio.WriteOptions{Algorithm: o.algorithm, Level: o.level})
	if err != nil {
		return nil, writeErr(WriterFileOpen, err)
	}

	w, err := NewWriter(f, d, headers, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

func (w *Writer) init() error {
	if w.dialect.WriteBOM {
		if bom := w.dialect.BOM(); len(bom) > 0 {
			if err := w.emit(bom); err != nil {
				return err
			}
		}
	}
	if len(w.headers) > 0 {
		if err := writeFields(w, w.headers); err != nil {
			return err
		}
		w.line++
		w.logger.Debug("header written", zap.Int("columns", len(w.headers)))
	}
	return nil
}

// NeedsQuoting reports whether field must be enclosed: it contains the
// delimiter, the enclosure, CR or LF, or, in strict mode, a space. A field
// ending in a space or tab is also enclosed, since readers trim trailing
// whitespace from unquoted fields.
func NeedsQuoting(field string, delimiter, enclosure byte, strict bool) bool {
	return needsQuoting(field, delimiter, enclosure, strict, false)
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// needsQuoting is NeedsQuoting for either field representation. trimLeading
// also encloses fields that start with a space or tab, which a TrimFields
// reader would otherwise drop.
func needsQuoting[T ~string | ~[]byte](field T, delimiter, enclosure byte, strict, trimLeading bool) bool {
	if len(field) == 0 {
		return false
	}
	if isBlank(field[len(field)-1]) || (trimLeading && isBlank(field[0])) {
		return true
	}
	for i := 0; i < len(field); i++ {
		switch c := field[i]; {
		case c == delimiter, c == enclosure, c == '\r', c == '\n':
			return true
		case strict && c == ' ':
			return true
		}
	}
	return false
}

// rowBuffer accumulates one encoded row in the arena, doubling on demand.
type rowBuffer struct {
	a   *arena.Arena
	ref arena.Ref
	n   int
	err error
}

func (b *rowBuffer) grow(k int) bool {
	if b.err != nil {
		return false
	}
	if b.n+k <= b.ref.Len {
		return true
	}
	size := b.ref.Len * 2
	if size == 0 {
		size = initialRowSize
	}
	for size < b.n+k {
		size *= 2
	}
	ref, err := b.a.Realloc(b.ref, size)
	if err != nil {
		b.err = err
		return false
	}
	b.ref = ref
	return true
}

func (b *rowBuffer) writeByte(c byte) {
	if b.grow(1) {
		b.a.Bytes(b.ref)[b.n] = c
		b.n++
	}
}

func appendRaw[T ~string | ~[]byte](b *rowBuffer, s T) {
	if b.grow(len(s)) {
		copy(b.a.Bytes(b.ref)[b.n:], s)
		b.n += len(s)
	}
}

func appendField[T ~string | ~[]byte](b *rowBuffer, field T, delimiter, enclosure byte, strict, trimLeading bool) {
	if !needsQuoting(field, delimiter, enclosure, strict, trimLeading) {
		appendRaw(b, field)
		return
	}
	b.writeByte(enclosure)
	for i := 0; i < len(field); i++ {
		if field[i] == enclosure {
			b.writeByte(enclosure)
		}
		b.writeByte(field[i])
	}
	b.writeByte(enclosure)
}

// writeFields encodes one row. With headers the row is padded with empty
// fields or truncated to the header width.
func writeFields[T ~string | ~[]byte](w *Writer, fields []T) error {
	if err := w.ready(); err != nil {
		return err
	}

	width := len(fields)
	if len(w.headers) > 0 {
		width = len(w.headers)
	}

	var (
		delim  = byte(w.dialect.Delimiter)
		encl   = byte(w.dialect.Enclosure)
		strict = w.dialect.StrictMode
		trim   = w.dialect.TrimFields
	)

	region := w.arena.BeginRegion()
	defer func() { _ = region.End() }()

	b := &rowBuffer{a: w.arena}
	for i := 0; i < width; i++ {
		if i > 0 {
			b.writeByte(delim)
		}
		if i < len(fields) {
			appendField(b, fields[i], delim, encl, strict, trim)
		}
	}
	appendRaw(b, lineTerminator)

	if b.err != nil {
		return w.fail(writeErr(WriterBufferOverflow, b.err))
	}
	return w.emit(w.arena.Bytes(b.ref)[:b.n])
}

func (w *Writer) ready() error {
	if w.closed {
		return writeErr(WriterFileWrite, ErrClosed)
	}
	return w.err
}

func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
		w.logger.Warn("write failed", logger.Err(err))
	}
	return err
}

func (w *Writer) emit(p []byte) error {
	n, err := w.out.Write(p)
	metrics.BytesWritten.Add(float64(n))
	if err != nil {
		return w.fail(writeErr(WriterFileWrite, err))
	}
	if w.dialect.AutoFlush {
		return w.Flush()
	}
	return nil
}

// WriteRecord writes one row.
func (w *Writer) WriteRecord(fields []string) error {
	if err := writeFields(w, fields); err != nil {
		return err
	}
	w.line++
	metrics.RecordsWritten.Inc()
	return nil
}

// WriteFrom writes the fields of rec without copying them out of the
// reader's arena.
func (w *Writer) WriteFrom(rec *Record) error {
	if rec == nil {
		return writeErr(WriterNullPointer, nil)
	}
	rec.check()
	if err := writeFields(w, rec.rawFields()); err != nil {
		return err
	}
	w.line++
	metrics.RecordsWritten.Inc()
	return nil
}

// WriteRecordMap writes values placed into header order by name. The first
// header equal to a name receives its value; columns without a value are
// left empty. Unknown and duplicate names are ignored, except in strict mode
// where an unknown name fails with WriterFieldNotFound.
func (w *Writer) WriteRecordMap(names, values []string) error {
	if err := w.ready(); err != nil {
		return err
	}
	if len(names) != len(values) || len(w.headers) == 0 {
		return writeErr(WriterInvalidFieldCount, nil)
	}

	row := make([]string, len(w.headers))
	for j, name := range names {
		matched := false
		for i, h := range w.headers {
			if h == name {
				row[i] = values[j]
				matched = true
				break
			}
		}
		if !matched && w.dialect.StrictMode {
			return &WriteError{Code: WriterFieldNotFound, Err: &fieldError{name: name}}
		}
	}
	return w.WriteRecord(row)
}

// WriteMap is WriteRecordMap for a map.
func (w *Writer) WriteMap(m map[string]string) error {
	if err := w.ready(); err != nil {
		return err
	}
	if len(w.headers) == 0 {
		return writeErr(WriterInvalidFieldCount, nil)
	}

	row := make([]string, len(w.headers))
	for i, h := range w.headers {
		row[i] = m[h]
	}
	if w.dialect.StrictMode {
		for name := range m {
			if !w.hasHeader(name) {
				return &WriteError{Code: WriterFieldNotFound, Err: &fieldError{name: name}}
			}
		}
	}
	return w.WriteRecord(row)
}

func (w *Writer) hasHeader(name string) bool {
	for _, h := range w.headers {
		if h == name {
			return true
		}
	}
	return false
}

type fieldError struct {
	name string
}

func (e *fieldError) Error() string {
	return "no header named " + e.name
}

// Flush writes buffered rows to the underlying writer and flushes it too
// when it supports flushing.
func (w *Writer) Flush() error {
	if w.closed {
		return nil
	}
	if err := w.out.Flush(); err != nil {
		return w.fail(writeErr(WriterFileWrite, err))
	}
	if f, ok := w.dst.(flusher); ok {
		if err := f.Flush(); err != nil {
			return w.fail(writeErr(WriterFileWrite, err))
		}
	}
	return nil
}

// Error returns the first error the writer encountered.
func (w *Writer) Error() error {
	return w.err
}

// Headers returns a copy of the header row.
func (w *Writer) Headers() []string {
	if w.headers == nil {
		return nil
	}
	return append([]string(nil), w.headers...)
}

// Line returns the number of rows written, header included.
func (w *Writer) Line() int {
	return w.line
}

// Close flushes, releases the arena and closes the file if the writer
// created it. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	err := w.Flush()
	w.closed = true
	metrics.ArenaUsedBytes.WithLabelValues("writer").Set(float64(w.arena.Peak()))
	w.opts.releaseArena(w.arena)

	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = writeErr(WriterFileWrite, cerr)
		}
	}
	w.logger.Debug("writer closed", zap.Int("rows", w.line))
	return err
}
