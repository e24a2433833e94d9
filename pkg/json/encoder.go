// Package json encodes CSV rows as JSON, either one value per line or as a
// single array. Rows become objects keyed by header when headers are known,
// and string arrays otherwise.
package json

import (
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

// Format selects the JSON layout.
type Format int

const (
	// Lines writes one JSON value per line.
	Lines Format = iota
	// Array writes a single JSON array.
	Array
)

// ParseFormat resolves "json"/"jsonl" to Lines and "json-array" to Array.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "jsonl", "lines":
		return Lines, nil
	case "json-array", "array":
		return Array, nil
	default:
		return Lines, errors.Newf(errors.ErrorTypeValidation, "unknown json format %q", s)
	}
}

// Encoder streams rows to a writer.
type Encoder struct {
	writer  io.Writer
	encoder *gojson.Encoder
	headers []string
	format  Format
	first   bool
	closed  bool
	err     error
}

// NewEncoder creates an encoder. With the Array format the opening bracket
// is written immediately.
func NewEncoder(w io.Writer, format Format, headers []string) *Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)

	e := &Encoder{
		writer:  w,
		encoder: enc,
		headers: headers,
		format:  format,
		first:   true,
	}
	if format == Array {
		e.write([]byte{'['})
	}
	return e
}

// SetPretty indents output.
func (e *Encoder) SetPretty(indent string) {
	e.encoder.SetIndent("", indent)
}

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.writer.Write(p); err != nil {
		e.err = errors.Wrap(err, errors.ErrorTypeFile, "failed to write json")
	}
}

// WriteRecord encodes one row. Headers beyond the end of a short row map
// to "". With duplicate headers the first column wins.
func (e *Encoder) WriteRecord(fields []string) error {
	if e.closed {
		return errors.New(errors.ErrorTypeInternal, "json: write after close")
	}
	if e.format == Array && !e.first {
		e.write([]byte{','})
	}
	e.first = false
	if e.err != nil {
		return e.err
	}

	var v interface{} = fields
	if len(e.headers) > 0 {
		obj := make(map[string]string, len(e.headers))
		for i := len(e.headers) - 1; i >= 0; i-- {
			obj[e.headers[i]] = ""
			if i < len(fields) {
				obj[e.headers[i]] = fields[i]
			}
		}
		v = obj
	}
	if err := e.encoder.Encode(v); err != nil {
		e.err = errors.Wrap(err, errors.ErrorTypeData, "failed to encode record")
	}
	return e.err
}

// Flush is a no-op; the encoder does not buffer.
func (e *Encoder) Flush() error {
	return e.err
}

// Close terminates an array. It does not close the writer.
func (e *Encoder) Close() error {
	if e.closed {
		return e.err
	}
	e.closed = true
	if e.format == Array {
		e.write([]byte{']', '\n'})
	}
	return e.err
}
