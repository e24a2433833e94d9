package config

import (
	"strings"

	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

// Encoding names the text encoding of a stream. It only selects which
// byte-order mark is written or stripped; bytes are never transcoded.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF16LE
	UTF16BE
	UTF32LE
	UTF32BE
	ASCII
	Latin1
)

var encodingNames = [...]string{
	UTF8:    "utf-8",
	UTF16LE: "utf-16le",
	UTF16BE: "utf-16be",
	UTF32LE: "utf-32le",
	UTF32BE: "utf-32be",
	ASCII:   "ascii",
	Latin1:  "latin-1",
}

var boms = [...][]byte{
	UTF8:    {0xEF, 0xBB, 0xBF},
	UTF16LE: {0xFF, 0xFE},
	UTF16BE: {0xFE, 0xFF},
	UTF32LE: {0xFF, 0xFE, 0x00, 0x00},
	UTF32BE: {0x00, 0x00, 0xFE, 0xFF},
	ASCII:   nil,
	Latin1:  nil,
}

// Valid reports whether e is one of the known encodings.
func (e Encoding) Valid() bool {
	return e >= UTF8 && int(e) < len(encodingNames)
}

func (e Encoding) String() string {
	if !e.Valid() {
		return "unknown"
	}
	return encodingNames[e]
}

// BOM returns a copy of the byte-order mark for e, or nil when the encoding
// has none.
func BOM(e Encoding) []byte {
	if !e.Valid() || boms[e] == nil {
		return nil
	}
	return append([]byte(nil), boms[e]...)
}

// ParseEncoding resolves an encoding name. Matching ignores case, and the
// hyphen after "utf" and "latin" is optional.
func ParseEncoding(s string) (Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "utf8":
		return UTF8, nil
	case "utf16le":
		return UTF16LE, nil
	case "utf16be":
		return UTF16BE, nil
	case "utf32le":
		return UTF32LE, nil
	case "utf32be":
		return UTF32BE, nil
	case "latin1", "iso-8859-1":
		return Latin1, nil
	}
	for i, n := range encodingNames {
		if n == name {
			return Encoding(i), nil
		}
	}
	return UTF8, errors.Newf(errors.ErrorTypeConfig, "unknown encoding %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (e Encoding) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, errors.Newf(errors.ErrorTypeConfig, "invalid encoding %d", int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Encoding) UnmarshalText(text []byte) error {
	parsed, err := ParseEncoding(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
