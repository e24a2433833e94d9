// Package config defines the CSV Dialect, the single value that governs how
// streams are read and written, together with YAML profile loading.
//
// Example usage:
//
//	d := config.NewDialect()
//	d.Delimiter = ';'
//	d.SkipEmptyLines = true
//	if err := d.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

// DialectVersion is the current Dialect schema version.
const DialectVersion = 1

// MaxPathLength bounds Dialect.Path.
const MaxPathLength = 1024

// Dialect describes the characters and behavior flags of a CSV stream. It is
// a plain value: copying it copies everything.
type Dialect struct {
	Version int `yaml:"version" json:"version"`

	Delimiter Char `yaml:"delimiter" json:"delimiter"`
	Enclosure Char `yaml:"enclosure" json:"enclosure"`
	// Escape is kept for interface symmetry. Only doubled-enclosure escaping
	// is performed.
	Escape Char `yaml:"escape" json:"escape"`

	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// Offset is the number of lines skipped before the header or data.
	Offset int `yaml:"offset" json:"offset"`
	// Limit caps the number of records returned; 0 means unbounded.
	Limit     int      `yaml:"limit" json:"limit"`
	HasHeader bool     `yaml:"has_header" json:"has_header"`
	Encoding  Encoding `yaml:"encoding" json:"encoding"`

	WriteBOM       bool `yaml:"write_bom" json:"write_bom"`
	StrictMode     bool `yaml:"strict_mode" json:"strict_mode"`
	SkipEmptyLines bool `yaml:"skip_empty_lines" json:"skip_empty_lines"`
	TrimFields     bool `yaml:"trim_fields" json:"trim_fields"`
	PreserveQuotes bool `yaml:"preserve_quotes" json:"preserve_quotes"`
	AutoFlush      bool `yaml:"auto_flush" json:"auto_flush"`
}

// NewDialect returns the reading defaults: comma delimited, double-quote
// enclosed with doubled-quote escaping, header present, UTF-8.
func NewDialect() Dialect {
	return Dialect{
		Version:   DialectVersion,
		Delimiter: ',',
		Enclosure: '"',
		Escape:    '"',
		HasHeader: true,
		Encoding:  UTF8,
	}
}

// NewWriterDialect returns NewDialect with AutoFlush enabled.
func NewWriterDialect() Dialect {
	d := NewDialect()
	d.AutoFlush = true
	return d
}

// ValidateChars checks that delimiter, enclosure and escape are three
// distinct non-NUL bytes.
func ValidateChars(delimiter, enclosure, escape byte) error {
	if err := validatePair(delimiter, enclosure); err != nil {
		return err
	}
	switch {
	case escape == 0:
		return errors.New(errors.ErrorTypeConfig, "escape must not be NUL")
	case delimiter == escape:
		return errors.New(errors.ErrorTypeConfig, "delimiter and escape must differ").
			WithDetail("char", string(delimiter))
	case enclosure == escape:
		return errors.New(errors.ErrorTypeConfig, "enclosure and escape must differ").
			WithDetail("char", string(enclosure))
	}
	return nil
}

func validatePair(delimiter, enclosure byte) error {
	switch {
	case delimiter == 0:
		return errors.New(errors.ErrorTypeConfig, "delimiter must not be NUL")
	case enclosure == 0:
		return errors.New(errors.ErrorTypeConfig, "enclosure must not be NUL")
	case delimiter == enclosure:
		return errors.New(errors.ErrorTypeConfig, "delimiter and enclosure must differ").
			WithDetail("char", string(delimiter))
	}
	return nil
}

// DoubledEscape reports whether the dialect escapes the enclosure by
// doubling it, which is the case when Escape equals Enclosure.
func (d Dialect) DoubledEscape() bool {
	return d.Escape == d.Enclosure
}

// Validate checks the dialect before use. When Escape equals Enclosure only
// the delimiter and enclosure need to be distinct; otherwise ValidateChars
// applies to all three.
func (d Dialect) Validate() error {
	var err error
	if d.DoubledEscape() {
		err = validatePair(byte(d.Delimiter), byte(d.Enclosure))
	} else {
		err = ValidateChars(byte(d.Delimiter), byte(d.Enclosure), byte(d.Escape))
	}
	if err != nil {
		return err
	}

	if d.Offset < 0 {
		return errors.Newf(errors.ErrorTypeValidation, "offset must be >= 0, got %d", d.Offset)
	}
	if d.Limit < 0 {
		return errors.Newf(errors.ErrorTypeValidation, "limit must be >= 0, got %d", d.Limit)
	}
	if len(d.Path) >= MaxPathLength {
		return errors.Newf(errors.ErrorTypeValidation, "path exceeds %d bytes", MaxPathLength-1)
	}
	if !d.Encoding.Valid() {
		return errors.Newf(errors.ErrorTypeValidation, "invalid encoding %d", int(d.Encoding))
	}
	return nil
}

// BOM returns the byte-order mark for the dialect's encoding.
func (d Dialect) BOM() []byte {
	return BOM(d.Encoding)
}
