package csv

import (
	"errors"
	"fmt"
)

var (
	// ErrUnclosedQuote is returned when a line ends inside a quoted field.
	ErrUnclosedQuote = errors.New("unclosed quote")
	// ErrExpectedDelimiter is returned when a closed quoted field is followed
	// by something other than a delimiter or whitespace.
	ErrExpectedDelimiter = errors.New("expected delimiter after quoted field")
	// ErrBareQuote is returned in strict mode for an enclosure inside an
	// unquoted field.
	ErrBareQuote = errors.New("bare quote in unquoted field")
	// ErrFieldCount is returned in strict mode when a record's width differs
	// from the header's.
	ErrFieldCount = errors.New("wrong number of fields")
	// ErrSeekOutOfRange is returned by Reader.Seek for a position outside
	// [0, RecordCount()).
	ErrSeekOutOfRange = errors.New("csv: seek position out of range")
	// ErrClosed is returned by operations on a closed Reader or Writer.
	ErrClosed = errors.New("csv: use of closed reader or writer")
)

// ParserResult is the closed set of line parser outcomes.
type ParserResult int

const (
	ParserOK ParserResult = iota
	ParserNullPointer
	ParserMemoryAllocation
	ParserBufferOverflow
	ParserInvalidInput
	ParserMalformedCSV
)

func (r ParserResult) String() string {
	switch r {
	case ParserOK:
		return "Success"
	case ParserNullPointer:
		return "Null pointer error"
	case ParserMemoryAllocation:
		return "Memory allocation failed"
	case ParserBufferOverflow:
		return "Buffer overflow"
	case ParserInvalidInput:
		return "Invalid input"
	case ParserMalformedCSV:
		return "Malformed CSV"
	default:
		return "Unknown error"
	}
}

// Error implements error.
func (r ParserResult) Error() string {
	return "csv: " + r.String()
}

// ParseError reports where a line failed to parse. Line is 1-based, Column is
// the 0-based byte offset within the logical line.
type ParseError struct {
	Code   ParserResult
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csv: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches a ParserResult against the error's code.
func (e *ParseError) Is(target error) bool {
	code, ok := target.(ParserResult)
	return ok && e != nil && code == e.Code
}

// WriterResult is the closed set of writer outcomes.
type WriterResult int

const (
	WriterOK WriterResult = iota
	WriterNullPointer
	WriterMemoryAllocation
	WriterFileOpen
	WriterFileWrite
	WriterInvalidFieldCount
	WriterFieldNotFound
	WriterBufferOverflow
)

func (r WriterResult) String() string {
	switch r {
	case WriterOK:
		return "Success"
	case WriterNullPointer:
		return "Null pointer error"
	case WriterMemoryAllocation:
		return "Memory allocation failed"
	case WriterFileOpen:
		return "Failed to open file"
	case WriterFileWrite:
		return "Failed to write to file"
	case WriterInvalidFieldCount:
		return "Invalid field count"
	case WriterFieldNotFound:
		return "Field not found"
	case WriterBufferOverflow:
		return "Buffer overflow"
	default:
		return "Unknown error"
	}
}

// Error implements error.
func (r WriterResult) Error() string {
	return "csv: " + r.String()
}

// WriteError carries a writer result code and its cause.
type WriteError struct {
	Code WriterResult
	Err  error
}

func (e *WriteError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("csv: write: %s: %v", e.Code, e.Err)
	}
	return "csv: write: " + e.Code.String()
}

// Unwrap returns the underlying cause.
func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches a WriterResult against the error's code.
func (e *WriteError) Is(target error) bool {
	code, ok := target.(WriterResult)
	return ok && e != nil && code == e.Code
}

func writeErr(code WriterResult, err error) error {
	return &WriteError{Code: code, Err: err}
}

// IsParseError reports whether err is a recoverable *ParseError: the reader
// has already moved past the offending line.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
