// Package errors provides structured errors for the infrastructure around the
// CSV codec: configuration, file handling and compression. Codec failures
// themselves are reported through the closed result enumerations of the
// arena and csv packages.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType classifies an Error. The CLI maps it to an exit message.
type ErrorType string

const (
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation covers bad arguments to a constructor or transform.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig covers invalid dialects, profiles and flags.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData covers rows that cannot be transformed or encoded.
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile covers open, read, write, mmap and decompression failures.
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeMemory covers arena creation failures.
	ErrorTypeMemory ErrorType = "memory"
)

// Error is an infrastructure failure with a category, an optional cause and
// free-form details such as the path or line involved.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is one caller recorded when the error was created.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// Keep the stack of the innermost *Error; it points at the failure.
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType reports whether the outermost *Error in err's chain has errType.
func IsType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// TypeOf returns the type of the outermost *Error in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Type, true
}

// DetailsOf merges the details of every *Error in err's chain. Outer values
// win over inner ones.
func DetailsOf(err error) map[string]interface{} {
	var out map[string]interface{}
	for ; err != nil; err = errors.Unwrap(err) {
		e, ok := err.(*Error)
		if !ok || len(e.Details) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]interface{}, len(e.Details))
		}
		for k, v := range e.Details {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out
}

// Is and As forward to the standard library so callers need one import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
