package arena

// Result is the closed set of arena failure codes. Every non-OK value is
// returned as an error and can be matched with errors.Is.
type Result int

const (
	// OK is never returned as an error; it exists for the string table.
	OK Result = iota
	// ErrNullPointer reports a nil or destroyed arena or a nil buffer.
	ErrNullPointer
	// ErrMemoryAllocation reports that the backing buffer could not be obtained.
	ErrMemoryAllocation
	// ErrOutOfMemory reports that the aligned request does not fit.
	ErrOutOfMemory
	// ErrInvalidSize reports a zero or negative size, or a stale checkpoint.
	ErrInvalidSize
	// ErrRegionOrder reports a region closed while a newer one is still open.
	ErrRegionOrder
)

// String returns the human-readable text for r.
func (r Result) String() string {
	switch r {
	case OK:
		return "Success"
	case ErrNullPointer:
		return "Null pointer error"
	case ErrMemoryAllocation:
		return "Memory allocation failed"
	case ErrOutOfMemory:
		return "Arena out of memory"
	case ErrInvalidSize:
		return "Invalid size"
	case ErrRegionOrder:
		return "Region closed out of order"
	default:
		return "Unknown error"
	}
}

// Error implements error.
func (r Result) Error() string {
	return "arena: " + r.String()
}
