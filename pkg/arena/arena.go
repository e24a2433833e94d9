// Package arena implements a fixed-capacity bump allocator with checkpoint
// regions. It is the single memory source for field storage in the CSV
// reader and writer.
//
// Allocations are returned as Ref handles (offset + length) into the arena's
// buffer rather than raw slices, so a Ref that outlives a Reset can at worst
// read stale bytes; it can never point outside the buffer.
//
// An Arena is not safe for concurrent use.
package arena

// DefaultSize is the default capacity for arenas created by readers and
// writers (1 MiB).
const DefaultSize = 1 << 20

// alignment is the granularity of every allocation.
const alignment = 8

// Ref is a handle to an allocation inside an Arena.
type Ref struct {
	Off int
	Len int
}

// IsZero reports whether r refers to nothing.
func (r Ref) IsZero() bool {
	return r.Off == 0 && r.Len == 0
}

// Arena is a bump allocator over a single contiguous buffer.
type Arena struct {
	buf        []byte
	off        int
	used       int
	peak       int
	depth      int
	ownsMemory bool
}

// New creates an arena that owns a freshly allocated buffer of size bytes.
func New(size int) (*Arena, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Arena{
		buf:        make([]byte, size),
		ownsMemory: true,
	}, nil
}

// NewWithBuffer creates an arena over a caller-supplied buffer. The arena
// never releases buf.
func NewWithBuffer(buf []byte) (*Arena, error) {
	if buf == nil {
		return nil, ErrNullPointer
	}
	if len(buf) == 0 {
		return nil, ErrInvalidSize
	}
	return &Arena{buf: buf}, nil
}

func align8(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}

// Alloc reserves size bytes and returns a handle to them. The memory is not
// zeroed.
func (a *Arena) Alloc(size int) (Ref, error) {
	if a == nil || a.buf == nil {
		return Ref{}, ErrNullPointer
	}
	if size <= 0 {
		return Ref{}, ErrInvalidSize
	}
	aligned := align8(size)
	if aligned > len(a.buf)-a.off {
		return Ref{}, ErrOutOfMemory
	}
	ref := Ref{Off: a.off, Len: size}
	a.off += aligned
	a.used += aligned
	if a.used > a.peak {
		a.peak = a.used
	}
	return ref, nil
}

// CopyBytes copies b into the arena followed by a NUL terminator. The
// returned Ref's Len excludes the terminator.
func (a *Arena) CopyBytes(b []byte) (Ref, error) {
	ref, err := a.Alloc(len(b) + 1)
	if err != nil {
		return Ref{}, err
	}
	dst := a.buf[ref.Off : ref.Off+len(b)+1]
	copy(dst, b)
	dst[len(b)] = 0
	ref.Len = len(b)
	return ref, nil
}

// Strdup copies s into the arena followed by a NUL terminator.
func (a *Arena) Strdup(s string) (Ref, error) {
	ref, err := a.Alloc(len(s) + 1)
	if err != nil {
		return Ref{}, err
	}
	dst := a.buf[ref.Off : ref.Off+len(s)+1]
	copy(dst, s)
	dst[len(s)] = 0
	ref.Len = len(s)
	return ref, nil
}

// Realloc grows an allocation. Shrinking requests return ref unchanged;
// growing requests copy ref.Len bytes into a fresh block and abandon the old
// one until the next Reset.
func (a *Arena) Realloc(ref Ref, newSize int) (Ref, error) {
	if a == nil || a.buf == nil {
		return Ref{}, ErrNullPointer
	}
	if newSize <= 0 {
		return Ref{}, ErrInvalidSize
	}
	if ref.IsZero() {
		return a.Alloc(newSize)
	}
	if newSize <= ref.Len {
		return ref, nil
	}
	next, err := a.Alloc(newSize)
	if err != nil {
		return Ref{}, err
	}
	copy(a.buf[next.Off:next.Off+ref.Len], a.buf[ref.Off:ref.Off+ref.Len])
	return next, nil
}

// Bytes returns the arena memory behind ref. The slice aliases the arena and
// is only meaningful until the next Reset or enclosing region End.
func (a *Arena) Bytes(ref Ref) []byte {
	if ref.Len == 0 || a.buf == nil {
		return nil
	}
	return a.buf[ref.Off : ref.Off+ref.Len : ref.Off+ref.Len]
}

// String returns a copy of the bytes behind ref.
func (a *Arena) String(ref Ref) string {
	return string(a.Bytes(ref))
}

// Reset rewinds the arena to its start. Every previously returned Ref becomes
// invalid and any open regions are discarded. Memory contents are untouched.
func (a *Arena) Reset() {
	if a == nil || a.buf == nil {
		return
	}
	a.off = 0
	a.used = 0
	a.depth = 0
}

// Destroy detaches the arena from its buffer. Owned buffers become garbage;
// borrowed buffers are left to their owner. Further allocations fail with
// ErrNullPointer.
func (a *Arena) Destroy() {
	if a == nil {
		return
	}
	*a = Arena{}
}

// CanAllocate reports whether Alloc(size) would succeed, without allocating.
func (a *Arena) CanAllocate(size int) bool {
	if a == nil || a.buf == nil || size <= 0 {
		return false
	}
	return align8(size) <= len(a.buf)-a.off
}

// Used returns the number of bytes handed out since the last Reset,
// including alignment padding.
func (a *Arena) Used() int {
	if a == nil {
		return 0
	}
	return a.used
}

// Free returns the number of bytes still available.
func (a *Arena) Free() int {
	if a == nil || a.buf == nil {
		return 0
	}
	return len(a.buf) - a.used
}

// Cap returns the arena capacity.
func (a *Arena) Cap() int {
	if a == nil {
		return 0
	}
	return len(a.buf)
}

// Peak returns the high-water mark of Used. It survives Reset.
func (a *Arena) Peak() int {
	if a == nil {
		return 0
	}
	return a.peak
}

// OwnsMemory reports whether the arena allocated its own buffer.
func (a *Arena) OwnsMemory() bool {
	return a != nil && a.ownsMemory
}
