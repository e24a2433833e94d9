package csv

import (
	"github.com/ajitpratap0/dialectcsv/pkg/arena"
)

const initialFieldCapacity = 16

// Fields is an ordered list of field values stored in an arena. Each value
// is a NUL-terminated copy; the handles are kept in insertion order, which
// is column order.
//
// A Fields value is only meaningful until its arena is reset.
type Fields struct {
	arena *arena.Arena
	refs  []arena.Ref
}

// NewFields returns an empty list backed by a.
func NewFields(a *arena.Arena) *Fields {
	return &Fields{
		arena: a,
		refs:  make([]arena.Ref, 0, initialFieldCapacity),
	}
}

// Append copies b into the arena as the next field.
func (f *Fields) Append(b []byte) error {
	if f == nil || f.arena == nil {
		return arena.ErrNullPointer
	}
	ref, err := f.arena.CopyBytes(b)
	if err != nil {
		return err
	}
	if len(f.refs) == cap(f.refs) {
		newCap := cap(f.refs) * 2
		if newCap == 0 {
			newCap = initialFieldCapacity
		}
		grown := make([]arena.Ref, len(f.refs), newCap)
		copy(grown, f.refs)
		f.refs = grown
	}
	f.refs = append(f.refs, ref)
	return nil
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.refs)
}

// Cap returns the number of fields that fit before the list grows.
func (f *Fields) Cap() int {
	if f == nil {
		return 0
	}
	return cap(f.refs)
}

// Bytes returns field i without copying. The slice aliases the arena.
func (f *Fields) Bytes(i int) []byte {
	return f.arena.Bytes(f.refs[i])
}

// String returns a copy of field i.
func (f *Fields) String(i int) string {
	return f.arena.String(f.refs[i])
}

// Strings copies every field out of the arena.
func (f *Fields) Strings() []string {
	if f.Len() == 0 {
		return nil
	}
	out := make([]string, len(f.refs))
	for i, ref := range f.refs {
		out[i] = f.arena.String(ref)
	}
	return out
}

// Reset empties the list. It does not touch the arena.
func (f *Fields) Reset() {
	if f != nil {
		f.refs = f.refs[:0]
	}
}

// Arena returns the backing arena.
func (f *Fields) Arena() *arena.Arena {
	return f.arena
}
