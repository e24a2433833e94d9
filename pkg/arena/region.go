package arena

// Region is a saved arena cursor. Regions nest: the most recently opened
// region must be ended first.
type Region struct {
	arena *Arena
	off   int
	used  int
	depth int
	ended bool
}

// BeginRegion checkpoints the current cursor. Everything allocated after this
// call is released when the region ends.
func (a *Arena) BeginRegion() *Region {
	if a == nil {
		return &Region{ended: true}
	}
	a.depth++
	return &Region{
		arena: a,
		off:   a.off,
		used:  a.used,
		depth: a.depth,
	}
}

// End rewinds the arena to the checkpoint and closes the region. Ending a
// region that is not the innermost open one returns ErrRegionOrder and
// leaves the arena untouched. Ending an already ended region is a no-op.
func (r *Region) End() error {
	if r == nil || r.arena == nil {
		return ErrNullPointer
	}
	if r.ended {
		return nil
	}
	a := r.arena
	if a.depth != r.depth {
		return ErrRegionOrder
	}
	if err := r.rewind(); err != nil {
		return err
	}
	a.depth--
	r.ended = true
	return nil
}

// Commit closes the region without rewinding, so its allocations pass to
// the enclosing scope. The same ordering rules as End apply.
func (r *Region) Commit() error {
	if r == nil || r.arena == nil {
		return ErrNullPointer
	}
	if r.ended {
		return nil
	}
	if r.arena.depth != r.depth {
		return ErrRegionOrder
	}
	r.arena.depth--
	r.ended = true
	return nil
}

// Restore rewinds the arena to the checkpoint but keeps the region open, so
// it can be reused for a loop of temporary allocations.
func (r *Region) Restore() error {
	if r == nil || r.arena == nil {
		return ErrNullPointer
	}
	if r.ended {
		return ErrInvalidSize
	}
	if r.arena.depth != r.depth {
		return ErrRegionOrder
	}
	return r.rewind()
}

func (r *Region) rewind() error {
	a := r.arena
	// A Reset or Destroy after BeginRegion can leave the checkpoint past the
	// live cursor.
	if a.buf == nil || r.off > len(a.buf) || r.off > a.off {
		return ErrInvalidSize
	}
	a.off = r.off
	a.used = r.used
	return nil
}

// Depth returns the nesting level at which the region was opened.
func (r *Region) Depth() int {
	return r.depth
}
