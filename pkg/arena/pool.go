package arena

import (
	"github.com/ajitpratap0/dialectcsv/pkg/pool"
)

// Pool recycles arenas of one fixed size. Arenas handed out by Get are
// always reset.
type Pool struct {
	size  int
	inner *pool.Pool[*Arena]
}

// NewPool creates a pool of arenas with the given capacity.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Pool{
		size: size,
		inner: pool.New(
			func() *Arena {
				return &Arena{buf: make([]byte, size), ownsMemory: true}
			},
			func(a *Arena) { a.Reset() },
		),
	}, nil
}

// Size returns the capacity of arenas in the pool.
func (p *Pool) Size() int {
	return p.size
}

// Get returns an empty arena.
func (p *Pool) Get() *Arena {
	return p.inner.Get()
}

// Put returns a to the pool. Destroyed arenas and arenas of a different size
// are dropped.
func (p *Pool) Put(a *Arena) {
	if a == nil || a.buf == nil || len(a.buf) != p.size || !a.ownsMemory {
		return
	}
	p.inner.Put(a)
}

// Stats reports pool usage, see pool.Pool.Stats.
func (p *Pool) Stats() (allocated, inUse, hits, misses int64) {
	return p.inner.Stats()
}
