// Package pool provides typed object pooling for reusable codec resources.
// It wraps sync.Pool with a factory, an optional reset hook and atomic
// statistics, and adds a size-bucketed byte buffer pool for I/O buffers.
//
// Example usage:
//
//	arenas := pool.New(
//	    func() *arena.Arena { a, _ := arena.New(1 << 20); return a },
//	    func(a *arena.Arena) { a.Reset() },
//	)
//	a := arenas.Get()
//	defer arenas.Put(a)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic object pool. It is safe for concurrent use; the objects
// it hands out are not.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)

	allocated atomic.Int64
	inUse     atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
}

// New creates a pool. new is called when the pool is empty; reset, if not
// nil, is called on every object handed back through Put.
func New[T any](new func() T, reset func(T)) *Pool[T] {
	return &Pool[T]{
		new:   new,
		reset: reset,
	}
}

// Get returns a pooled object, or a new one if the pool is empty.
func (p *Pool[T]) Get() T {
	p.inUse.Add(1)
	if v := p.pool.Get(); v != nil {
		p.hits.Add(1)
		return v.(T)
	}
	p.misses.Add(1)
	p.allocated.Add(1)
	return p.new()
}

// Put resets obj and returns it to the pool.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.inUse.Add(-1)
	p.pool.Put(obj)
}

// Stats returns the number of objects created, currently checked out, served
// from the pool and created on demand.
func (p *Pool[T]) Stats() (allocated, inUse, hits, misses int64) {
	return p.allocated.Load(), p.inUse.Load(), p.hits.Load(), p.misses.Load()
}

// Bucket bounds for BufferPool. Each bucket is four times the previous one.
const (
	minBufferShift = 12 // 4 KiB
	maxBufferShift = 22 // 4 MiB
)

// BufferPool hands out byte slices from power-of-four size buckets. Requests
// above the largest bucket are allocated directly and never pooled.
type BufferPool struct {
	buckets []*Pool[[]byte]
}

// NewBufferPool creates a buffer pool with buckets from 4 KiB to 4 MiB.
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	for shift := minBufferShift; shift <= maxBufferShift; shift += 2 {
		size := 1 << shift
		bp.buckets = append(bp.buckets, New(func() []byte { return make([]byte, size) }, nil))
	}
	return bp
}

func bucketSize(i int) int {
	return 1 << (minBufferShift + 2*i)
}

// Get returns a buffer of length size. Its capacity may be larger.
func (p *BufferPool) Get(size int) []byte {
	for i, b := range p.buckets {
		if bucketSize(i) >= size {
			return b.Get()[:size]
		}
	}
	return make([]byte, size)
}

// Put returns buf to the bucket matching its capacity. Buffers that match no
// bucket, such as oversized ones from Get, are dropped.
func (p *BufferPool) Put(buf []byte) {
	c := cap(buf)
	for i, b := range p.buckets {
		if bucketSize(i) == c {
			b.Put(buf[:c])
			return
		}
	}
}

// Buffers is the process-wide buffer pool used for reader input buffers.
var Buffers = NewBufferPool()
