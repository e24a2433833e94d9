package csv

import (
	"bytes"
	"io"

	"github.com/ajitpratap0/dialectcsv/pkg/pool"
)

const (
	defaultBufferSize = 64 << 10
	minBufferSize     = 16
)

// byteSource is a read buffer over a seekable stream that knows the stream
// offset of every buffered byte, so the reader can save and restore
// positions without an extra Seek per byte.
type byteSource struct {
	src  io.ReadSeeker
	buf  []byte
	r, w int
	base int64
	err  error
}

func newByteSource(src io.ReadSeeker, size int) *byteSource {
	if size < minBufferSize {
		size = minBufferSize
	}
	return &byteSource{
		src: src,
		buf: pool.Buffers.Get(size),
	}
}

func (s *byteSource) fill() {
	if s.r > 0 {
		copy(s.buf, s.buf[s.r:s.w])
		s.base += int64(s.r)
		s.w -= s.r
		s.r = 0
	}
	if s.w == len(s.buf) {
		return
	}
	for i := 0; i < 100; i++ {
		n, err := s.src.Read(s.buf[s.w:])
		s.w += n
		if err != nil {
			s.err = err
			return
		}
		if n > 0 {
			return
		}
	}
	s.err = io.ErrNoProgress
}

// ensure buffers at least k unread bytes and reports whether it could.
func (s *byteSource) ensure(k int) bool {
	for s.w-s.r < k && s.err == nil {
		s.fill()
	}
	return s.w-s.r >= k
}

func (s *byteSource) readByte() (byte, error) {
	if !s.ensure(1) {
		return 0, s.err
	}
	c := s.buf[s.r]
	s.r++
	return c, nil
}

func (s *byteSource) peekByte() (byte, error) {
	if !s.ensure(1) {
		return 0, s.err
	}
	return s.buf[s.r], nil
}

func (s *byteSource) hasPrefix(p []byte) bool {
	return s.ensure(len(p)) && bytes.Equal(s.buf[s.r:s.r+len(p)], p)
}

func (s *byteSource) discard(n int) {
	if s.ensure(n) {
		s.r += n
	}
}

// offset returns the stream offset of the next unread byte.
func (s *byteSource) offset() int64 {
	return s.base + int64(s.r)
}

func (s *byteSource) seek(off int64) error {
	s.err = nil
	if off >= s.base && off <= s.base+int64(s.w) {
		s.r = int(off - s.base)
		return nil
	}
	if _, err := s.src.Seek(off, io.SeekStart); err != nil {
		return err
	}
	s.base = off
	s.r, s.w = 0, 0
	return nil
}

func (s *byteSource) release() {
	if s.buf != nil {
		pool.Buffers.Put(s.buf)
		s.buf = nil
	}
}
