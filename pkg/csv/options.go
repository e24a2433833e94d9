package csv

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/dialectcsv/pkg/arena"
	"github.com/ajitpratap0/dialectcsv/pkg/compression"
	"github.com/ajitpratap0/dialectcsv/pkg/errors"
	"github.com/ajitpratap0/dialectcsv/pkg/logger"
)

// Option configures a Reader or Writer.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	arenaSize  int
	arenaPool  *arena.Pool
	useMmap    bool
	bufferSize int
	algorithm  compression.Algorithm
	level      compression.Level
}

func applyOptions(opts []Option) options {
	o := options{
		arenaSize:  arena.DefaultSize,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

// WithLogger sets the logger. The default is the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithArenaSize sets the capacity of each arena. It bounds the longest
// logical line a reader can hold and the longest row a writer can encode.
func WithArenaSize(size int) Option {
	return func(o *options) {
		o.arenaSize = size
	}
}

// WithArenaPool draws arenas from p instead of allocating them. The pool's
// size overrides WithArenaSize.
func WithArenaPool(p *arena.Pool) Option {
	return func(o *options) {
		o.arenaPool = p
	}
}

// WithMmap makes Open map the input file into memory instead of reading it
// through the file descriptor. Compressed inputs ignore it.
func WithMmap(enabled bool) Option {
	return func(o *options) {
		o.useMmap = enabled
	}
}

// WithCompression overrides the codec Open and Create would pick from the
// file extension. level only affects Create.
func WithCompression(alg compression.Algorithm, level compression.Level) Option {
	return func(o *options) {
		o.algorithm = alg
		o.level = level
	}
}

// WithBufferSize sets the I/O buffer size.
func WithBufferSize(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

func (o options) newArena() (*arena.Arena, error) {
	if o.arenaPool != nil {
		return o.arenaPool.Get(), nil
	}
	a, err := arena.New(o.arenaSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeMemory, "failed to create arena").
			WithDetail("size", o.arenaSize)
	}
	return a, nil
}

func (o options) releaseArena(a *arena.Arena) {
	if a == nil {
		return
	}
	if o.arenaPool != nil {
		o.arenaPool.Put(a)
		return
	}
	a.Destroy()
}
