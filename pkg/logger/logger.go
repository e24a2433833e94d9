// Package logger builds the zap loggers used by the reader, writer, pipeline
// and CLI, and provides the field constructors they share so log lines carry
// the same keys everywhere.
package logger

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

var (
	mu     sync.RWMutex
	global *zap.Logger
)

// Config represents logger configuration
type Config struct {
	Level       string   `yaml:"level" json:"level"`
	Development bool     `yaml:"development" json:"development"`
	Encoding    string   `yaml:"encoding" json:"encoding"` // json or console
	OutputPaths []string `yaml:"output_paths" json:"output_paths"`
}

// New builds a zap logger from cfg. Output defaults to stderr because stdout
// carries CSV or JSON data in the CLI.
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "json"
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	if cfg.Development {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	out := cfg.OutputPaths
	if len(out) == 0 {
		out = []string{"stderr"}
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         cfg.Encoding,
		EncoderConfig:    enc,
		OutputPaths:      out,
		ErrorOutputPaths: []string{"stderr"},
	}
	opts := []zap.Option{}
	if cfg.Development {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	l, err := zcfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// SetGlobal replaces the logger returned by Get. A nil l installs a no-op
// logger.
func SetGlobal(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

// Get returns the process-wide logger. Library code falls back to it when no
// logger option is given; until SetGlobal is called it discards everything.
func Get() *zap.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Sync flushes the global logger.
func Sync() error {
	return Get().Sync()
}

// Component tags a logger with the subsystem that owns it.
func Component(name string) zap.Field {
	return zap.String("component", name)
}

// Path tags a log line with the file being read or written.
func Path(path string) zap.Field {
	return zap.String("path", path)
}

// Line tags a log line with a physical input line number.
func Line(n int64) zap.Field {
	return zap.Int64("line", n)
}

// Err logs err together with its error type and details when it carries
// them.
func Err(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	t, ok := errors.TypeOf(err)
	if !ok {
		return zap.Error(err)
	}
	return zap.Object("error", typedError{err: err, typ: t})
}

type typedError struct {
	err error
	typ errors.ErrorType
}

func (e typedError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("message", e.err.Error())
	enc.AddString("type", string(e.typ))
	details := errors.DetailsOf(e.err)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := enc.AddReflected(k, details[k]); err != nil {
			return err
		}
	}
	return nil
}
