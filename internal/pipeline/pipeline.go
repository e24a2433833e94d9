// Package pipeline copies records from a CSV reader to a CSV writer, passing
// each one through a chain of transforms.
//
// # Basic Usage
//
//	p := pipeline.New(reader, writer, logger)
//	p.AddTransform(pipeline.Filter(func(fields []string) bool {
//	    return fields[0] != ""
//	}))
//	stats, err := p.Run(ctx)
//
// The loop runs on the calling goroutine. Readers and writers are not safe
// for concurrent use, so there are no workers.
package pipeline

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/dialectcsv/pkg/csv"
	"github.com/ajitpratap0/dialectcsv/pkg/errors"
	lg "github.com/ajitpratap0/dialectcsv/pkg/logger"
	"github.com/ajitpratap0/dialectcsv/pkg/metrics"
	"github.com/ajitpratap0/dialectcsv/pkg/observability"
)

// Source yields records. *csv.Reader implements it.
type Source interface {
	Next() (*csv.Record, error)
}

// Sink consumes rows. *csv.Writer implements it.
type Sink interface {
	WriteRecord(fields []string) error
	Flush() error
}

// ErrorPolicy decides what happens to a malformed input line.
type ErrorPolicy int

const (
	// FailFast stops the run at the first malformed line.
	FailFast ErrorPolicy = iota
	// Skip logs and counts malformed lines and carries on.
	Skip
)

func (p ErrorPolicy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Stats summarises one run.
type Stats struct {
	Read     int64         `json:"read"`
	Written  int64         `json:"written"`
	Skipped  int64         `json:"skipped"`
	Filtered int64         `json:"filtered"`
	Duration time.Duration `json:"duration"`
}

// Pipeline moves records from a Source to a Sink.
type Pipeline struct {
	source     Source
	sink       Sink
	transforms []Transform
	policy     ErrorPolicy
	logger     *zap.Logger
}

// New creates a pipeline with the FailFast policy and no transforms.
func New(source Source, sink Sink, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source: source,
		sink:   sink,
		logger: logger.With(lg.Component("pipeline")),
	}
}

// AddTransform appends a transform. Transforms run in the order added.
func (p *Pipeline) AddTransform(t Transform) {
	p.transforms = append(p.transforms, t)
}

// SetErrorPolicy sets how malformed input lines are handled.
func (p *Pipeline) SetErrorPolicy(policy ErrorPolicy) {
	p.policy = policy
}

// Run copies records until the source is exhausted, ctx is done or an error
// stops it. The sink is flushed before Run returns, whatever the outcome.
// Stats are valid even when err is not nil.
func (p *Pipeline) Run(ctx context.Context) (stats Stats, err error) {
	timer := metrics.NewTimer("pipeline")
	tracker := metrics.NewThroughputTracker("pipeline")

	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.Int("transforms", len(p.transforms)),
		attribute.String("error_policy", p.policy.String()))

	p.logger.Info("starting pipeline",
		zap.Int("transforms", len(p.transforms)),
		zap.Stringer("error_policy", p.policy))

	defer func() {
		if ferr := p.sink.Flush(); ferr != nil && err == nil {
			err = ferr
		}
		stats.Duration = timer.Stop()
		tracker.Increment(stats.Written)
		throughput := tracker.GetAndReset()

		span.SetAttributes(
			attribute.Int64("records_read", stats.Read),
			attribute.Int64("records_written", stats.Written),
			attribute.Int64("records_skipped", stats.Skipped))
		observability.EndSpan(span, err)

		p.logger.Info("pipeline completed",
			zap.Int64("records_read", stats.Read),
			zap.Int64("records_written", stats.Written),
			zap.Int64("records_skipped", stats.Skipped),
			zap.Int64("records_filtered", stats.Filtered),
			zap.Duration("duration", stats.Duration),
			zap.Float64("throughput_rps", throughput))
	}()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		start := time.Now()
		rec, err := p.source.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			if !csv.IsParseError(err) {
				return stats, err
			}
			stats.Read++
			if p.policy == FailFast {
				return stats, err
			}
			stats.Skipped++
			p.logger.Warn("skipping malformed record", lg.Err(err))
			continue
		}
		stats.Read++

		fields, err := p.apply(ctx, rec.Fields())
		if err != nil {
			return stats, errors.Wrap(err, errors.ErrorTypeData, "transform failed").
				WithDetail("line", rec.Line())
		}
		if fields == nil {
			stats.Filtered++
			continue
		}

		if err := p.sink.WriteRecord(fields); err != nil {
			return stats, err
		}
		stats.Written++
		metrics.RecordLatency.WithLabelValues("pipeline").Observe(float64(time.Since(start).Nanoseconds()))
	}
}

func (p *Pipeline) apply(ctx context.Context, fields []string) ([]string, error) {
	for _, t := range p.transforms {
		out, err := t(ctx, fields)
		if err != nil || out == nil {
			return nil, err
		}
		fields = out
	}
	return fields, nil
}
