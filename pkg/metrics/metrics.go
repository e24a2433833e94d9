// Package metrics exposes Prometheus instrumentation for the CSV codec.
//
// All collectors are registered on Registry rather than the process-wide
// default registerer, so embedding applications choose whether to expose
// them.
//
// # Basic Usage
//
//	metrics.RecordsRead.WithLabelValues(metrics.StatusOK).Inc()
//
//	timer := metrics.NewTimer("convert")
//	runPipeline()
//	metrics.RecordLatency.WithLabelValues("convert").Observe(float64(timer.Stop().Nanoseconds()))
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Registry holds every collector in this package.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RecordsRead counts records returned by readers.
	// Labels: status (ok/error)
	RecordsRead = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialectcsv_records_read_total",
			Help: "Total number of records read",
		},
		[]string{"status"},
	)

	// RecordsWritten counts rows emitted by writers.
	RecordsWritten = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "dialectcsv_records_written_total",
			Help: "Total number of records written",
		},
	)

	// BytesRead counts raw bytes consumed by readers, terminators included.
	BytesRead = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "dialectcsv_bytes_read_total",
			Help: "Total number of bytes read",
		},
	)

	// BytesWritten counts bytes handed to the underlying writer.
	BytesWritten = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "dialectcsv_bytes_written_total",
			Help: "Total number of bytes written",
		},
	)

	// ParseErrors counts malformed lines.
	// Labels: code (parser result name)
	ParseErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialectcsv_parse_errors_total",
			Help: "Total number of lines that failed to parse",
		},
		[]string{"code"},
	)

	// ArenaUsedBytes reports the arena high-water mark of the most recently
	// closed component.
	// Labels: component (reader/writer)
	ArenaUsedBytes = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dialectcsv_arena_peak_bytes",
			Help: "Arena high-water mark in bytes",
		},
		[]string{"component"},
	)

	// RecordLatency tracks per-record latency in nanoseconds.
	// Labels: operation
	RecordLatency = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dialectcsv_record_latency_nanoseconds",
			Help: "Per-record processing latency in nanoseconds",
			Buckets: []float64{
				100,    // 100ns
				1000,   // 1μs
				10000,  // 10μs
				100000, // 100μs
				1e6,    // 1ms
				1e7,    // 10ms
				1e8,    // 100ms
			},
		},
		[]string{"operation"},
	)

	// Throughput tracks records per second of the last completed run.
	// Labels: operation
	Throughput = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dialectcsv_throughput_records_per_second",
			Help: "Throughput in records per second",
		},
		[]string{"operation"},
	)
)

// Timer measures the duration of an operation.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer starts a timer.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the name the timer was created with.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the time elapsed since NewTimer. It may be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker counts records over a window and publishes the rate to
// Throughput. Safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	operation string
}

// NewThroughputTracker creates a tracker for operation.
func NewThroughputTracker(operation string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		operation: operation,
	}
}

// Increment adds n to the record count.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset publishes and returns the rate since the last reset.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.operation).Set(throughput)

	return throughput
}

// Sample is one flattened metric value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot gathers Registry into a flat, name-sorted list. Histograms report
// their sample count.
func Snapshot() ([]Sample, error) {
	families, err := Registry.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := Sample{Name: mf.GetName()}
			if pairs := m.GetLabel(); len(pairs) > 0 {
				s.Labels = make(map[string]string, len(pairs))
				for _, lp := range pairs {
					s.Labels[lp.GetName()] = lp.GetValue()
				}
			}
			switch {
			case m.GetCounter() != nil:
				s.Value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				s.Value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				s.Value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
