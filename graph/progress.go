// ABOUTME: Progress reporting sinks: push-only, fire-and-forget phase notifications
// ABOUTME: Sinks must be non-blocking and thread-safe; the engine never waits on them

package graph

import (
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProgressSink receives phase-transition notifications from an Engine run.
// Notify must return quickly and must not block the caller — the engine has
// no back-channel and treats the sink as fire-and-forget (SPEC_FULL.md §5).
type ProgressSink interface {
	Notify(phaseName string)
}

func notify(sink ProgressSink, phaseName string) {
	if sink == nil {
		return
	}
	sink.Notify(phaseName)
}

// LogSink reports phase transitions through log/slog. It is the
// zero-dependency default for environments with no metrics scrape endpoint.
type LogSink struct {
	Logger *slog.Logger
	mu     sync.Mutex
	last   time.Time
}

// NewLogSink returns a LogSink writing to logger, or slog.Default() if nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

// Notify implements ProgressSink.
func (s *LogSink) Notify(phaseName string) {
	s.mu.Lock()
	now := time.Now()
	var elapsed time.Duration
	if !s.last.IsZero() {
		elapsed = now.Sub(s.last)
	}
	s.last = now
	s.mu.Unlock()

	s.Logger.Info("heaplens analysis phase", "phase", phaseName, "elapsed", elapsed)
}

// MetricsSink reports phase durations and transition counts to Prometheus.
// It is the default sink wired by cmd/heaplens.
type MetricsSink struct {
	duration *prometheus.HistogramVec
	mu       sync.Mutex
	last     time.Time
}

// NewMetricsSink registers (or reuses) the heaplens phase-duration histogram
// on reg and returns a sink that records into it.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "heaplens",
		Subsystem: "engine",
		Name:      "phase_duration_seconds",
		Help:      "Time spent in each dominator-engine phase.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})

	if reg != nil {
		if err := reg.Register(hist); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				hist = are.ExistingCollector.(*prometheus.HistogramVec)
			}
		}
	}

	return &MetricsSink{duration: hist}
}

// Notify implements ProgressSink.
func (s *MetricsSink) Notify(phaseName string) {
	s.mu.Lock()
	now := time.Now()
	var elapsed time.Duration
	if !s.last.IsZero() {
		elapsed = now.Sub(s.last)
	}
	s.last = now
	s.mu.Unlock()

	s.duration.WithLabelValues(phaseName).Observe(elapsed.Seconds())
}
