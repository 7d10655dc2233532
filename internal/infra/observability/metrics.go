package observability

import (
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger core.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	schedulerRuns     prometheus.Counter
	generated         prometheus.Counter
	duplicates        prometheus.Counter
	failures          *prometheus.CounterVec
	archiveOps        *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moneta_operation_duration_seconds",
				Help:    "Duration of scheduler and archiver operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		schedulerRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "moneta_scheduler_runs_total",
				Help: "Total scheduler batches executed.",
			},
		),
		generated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "moneta_scheduler_generated_total",
				Help: "Total transactions generated from recurring rules.",
			},
		),
		duplicates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "moneta_scheduler_duplicates_skipped_total",
				Help: "Generated occurrences dropped because their id was already live.",
			},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneta_scheduler_failures_total",
				Help: "Storage failures the scheduler recovered from.",
			},
			[]string{"stage"},
		),
		archiveOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneta_statement_operations_total",
				Help: "Monthly statements archived and unarchived.",
			},
			[]string{"op"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneta_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneta_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordDuration records the duration of an operation.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordRun records one scheduler batch.
func (m *Metrics) RecordRun(generated, duplicates int) {
	m.schedulerRuns.Inc()
	m.generated.Add(float64(generated))
	m.duplicates.Add(float64(duplicates))
}

// IncrFailure increments the scheduler failure counter for a stage.
func (m *Metrics) IncrFailure(stage string) {
	m.failures.WithLabelValues(stage).Inc()
}

// IncrArchived increments the archived statements counter.
func (m *Metrics) IncrArchived() {
	m.archiveOps.WithLabelValues("archive").Inc()
}

// IncrUnarchived increments the unarchived statements counter.
func (m *Metrics) IncrUnarchived() {
	m.archiveOps.WithLabelValues("unarchive").Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetSchedulerSnapshot returns the cumulative scheduler and archiver
// counters for GET /v1/metrics/scheduler.
func (m *Metrics) GetSchedulerSnapshot() *domain.SchedulerMetrics {
	runs := counterValue(m.schedulerRuns)
	generated := counterValue(m.generated)
	failures := float64(0)
	for _, stage := range []string{"list_rules", "update_rule", "list_ledger", "append"} {
		failures += counterValue(m.failures.WithLabelValues(stage))
	}
	hits := counterValue(m.cacheHits.WithLabelValues("accounts"))
	misses := counterValue(m.cacheMisses.WithLabelValues("accounts"))

	avg := float64(0)
	if runs > 0 {
		avg = generated / runs
	}
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.SchedulerMetrics{
		Runs:                  int64(runs),
		GeneratedTotal:        int64(generated),
		DuplicatesSkipped:     int64(counterValue(m.duplicates)),
		Failures:              int64(failures),
		MonthsArchived:        int64(counterValue(m.archiveOps.WithLabelValues("archive"))),
		MonthsUnarchived:      int64(counterValue(m.archiveOps.WithLabelValues("unarchive"))),
		AvgGeneratedPerRun:    avg,
		ReferenceCacheHitRate: hitRate,
	}
}

// counterValue extracts the current float64 value of a counter.
func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
