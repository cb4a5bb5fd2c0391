package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SlowQuery records one query that exceeded the configured threshold.
type SlowQuery struct {
	Label    string
	Duration time.Duration
	At       time.Time
}

// Snapshot is the observability view spec §4.2 requires: query count,
// total/average duration, and a rolling window of slow queries. Never
// used to gate a request, only exposed (stats CLI, tests).
type Snapshot struct {
	QueryCount  int64
	ErrorCount  int64
	TotalTime   time.Duration
	AverageTime time.Duration
	SlowQueries []SlowQuery
}

// Metrics wraps prometheus counters/histogram with an in-memory ring of
// recent slow queries, the way mugisham37-DriveMaster's OptimizedPool
// tracks PoolStats, but exported as real prometheus collectors instead
// of a bespoke struct only the process itself can read.
type Metrics struct {
	mu          sync.Mutex
	threshold   time.Duration
	windowSize  int
	slowQueries []SlowQuery

	queryCount int64
	errorCount int64
	totalNanos int64

	promQueryCount prometheus.Counter
	promErrorCount prometheus.Counter
	promQueryTime  prometheus.Histogram
	promSlowCount  prometheus.Counter
}

func newMetrics(threshold time.Duration, windowSize int) *Metrics {
	if threshold <= 0 {
		threshold = 100 * time.Millisecond
	}
	if windowSize <= 0 {
		windowSize = 50
	}
	return &Metrics{
		threshold:  threshold,
		windowSize: windowSize,
		promQueryCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_query_total",
			Help: "Total store queries executed.",
		}),
		promErrorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total store queries that returned an error.",
		}),
		promQueryTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Store query duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		promSlowCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_slow_query_total",
			Help: "Total store queries slower than the configured threshold.",
		}),
	}
}

// Collectors exposes the prometheus collectors so a caller can register
// them on its own registry; nothing in the core registers them.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.promQueryCount, m.promErrorCount, m.promQueryTime, m.promSlowCount}
}

func (m *Metrics) record(label string, d time.Duration, err error) {
	atomic.AddInt64(&m.queryCount, 1)
	atomic.AddInt64(&m.totalNanos, int64(d))
	m.promQueryCount.Inc()
	m.promQueryTime.Observe(d.Seconds())
	if err != nil {
		atomic.AddInt64(&m.errorCount, 1)
		m.promErrorCount.Inc()
	}

	if d <= m.threshold {
		return
	}

	m.promSlowCount.Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slowQueries = append(m.slowQueries, SlowQuery{Label: label, Duration: d, At: time.Now()})
	if len(m.slowQueries) > m.windowSize {
		m.slowQueries = m.slowQueries[len(m.slowQueries)-m.windowSize:]
	}
}

func (m *Metrics) isSlow(d time.Duration) bool { return d > m.threshold }

func (m *Metrics) snapshot() Snapshot {
	m.mu.Lock()
	slow := append([]SlowQuery(nil), m.slowQueries...)
	m.mu.Unlock()

	count := atomic.LoadInt64(&m.queryCount)
	total := time.Duration(atomic.LoadInt64(&m.totalNanos))
	var avg time.Duration
	if count > 0 {
		avg = total / time.Duration(count)
	}

	return Snapshot{
		QueryCount:  count,
		ErrorCount:  atomic.LoadInt64(&m.errorCount),
		TotalTime:   total,
		AverageTime: avg,
		SlowQueries: slow,
	}
}
