// Package metrics provides Prometheus instrumentation for lease pools.
//
// # Overview
//
// The package provides:
//   - Pre-registered counter and gauge vectors labelled by pool, kind and tier
//   - PoolMetrics, a set of curried children bound to one tier pool so the
//     hot path only pays for an atomic add
//   - Timer, ThroughputTracker and LatencyTracker used by the stress harness
//
// # Basic Usage
//
//	m := metrics.ForPool("editor-text", "text_buffer", "1024")
//	m.Hit()
//	m.Leased(1)
//
//	tracker := metrics.NewThroughputTracker("editor-text")
//	tracker.Increment(1)
//	cyclesPerSec := tracker.GetAndReset()
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var poolLabels = []string{"pool", "kind", "tier"}

var (
	// ItemsCreated counts items constructed by a tier's policy.
	ItemsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasepool_items_created_total",
			Help: "Total number of items constructed by item policies",
		},
		poolLabels,
	)

	// PoolHits counts acquisitions served from the idle free-list.
	PoolHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasepool_pool_hits_total",
			Help: "Acquisitions served by an idle item",
		},
		poolLabels,
	)

	// PoolMisses counts acquisitions that had to construct a new item.
	PoolMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasepool_pool_misses_total",
			Help: "Acquisitions that constructed a new item",
		},
		poolLabels,
	)

	// ItemsReturned counts items accepted back onto the free-list.
	ItemsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasepool_items_returned_total",
			Help: "Items reset and accepted back into a pool",
		},
		poolLabels,
	)

	// ItemsDiscarded counts returned items dropped by the idle cap.
	ItemsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasepool_items_discarded_total",
			Help: "Returned items dropped because the pool was at its idle cap",
		},
		poolLabels,
	)

	// Misuse counts rejected double releases and double returns.
	Misuse = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasepool_misuse_total",
			Help: "Rejected double releases, double returns and use-after-release",
		},
		poolLabels,
	)

	// IdleItems tracks the current free-list length.
	IdleItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leasepool_idle_items",
			Help: "Items currently idle in a pool",
		},
		poolLabels,
	)

	// LeasedItems tracks items currently checked out.
	LeasedItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leasepool_leased_items",
			Help: "Items currently checked out of a pool",
		},
		poolLabels,
	)

	// RentLatency tracks rent+release cycle latency measured by the stress
	// harness, in nanoseconds.
	RentLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "leasepool_rent_cycle_latency_nanoseconds",
			Help: "Latency of a rent, mutate and release cycle in nanoseconds",
			Buckets: []float64{
				50,     // 50ns - free-list hit
				100,    // 100ns
				250,    // 250ns
				1000,   // 1μs - allocation
				10000,  // 10μs - large growth
				100000, // 100μs - contention
				1e6,    // 1ms
			},
		},
		[]string{"pool"},
	)

	// Throughput tracks rent cycles per second during stress runs.
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leasepool_throughput_cycles_per_second",
			Help: "Rent and release cycles per second",
		},
		[]string{"pool"},
	)
)

// PoolMetrics holds the metric children for one tier pool. A nil
// *PoolMetrics is valid and records nothing.
type PoolMetrics struct {
	created   prometheus.Counter
	hits      prometheus.Counter
	misses    prometheus.Counter
	returned  prometheus.Counter
	discarded prometheus.Counter
	misuse    prometheus.Counter
	idle      prometheus.Gauge
	leased    prometheus.Gauge
}

// ForPool binds the pool metric vectors to one pool/kind/tier label set.
func ForPool(pool, kind, tier string) *PoolMetrics {
	return &PoolMetrics{
		created:   ItemsCreated.WithLabelValues(pool, kind, tier),
		hits:      PoolHits.WithLabelValues(pool, kind, tier),
		misses:    PoolMisses.WithLabelValues(pool, kind, tier),
		returned:  ItemsReturned.WithLabelValues(pool, kind, tier),
		discarded: ItemsDiscarded.WithLabelValues(pool, kind, tier),
		misuse:    Misuse.WithLabelValues(pool, kind, tier),
		idle:      IdleItems.WithLabelValues(pool, kind, tier),
		leased:    LeasedItems.WithLabelValues(pool, kind, tier),
	}
}

// Created records a newly constructed item.
func (m *PoolMetrics) Created() {
	if m != nil {
		m.created.Inc()
	}
}

// Hit records an acquisition served from the free-list.
func (m *PoolMetrics) Hit() {
	if m != nil {
		m.hits.Inc()
		m.idle.Dec()
	}
}

// Miss records an acquisition that had to construct an item.
func (m *PoolMetrics) Miss() {
	if m != nil {
		m.misses.Inc()
	}
}

// Returned records an item accepted back onto the free-list.
func (m *PoolMetrics) Returned() {
	if m != nil {
		m.returned.Inc()
		m.idle.Inc()
	}
}

// Discarded records a returned item dropped by the idle cap.
func (m *PoolMetrics) Discarded() {
	if m != nil {
		m.discarded.Inc()
	}
}

// Misused records a rejected double release or double return.
func (m *PoolMetrics) Misused() {
	if m != nil {
		m.misuse.Inc()
	}
}

// Prewarmed records n items placed on the free-list without a checkout.
func (m *PoolMetrics) Prewarmed(n int) {
	if m != nil {
		m.idle.Add(float64(n))
	}
}

// Leased adjusts the checked-out gauge by delta.
func (m *PoolMetrics) Leased(delta int) {
	if m != nil {
		m.leased.Add(float64(delta))
	}
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks rent cycles per second over time windows.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Cycles since last reset
	lastReset time.Time // Time of last reset
	pool      string    // Pool label
}

// NewThroughputTracker creates a new throughput tracker for a pool.
func NewThroughputTracker(pool string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		pool:      pool,
	}
}

// Increment adds n to the cycle count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates cycles/second since the last reset, updates the
// Prometheus gauge, resets the counter and returns the value.
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

	Throughput.WithLabelValues(t.pool).Set(throughput)

	return throughput
}

// LatencyTracker keeps the most recent latency samples for percentile
// queries.
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	maxSize int
}

// NewLatencyTracker creates a tracker holding at most maxSize samples.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LatencyTracker{
		values:  make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record records a latency value, evicting the oldest sample when full.
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) >= l.maxSize {
		copy(l.values, l.values[1:])
		l.values = l.values[:len(l.values)-1]
	}
	l.values = append(l.values, d)
}

// Count returns the number of retained samples.
func (l *LatencyTracker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.values)
}

// GetPercentile returns the p-th percentile (0-100) of retained samples.
func (l *LatencyTracker) GetPercentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := make([]time.Duration, len(l.values))
	copy(sorted, l.values)
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p / 100)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
