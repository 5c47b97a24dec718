package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPoolMetrics(t *testing.T) {
	m := ForPool("metrics-test", "text_buffer", "256")

	m.Miss()
	m.Created()
	m.Leased(1)
	m.Returned()
	m.Leased(-1)
	m.Hit()
	m.Discarded()
	m.Misused()

	labels := []string{"metrics-test", "text_buffer", "256"}
	assert.Equal(t, 1.0, testutil.ToFloat64(ItemsCreated.WithLabelValues(labels...)))
	assert.Equal(t, 1.0, testutil.ToFloat64(PoolMisses.WithLabelValues(labels...)))
	assert.Equal(t, 1.0, testutil.ToFloat64(PoolHits.WithLabelValues(labels...)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ItemsReturned.WithLabelValues(labels...)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ItemsDiscarded.WithLabelValues(labels...)))
	assert.Equal(t, 1.0, testutil.ToFloat64(Misuse.WithLabelValues(labels...)))
	assert.Equal(t, 0.0, testutil.ToFloat64(IdleItems.WithLabelValues(labels...)))
	assert.Equal(t, 0.0, testutil.ToFloat64(LeasedItems.WithLabelValues(labels...)))
}

func TestNilPoolMetricsIsNoop(t *testing.T) {
	var m *PoolMetrics
	assert.NotPanics(t, func() {
		m.Created()
		m.Hit()
		m.Miss()
		m.Returned()
		m.Discarded()
		m.Misused()
		m.Prewarmed(3)
		m.Leased(1)
	})
}

func TestThroughputTracker(t *testing.T) {
	tracker := NewThroughputTracker("throughput-test")
	tracker.Increment(100)
	time.Sleep(10 * time.Millisecond)

	got := tracker.GetAndReset()
	assert.Greater(t, got, 0.0)
	assert.Equal(t, got, testutil.ToFloat64(Throughput.WithLabelValues("throughput-test")))
}

func TestLatencyTracker(t *testing.T) {
	l := NewLatencyTracker(4)
	for _, d := range []time.Duration{50, 10, 40, 20, 30} {
		l.Record(d)
	}

	assert.Equal(t, 4, l.Count())
	assert.Equal(t, time.Duration(10), l.GetPercentile(0))
	assert.Equal(t, time.Duration(40), l.GetPercentile(100))
	assert.Equal(t, time.Duration(0), NewLatencyTracker(1).GetPercentile(50))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("cycle")
	assert.Equal(t, "cycle", timer.Name())
	assert.GreaterOrEqual(t, timer.Stop(), time.Duration(0))
}
