// Package stress drives a lease factory from many goroutines and checks that
// no item is ever handed to two holders at once.
package stress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/leasepool/pkg/logger"
	"github.com/ajitpratap0/leasepool/pkg/metrics"
	"github.com/ajitpratap0/leasepool/pkg/observability"
	"github.com/ajitpratap0/leasepool/pkg/performance"
	"github.com/ajitpratap0/leasepool/pkg/pool"
	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
	"github.com/ajitpratap0/leasepool/pkg/set"
)

const (
	defaultWorkers        = 8
	defaultCycles         = 10000
	defaultSampleInterval = 50 * time.Millisecond
	latencySamples        = 10000
)

// Workload mutates a leased item. It runs while the worker holds the lease.
type Workload[T any] func(item *T, worker, cycle int) error

// Options configures a stress run.
type Options struct {
	// Workers is the number of concurrent goroutines (default 8)
	Workers int
	// Cycles is the number of rent/release cycles per worker (default 10000)
	Cycles int
	// Capacities are requested in rotation; empty uses the factory default
	Capacities []int
	// SampleInterval is the resident memory sampling period (default 50ms)
	SampleInterval time.Duration
	// Logger defaults to logger.WithContext(ctx)
	Logger *zap.Logger
}

// Report summarizes a stress run.
type Report struct {
	Pool            string                     `json:"pool"`
	Kind            string                     `json:"kind"`
	Workers         int                        `json:"workers"`
	Cycles          int                        `json:"cycles"`
	Leases          int64                      `json:"leases"`
	DistinctItems   int                        `json:"distinct_items"`
	DoubleCheckouts int64                      `json:"double_checkouts"`
	Duration        time.Duration              `json:"duration_ns"`
	CyclesPerSecond float64                    `json:"cycles_per_second"`
	P50             time.Duration              `json:"p50_ns"`
	P95             time.Duration              `json:"p95_ns"`
	P99             time.Duration              `json:"p99_ns"`
	Tiers           map[int]pool.Stats         `json:"tiers"`
	Total           pool.Stats                 `json:"total"`
	Resources       *performance.ResourceUsage `json:"resources,omitempty"`
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.Cycles <= 0 {
		o.Cycles = defaultCycles
	}
	if o.SampleInterval <= 0 {
		o.SampleInterval = defaultSampleInterval
	}
}

// Run rents, mutates and releases items from f on opts.Workers goroutines
// for opts.Cycles cycles each. The first workload or pool error cancels the
// run. Detecting the same item held by two workers at once is reported as an
// internal error alongside the report.
func Run[T any](ctx context.Context, f *pool.Factory[T], work Workload[T], opts Options) (*Report, error) {
	if f == nil {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "factory is required")
	}
	if work == nil {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "workload is required")
	}
	for _, c := range opts.Capacities {
		if c <= 0 {
			return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "capacities must be positive").
				WithDetail("capacity", c)
		}
	}
	opts.applyDefaults()

	ctx, span := observability.StartSpan(ctx, "stress.run")
	span.SetAttribute("pool", f.Name())
	span.SetAttribute("kind", f.Kind().String())
	span.SetAttribute("workers", opts.Workers)
	span.SetAttribute("cycles", opts.Cycles)
	span.SetAttribute("tiers", f.Tiers())

	report, err := run(ctx, f, work, opts)
	if report != nil {
		span.SetAttribute("leases", report.Leases)
		span.SetAttribute("distinct_items", report.DistinctItems)
		span.SetAttribute("double_checkouts", report.DoubleCheckouts)
		span.SetAttribute("cycles_per_second", report.CyclesPerSecond)
	}
	span.Finish(err)
	return report, err
}

func run[T any](ctx context.Context, f *pool.Factory[T], work Workload[T], opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = logger.WithContext(ctx)
	}
	log = log.With(zap.String("factory", f.Name()), zap.String("kind", f.Kind().String()))

	monitor, err := performance.NewResourceMonitor()
	if err != nil {
		log.Warn("resource monitoring unavailable", zap.Error(err))
	}

	tr := newTracker[T](opts.Workers * len(f.Tiers()))
	latency := metrics.NewLatencyTracker(latencySamples)
	throughput := metrics.NewThroughputTracker(f.Name())
	histogram := metrics.RentLatency.WithLabelValues(f.Name())
	var leases atomic.Int64

	log.Info("stress run starting",
		zap.Int("workers", opts.Workers),
		zap.Int("cycles", opts.Cycles),
		zap.Ints("capacities", opts.Capacities),
		zap.Ints("tiers", f.Tiers()))

	sampleCtx, stopSampling := context.WithCancel(ctx)
	var sampling sync.WaitGroup
	if monitor != nil {
		sampling.Add(1)
		go func() {
			defer sampling.Done()
			monitor.Sample(sampleCtx, opts.SampleInterval)
		}()
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.Workers; w++ {
		worker := w
		g.Go(func() error {
			for cycle := 0; cycle < opts.Cycles; cycle++ {
				if err := gctx.Err(); err != nil {
					return err
				}

				timer := metrics.NewTimer(f.Name())
				err := pool.With(f, capacityFor(f, opts.Capacities, worker, cycle), func(item *T) error {
					tr.acquire(item)
					defer tr.release(item)
					return work(item, worker, cycle)
				})
				if err != nil {
					log.Error("stress cycle failed",
						zap.Int("worker", worker),
						zap.Int("cycle", cycle),
						zap.Error(err))
					return err
				}

				d := timer.Stop()
				latency.Record(d)
				histogram.Observe(float64(d.Nanoseconds()))
				throughput.Increment(1)
				leases.Add(1)
			}
			return nil
		})
	}
	runErr := g.Wait()
	elapsed := time.Since(start)

	stopSampling()
	sampling.Wait()

	report := &Report{
		Pool:            f.Name(),
		Kind:            f.Kind().String(),
		Workers:         opts.Workers,
		Cycles:          opts.Cycles,
		Leases:          leases.Load(),
		DistinctItems:   tr.distinctCount(),
		DoubleCheckouts: tr.doubleCheckouts.Load(),
		Duration:        elapsed,
		CyclesPerSecond: throughput.GetAndReset(),
		P50:             latency.GetPercentile(50),
		P95:             latency.GetPercentile(95),
		P99:             latency.GetPercentile(99),
		Tiers:           f.Stats(),
		Total:           f.TotalStats(),
	}
	if monitor != nil {
		if usage, err := monitor.Usage(); err == nil {
			report.Resources = usage
		} else {
			log.Warn("failed to read resource usage", zap.Error(err))
		}
	}

	log.Info("stress run finished",
		zap.Int64("leases", report.Leases),
		zap.Int("distinct_items", report.DistinctItems),
		zap.Int64("double_checkouts", report.DoubleCheckouts),
		zap.Duration("duration", report.Duration),
		zap.Float64("cycles_per_second", report.CyclesPerSecond),
		zap.Duration("p99", report.P99))

	if runErr != nil {
		return report, runErr
	}
	if report.DoubleCheckouts > 0 {
		return report, poolerrors.New(poolerrors.ErrorTypeInternal, "item leased to two holders at once").
			WithDetail("double_checkouts", report.DoubleCheckouts)
	}
	return report, nil
}

func capacityFor[T any](f *pool.Factory[T], capacities []int, worker, cycle int) int {
	if len(capacities) == 0 {
		return f.DefaultCapacity()
	}
	return capacities[(worker+cycle)%len(capacities)]
}

// tracker records which items are currently held and every item seen.
type tracker[T any] struct {
	mu              sync.Mutex
	held            map[*T]struct{}
	seen            *set.Set[*T]
	doubleCheckouts atomic.Int64
}

func newTracker[T any](capacity int) *tracker[T] {
	return &tracker[T]{
		held: make(map[*T]struct{}, capacity),
		seen: set.New[*T](capacity),
	}
}

func (tr *tracker[T]) acquire(item *T) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, dup := tr.held[item]; dup {
		tr.doubleCheckouts.Add(1)
	}
	tr.held[item] = struct{}{}
	tr.seen.Add(item)
}

func (tr *tracker[T]) release(item *T) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	delete(tr.held, item)
}

func (tr *tracker[T]) distinctCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.seen.Len()
}
