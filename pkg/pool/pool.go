// Package pool provides capacity-bucketed object pooling with scoped leases.
//
// The package provides:
//   - Policy[T]: per-kind create/reset contract (text buffers, sets)
//   - Pool[T]: a concurrent free-list of idle items of one kind and tier
//   - Factory[T]: routes requests to the smallest tier whose items are big
//     enough, so small call sites never starve large-buffer pools
//   - Lease[T]: a single-use handle that resets and returns its item exactly
//     once
//
// Example usage:
//
//	texts, err := pool.NewTextBufferFactory(config.NewPoolConfig("editor-text"))
//	if err != nil {
//	    return err
//	}
//
//	lease, err := texts.RentCapacity(2048)
//	if err != nil {
//	    return err
//	}
//	defer lease.Release()
//
//	buf := lease.MustItem()
//	buf.WriteString("hello")
//
// Or with guaranteed release on every exit path, panics included:
//
//	err := pool.With(texts, 2048, func(buf *textbuf.Buffer) error {
//	    _, err := buf.WriteString("hello")
//	    return err
//	})
package pool

import (
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajitpratap0/leasepool/pkg/logger"
	"github.com/ajitpratap0/leasepool/pkg/metrics"
	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
)

// Pool is a concurrent free-list of idle items of one kind, backed by a
// Policy. Every idle item has been reset by the policy.
//
// The free-list is a mutex-guarded LIFO stack so the most recently returned,
// cache-warm item is handed out first. An identity index of idle items lets
// Return reject an item that is already idle instead of duplicating it.
// Acquisition never blocks on availability: when the free-list is empty a new
// item is created.
type Pool[T any] struct {
	policy  Policy[T]
	name    string
	tier    int
	maxIdle int
	log     *zap.Logger
	metrics *metrics.PoolMetrics

	mu    sync.Mutex
	idle  []*T
	index map[*T]struct{}

	stats struct {
		created   atomic.Int64
		inUse     atomic.Int64
		hits      atomic.Int64
		misses    atomic.Int64
		returned  atomic.Int64
		discarded atomic.Int64
		misuse    atomic.Int64
	}
}

// Stats represents pool statistics for monitoring and tuning.
type Stats struct {
	// Created is the total number of items constructed by the policy
	Created int64 `json:"created"`
	// InUse is Get calls minus accepted or discarded returns, floored at
	// zero. Returns of items the pool never handed out count as returns.
	InUse int64 `json:"in_use"`
	// Hits is the number of acquisitions served from the free-list
	Hits int64 `json:"hits"`
	// Misses is the number of acquisitions that created a new item
	Misses int64 `json:"misses"`
	// Returned is the number of items accepted back onto the free-list
	Returned int64 `json:"returned"`
	// Discarded is the number of returned items dropped by the idle cap
	Discarded int64 `json:"discarded"`
	// Misuse is the number of rejected double releases and double returns
	Misuse int64 `json:"misuse"`
	// Idle is the current free-list length
	Idle int `json:"idle"`
}

// NewPool creates a pool for the given policy.
//
// Example:
//
//	p, err := pool.NewPool[textbuf.Buffer](pool.TextBufferPolicy{InitialCapacity: 512},
//	    pool.WithName("scratch"),
//	    pool.WithMaxIdle(32),
//	)
func NewPool[T any](policy Policy[T], opts ...Option) (*Pool[T], error) {
	if policy == nil {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "pool policy is required")
	}

	o := newOptions(opts)
	if o.maxIdle < 0 {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "max idle cannot be negative").
			WithDetail("max_idle", o.maxIdle)
	}
	return newPool(policy, o, 0), nil
}

func newPool[T any](policy Policy[T], o options, tier int) *Pool[T] {
	tierLabel := "none"
	if tier > 0 {
		tierLabel = strconv.Itoa(tier)
	}

	p := &Pool[T]{
		policy:  policy,
		name:    o.name,
		tier:    tier,
		maxIdle: o.maxIdle,
		log: o.logger.With(
			zap.String("pool", o.name),
			zap.String("kind", policy.Kind().String()),
			zap.String("tier", tierLabel),
		),
		index: make(map[*T]struct{}),
	}
	if o.maxIdle > 0 {
		p.idle = make([]*T, 0, o.maxIdle)
	}
	if o.enableMetrics {
		p.metrics = metrics.ForPool(o.name, policy.Kind().String(), tierLabel)
	}
	return p
}

// Get returns an idle item if one is available, otherwise a new item from
// the policy. Policy failures are returned as create errors.
func (p *Pool[T]) Get() (*T, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		item := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		delete(p.index, item)
		p.mu.Unlock()

		p.stats.hits.Add(1)
		p.stats.inUse.Add(1)
		p.metrics.Hit()
		p.metrics.Leased(1)
		return item, nil
	}
	p.mu.Unlock()

	item, err := p.create()
	if err != nil {
		return nil, err
	}
	p.stats.misses.Add(1)
	p.stats.inUse.Add(1)
	p.metrics.Miss()
	p.metrics.Leased(1)
	return item, nil
}

// Return resets the item through the policy and makes it available to Get.
// It reports whether the item was kept: false with a nil error means the
// pool was at its idle cap and the item was dropped.
//
// A nil item is an invalid-argument error. An item that is already idle in
// this pool is a misuse error and the free-list is left unchanged.
func (p *Pool[T]) Return(item *T) (bool, error) {
	if item == nil {
		return false, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "cannot return a nil item").
			WithDetail("pool", p.name)
	}

	// Reject an idle item before resetting it; it may already be checked
	// out again by another goroutine.
	p.mu.Lock()
	_, dup := p.index[item]
	p.mu.Unlock()
	if dup {
		return false, p.doubleReturn()
	}

	p.policy.Reset(item)

	p.mu.Lock()
	if _, dup := p.index[item]; dup {
		p.mu.Unlock()
		return false, p.doubleReturn()
	}
	if p.maxIdle > 0 && len(p.idle) >= p.maxIdle {
		p.mu.Unlock()
		p.stats.discarded.Add(1)
		p.metrics.Discarded()
		p.checkedIn()
		p.log.Debug("idle cap reached, discarding returned item", zap.Int("max_idle", p.maxIdle))
		return false, nil
	}
	p.idle = append(p.idle, item)
	p.index[item] = struct{}{}
	p.mu.Unlock()

	p.stats.returned.Add(1)
	p.metrics.Returned()
	p.checkedIn()
	return true, nil
}

// Lease acquires an item and wraps it in a Lease bound to this pool.
func (p *Pool[T]) Lease() (*Lease[T], error) {
	item, err := p.Get()
	if err != nil {
		return nil, err
	}
	return newLease(item, p), nil
}

// Prewarm creates items until the free-list holds n items or the idle cap
// is reached. It returns the number of items added.
func (p *Pool[T]) Prewarm(n int) (int, error) {
	if n < 0 {
		return 0, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "prewarm count cannot be negative").
			WithDetail("count", n)
	}

	added := 0
	for {
		p.mu.Lock()
		full := len(p.idle) >= n || (p.maxIdle > 0 && len(p.idle) >= p.maxIdle)
		p.mu.Unlock()
		if full {
			return added, nil
		}

		item, err := p.create()
		if err != nil {
			return added, err
		}

		p.mu.Lock()
		if p.maxIdle > 0 && len(p.idle) >= p.maxIdle {
			p.mu.Unlock()
			return added, nil
		}
		p.idle = append(p.idle, item)
		p.index[item] = struct{}{}
		p.mu.Unlock()

		added++
		p.metrics.Prewarmed(1)
	}
}

// Len returns the number of idle items.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Name returns the pool name used in logs and metrics.
func (p *Pool[T]) Name() string {
	return p.name
}

// Tier returns the capacity threshold of the tier this pool serves, or 0 for
// a standalone pool.
func (p *Pool[T]) Tier() int {
	return p.tier
}

// Stats returns a snapshot of the pool statistics.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Created:   p.stats.created.Load(),
		InUse:     p.stats.inUse.Load(),
		Hits:      p.stats.hits.Load(),
		Misses:    p.stats.misses.Load(),
		Returned:  p.stats.returned.Load(),
		Discarded: p.stats.discarded.Load(),
		Misuse:    p.stats.misuse.Load(),
		Idle:      p.Len(),
	}
}

func (p *Pool[T]) create() (*T, error) {
	item, err := p.policy.Create()
	if err != nil {
		p.log.Error("item policy failed to create item", zap.Error(err))
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeCreate, "policy failed to create item").
			WithDetail("pool", p.name).
			WithDetail("kind", p.policy.Kind().String())
	}
	if item == nil {
		p.log.Error("item policy returned a nil item")
		return nil, poolerrors.New(poolerrors.ErrorTypeCreate, "policy returned a nil item").
			WithDetail("pool", p.name).
			WithDetail("kind", p.policy.Kind().String())
	}
	p.stats.created.Add(1)
	p.metrics.Created()
	return item, nil
}

// checkedIn lowers the in-use count without taking it below zero.
func (p *Pool[T]) checkedIn() {
	for {
		n := p.stats.inUse.Load()
		if n <= 0 {
			return
		}
		if p.stats.inUse.CompareAndSwap(n, n-1) {
			p.metrics.Leased(-1)
			return
		}
	}
}

func (p *Pool[T]) doubleReturn() error {
	p.misused("item returned while already idle")
	return poolerrors.New(poolerrors.ErrorTypeMisuse, "item is already idle in the pool").
		WithDetail("pool", p.name)
}

func (p *Pool[T]) misused(msg string) {
	p.stats.misuse.Add(1)
	p.metrics.Misused()
	p.log.Warn(msg)
}

// options configures pools and factories.
type options struct {
	name            string
	maxIdle         int
	logger          *zap.Logger
	enableMetrics   bool
	defaultCapacity int
	prewarm         int
}

// Option configures a Pool or Factory.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		name: "default",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

// WithName sets the name used in logs and metric labels.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithMaxIdle caps each free-list at n idle items; returns beyond the cap
// are dropped. Zero means unbounded.
func WithMaxIdle(n int) Option {
	return func(o *options) {
		o.maxIdle = n
	}
}

// WithLogger sets the logger. Defaults to logger.Get().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics enables Prometheus metrics for the pool or each tier pool.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.enableMetrics = enabled
	}
}

// WithDefaultCapacity sets the capacity used by Factory.Rent. Ignored by
// standalone pools.
func WithDefaultCapacity(capacity int) Option {
	return func(o *options) {
		o.defaultCapacity = capacity
	}
}

// WithPrewarm creates n idle items per tier when a factory is built.
// Ignored by standalone pools; call Pool.Prewarm instead.
func WithPrewarm(n int) Option {
	return func(o *options) {
		o.prewarm = n
	}
}
