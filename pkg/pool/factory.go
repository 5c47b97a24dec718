package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/leasepool/pkg/config"
	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
)

// Tier pairs a capacity threshold with the pool that serves it.
type Tier[T any] struct {
	Threshold int
	Pool      *Pool[T]
}

// Factory owns several pools of the same item kind, one per capacity tier,
// and routes each request to the smallest tier whose items are big enough.
// Tiers are fixed at construction. A Factory is safe for concurrent use.
type Factory[T any] struct {
	name            string
	policy          SizedPolicy[T]
	thresholds      []int
	pools           []*Pool[T]
	defaultCapacity int
	log             *zap.Logger
}

// NewFactory builds a factory over caller-supplied tier pools. It fails fast
// when the policy or any pool is nil or when thresholds are not positive and
// strictly increasing. Tier pools should pre-size their items to the tier
// threshold; NewTieredFactory does this for you.
func NewFactory[T any](policy SizedPolicy[T], tiers []Tier[T], opts ...Option) (*Factory[T], error) {
	if policy == nil {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "factory policy is required")
	}
	if len(tiers) == 0 {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "at least one tier is required")
	}

	thresholds := make([]int, len(tiers))
	pools := make([]*Pool[T], len(tiers))
	for i, t := range tiers {
		if t.Pool == nil {
			return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "tier pool is required").
				WithDetail("index", i).
				WithDetail("threshold", t.Threshold)
		}
		thresholds[i] = t.Threshold
		pools[i] = t.Pool
	}
	if err := config.ValidateTiers(thresholds); err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeInvalidArgument, "invalid tier table")
	}

	o := newOptions(opts)
	return newFactory(policy, thresholds, pools, o)
}

// NewTieredFactory builds a factory with one pool per threshold. Each tier
// pool creates items pre-grown to its threshold.
//
// Example:
//
//	f, err := pool.NewTieredFactory[textbuf.Buffer](pool.TextBufferPolicy{},
//	    []int{256, 1024, 4096, 16384},
//	    pool.WithName("editor-text"),
//	    pool.WithMaxIdle(64),
//	)
func NewTieredFactory[T any](policy SizedPolicy[T], thresholds []int, opts ...Option) (*Factory[T], error) {
	if policy == nil {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "factory policy is required")
	}
	if err := config.ValidateTiers(thresholds); err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeInvalidArgument, "invalid tier table")
	}

	o := newOptions(opts)
	if o.maxIdle < 0 {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "max idle cannot be negative").
			WithDetail("max_idle", o.maxIdle)
	}

	ts := make([]int, len(thresholds))
	copy(ts, thresholds)
	pools := make([]*Pool[T], len(ts))
	for i, t := range ts {
		pools[i] = newPool[T](tierPolicy[T]{SizedPolicy: policy, threshold: t}, o, t)
	}

	return newFactory(policy, ts, pools, o)
}

func newFactory[T any](policy SizedPolicy[T], thresholds []int, pools []*Pool[T], o options) (*Factory[T], error) {
	defaultCapacity := o.defaultCapacity
	if defaultCapacity == 0 {
		defaultCapacity = thresholds[0]
	}
	if defaultCapacity < 0 {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "default capacity cannot be negative").
			WithDetail("default_capacity", defaultCapacity)
	}

	f := &Factory[T]{
		name:            o.name,
		policy:          policy,
		thresholds:      thresholds,
		pools:           pools,
		defaultCapacity: defaultCapacity,
		log: o.logger.With(
			zap.String("factory", o.name),
			zap.String("kind", policy.Kind().String()),
		),
	}

	if o.prewarm > 0 {
		for _, p := range pools {
			if _, err := p.Prewarm(o.prewarm); err != nil {
				return nil, err
			}
		}
	}

	f.log.Debug("lease factory created",
		zap.Ints("tiers", thresholds),
		zap.Int("default_capacity", defaultCapacity),
		zap.Int("max_idle", o.maxIdle),
		zap.Int("prewarm", o.prewarm))

	return f, nil
}

// Rent leases an item of at least the factory's default capacity.
func (f *Factory[T]) Rent() (*Lease[T], error) {
	return f.RentCapacity(f.defaultCapacity)
}

// RentCapacity leases an item whose capacity is at least minimumCapacity.
// The item comes from the smallest tier whose threshold covers the request,
// is reset, and is grown in place when still short of minimumCapacity.
// A non-positive capacity is an invalid-argument error and no pool is
// touched.
func (f *Factory[T]) RentCapacity(minimumCapacity int) (*Lease[T], error) {
	if minimumCapacity <= 0 {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "minimum capacity must be positive").
			WithDetail("factory", f.name).
			WithDetail("capacity", minimumCapacity)
	}

	p := f.pools[SelectTier(f.thresholds, minimumCapacity)]
	item, err := p.Get()
	if err != nil {
		return nil, err
	}

	// Pools only hold reset items; reset again so a faulty policy cannot
	// leak contents between leases.
	f.policy.Reset(item)
	if f.policy.Capacity(item) < minimumCapacity {
		f.policy.Grow(item, minimumCapacity)
	}

	return newLease(item, p), nil
}

// TierFor returns the threshold of the tier that serves minimumCapacity.
func (f *Factory[T]) TierFor(minimumCapacity int) (int, error) {
	if minimumCapacity <= 0 {
		return 0, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "minimum capacity must be positive").
			WithDetail("capacity", minimumCapacity)
	}
	return f.thresholds[SelectTier(f.thresholds, minimumCapacity)], nil
}

// Tiers returns a copy of the configured thresholds.
func (f *Factory[T]) Tiers() []int {
	out := make([]int, len(f.thresholds))
	copy(out, f.thresholds)
	return out
}

// Pool returns the pool serving the given threshold, or nil.
func (f *Factory[T]) Pool(threshold int) *Pool[T] {
	for i, t := range f.thresholds {
		if t == threshold {
			return f.pools[i]
		}
	}
	return nil
}

// DefaultCapacity returns the capacity used by Rent.
func (f *Factory[T]) DefaultCapacity() int {
	return f.defaultCapacity
}

// Name returns the factory name.
func (f *Factory[T]) Name() string {
	return f.name
}

// Kind returns the item kind managed by the factory.
func (f *Factory[T]) Kind() Kind {
	return f.policy.Kind()
}

// Stats returns a statistics snapshot per tier threshold.
func (f *Factory[T]) Stats() map[int]Stats {
	out := make(map[int]Stats, len(f.pools))
	for i, p := range f.pools {
		out[f.thresholds[i]] = p.Stats()
	}
	return out
}

// TotalStats sums the statistics of every tier.
func (f *Factory[T]) TotalStats() Stats {
	var total Stats
	for _, p := range f.pools {
		s := p.Stats()
		total.Created += s.Created
		total.InUse += s.InUse
		total.Hits += s.Hits
		total.Misses += s.Misses
		total.Returned += s.Returned
		total.Discarded += s.Discarded
		total.Misuse += s.Misuse
		total.Idle += s.Idle
	}
	return total
}
