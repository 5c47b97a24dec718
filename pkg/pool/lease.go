package pool

import (
	"sync/atomic"

	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
)

// Lease is a single-use handle on a borrowed item. Release resets the item
// and returns it to the pool it came from exactly once; every later Release
// returns a misuse error and changes nothing.
//
// Leases are obtained from Factory.Rent, Factory.RentCapacity or Pool.Lease.
// A lease is owned by one goroutine; releasing it from another goroutine is
// not supported. The item must not be used after Release: Item reports a
// misuse error, but a pointer retained from before Release cannot be guarded.
type Lease[T any] struct {
	item     *T
	pool     *Pool[T]
	released atomic.Bool
}

func newLease[T any](item *T, p *Pool[T]) *Lease[T] {
	return &Lease[T]{
		item: item,
		pool: p,
	}
}

// Item returns the leased item, or a misuse error after Release.
func (l *Lease[T]) Item() (*T, error) {
	if l.released.Load() {
		l.pool.misused("item accessed after lease release")
		return nil, poolerrors.New(poolerrors.ErrorTypeMisuse, "item accessed after lease release").
			WithDetail("pool", l.pool.name)
	}
	return l.item, nil
}

// MustItem is like Item but panics after Release.
func (l *Lease[T]) MustItem() *T {
	item, err := l.Item()
	if err != nil {
		panic(err)
	}
	return item
}

// Release resets the item and returns it to its pool. The first call returns
// the pool's error, if any; later calls return a misuse error.
func (l *Lease[T]) Release() error {
	if !l.released.CompareAndSwap(false, true) {
		l.pool.misused("lease released twice")
		return poolerrors.New(poolerrors.ErrorTypeMisuse, "lease already released").
			WithDetail("pool", l.pool.name)
	}
	item := l.item
	l.item = nil
	_, err := l.pool.Return(item)
	return err
}

// Close implements io.Closer by calling Release.
func (l *Lease[T]) Close() error {
	return l.Release()
}

// Released reports whether Release has been called.
func (l *Lease[T]) Released() bool {
	return l.released.Load()
}

// Tier returns the threshold of the tier the item came from, or 0 when the
// lease came from a standalone pool.
func (l *Lease[T]) Tier() int {
	return l.pool.tier
}

// With rents an item of at least capacity, runs fn with it and releases the
// lease on every exit path, including a panic in fn. A release error is
// returned only when fn succeeded.
func With[T any](f *Factory[T], capacity int, fn func(item *T) error) (err error) {
	lease, err := f.RentCapacity(capacity)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lease.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(lease.item)
}

// WithDefault is With using the factory's default capacity.
func WithDefault[T any](f *Factory[T], fn func(item *T) error) error {
	return With(f, f.defaultCapacity, fn)
}
