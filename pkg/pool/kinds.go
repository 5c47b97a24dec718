package pool

import (
	"sync"

	"github.com/ajitpratap0/leasepool/pkg/config"
	"github.com/ajitpratap0/leasepool/pkg/set"
	"github.com/ajitpratap0/leasepool/pkg/textbuf"
)

// NewTextBufferFactory builds a bucketed factory of *textbuf.Buffer items
// from a pool configuration. Options are applied after the configuration and
// override it.
func NewTextBufferFactory(cfg config.PoolConfig, opts ...Option) (*Factory[textbuf.Buffer], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewTieredFactory[textbuf.Buffer](TextBufferPolicy{}, cfg.Tiers, configOptions(cfg, opts)...)
}

// NewSetFactory builds a bucketed factory of *set.Set[E] items. Hosts use it
// for any comparable element type, e.g. dockable element identities.
func NewSetFactory[E comparable](cfg config.PoolConfig, opts ...Option) (*Factory[set.Set[E]], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewTieredFactory[set.Set[E]](SetPolicy[E]{}, cfg.Tiers, configOptions(cfg, opts)...)
}

// NewStringSetFactory builds a bucketed factory of ordinal string sets.
func NewStringSetFactory(cfg config.PoolConfig, opts ...Option) (*Factory[set.Set[string]], error) {
	return NewSetFactory[string](cfg, opts...)
}

func configOptions(cfg config.PoolConfig, opts []Option) []Option {
	out := make([]Option, 0, len(opts)+5)
	out = append(out,
		WithName(cfg.Name),
		WithMaxIdle(cfg.MaxIdlePerTier),
		WithDefaultCapacity(cfg.EffectiveDefaultCapacity()),
		WithPrewarm(cfg.Prewarm),
		WithMetrics(cfg.EnableMetrics),
	)
	return append(out, opts...)
}

var (
	defaultTextBuffers     *Factory[textbuf.Buffer]
	defaultTextBuffersOnce sync.Once
)

// DefaultTextBuffers returns a process-wide text-buffer factory built from
// config.NewPoolConfig("text_buffers").
func DefaultTextBuffers() *Factory[textbuf.Buffer] {
	defaultTextBuffersOnce.Do(func() {
		f, err := NewTextBufferFactory(config.NewPoolConfig("text_buffers"))
		if err != nil {
			// The default configuration is static and always valid.
			panic(err)
		}
		defaultTextBuffers = f
	})
	return defaultTextBuffers
}
