// Package config provides the configuration for lease pool factories.
//
// The configuration is organized into sections:
//   - Logging: zap logger settings
//   - Metrics: Prometheus exposure
//   - Tracing: OpenTelemetry spans around stress runs
//   - TextBuffers / StringSets: one PoolConfig per factory kind
//
// Example usage:
//
//	cfg := config.NewPoolConfig("editor-text")
//	cfg.Tiers = []int{128, 512, 2048}
//	cfg.MaxIdlePerTier = 16
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"github.com/ajitpratap0/leasepool/pkg/logger"
	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
)

// DefaultTiers are the capacity thresholds used when none are configured.
var DefaultTiers = []int{256, 1024, 4096, 16384}

const (
	// DefaultMaxIdlePerTier bounds each tier's free-list.
	DefaultMaxIdlePerTier = 64
	// DefaultMetricsAddress is where the CLI serves /metrics.
	DefaultMetricsAddress = ":9464"
	// DefaultServiceName is the OpenTelemetry service name.
	DefaultServiceName = "leasepool"
)

// Config is the root configuration document.
type Config struct {
	// Logging configures the global zap logger
	Logging logger.Config `yaml:"logging" json:"logging"`
	// Metrics configures Prometheus exposure
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	// Tracing configures OpenTelemetry spans
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
	// TextBuffers configures the text-buffer factory
	TextBuffers PoolConfig `yaml:"text_buffers" json:"text_buffers"`
	// StringSets configures the string-set factory
	StringSets PoolConfig `yaml:"string_sets" json:"string_sets"`
}

// MetricsConfig controls Prometheus exposure.
type MetricsConfig struct {
	// Enabled serves the metrics endpoint
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Address is the listen address for /metrics
	Address string `yaml:"address" json:"address"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled exports spans to stdout
	Enabled bool `yaml:"enabled" json:"enabled"`
	// ServiceName is the service.name resource attribute
	ServiceName string `yaml:"service_name" json:"service_name"`
	// SamplingRate is the fraction of runs traced, between 0 and 1
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`
}

// PoolConfig configures one bucketed factory.
type PoolConfig struct {
	// Name labels logs and metrics for the factory
	Name string `yaml:"name" json:"name"`
	// Tiers are the capacity thresholds, strictly increasing. The last tier
	// is the catch-all for larger requests.
	Tiers []int `yaml:"tiers" json:"tiers"`
	// DefaultCapacity is used by Rent without an explicit capacity.
	// Zero means the smallest tier.
	DefaultCapacity int `yaml:"default_capacity" json:"default_capacity"`
	// MaxIdlePerTier caps each tier's free-list. Zero means unbounded.
	MaxIdlePerTier int `yaml:"max_idle_per_tier" json:"max_idle_per_tier"`
	// Prewarm creates this many idle items per tier at construction
	Prewarm int `yaml:"prewarm" json:"prewarm"`
	// EnableMetrics records Prometheus metrics for the factory's pools
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
}

// NewPoolConfig creates a PoolConfig with sensible defaults.
//
// Example:
//
//	cfg := config.NewPoolConfig("layout-sets")
//	cfg.Prewarm = 4
func NewPoolConfig(name string) PoolConfig {
	tiers := make([]int, len(DefaultTiers))
	copy(tiers, DefaultTiers)
	return PoolConfig{
		Name:            name,
		Tiers:           tiers,
		DefaultCapacity: DefaultTiers[0],
		MaxIdlePerTier:  DefaultMaxIdlePerTier,
		EnableMetrics:   true,
	}
}

// NewConfig creates a root configuration with defaults for every section.
func NewConfig() *Config {
	return &Config{
		Logging: logger.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: false,
			Address: DefaultMetricsAddress,
		},
		Tracing: TracingConfig{
			ServiceName:  DefaultServiceName,
			SamplingRate: 1.0,
		},
		TextBuffers: NewPoolConfig("text_buffers"),
		StringSets:  NewPoolConfig("string_sets"),
	}
}

// Validate checks the pool configuration.
func (pc PoolConfig) Validate() error {
	if pc.Name == "" {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "name is required")
	}
	if err := ValidateTiers(pc.Tiers); err != nil {
		return err
	}
	if pc.DefaultCapacity < 0 {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "default_capacity cannot be negative").
			WithDetail("pool", pc.Name).
			WithDetail("default_capacity", pc.DefaultCapacity)
	}
	if pc.MaxIdlePerTier < 0 {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "max_idle_per_tier cannot be negative").
			WithDetail("pool", pc.Name)
	}
	if pc.Prewarm < 0 {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "prewarm cannot be negative").
			WithDetail("pool", pc.Name)
	}
	if pc.MaxIdlePerTier > 0 && pc.Prewarm > pc.MaxIdlePerTier {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "prewarm exceeds max_idle_per_tier").
			WithDetail("pool", pc.Name).
			WithDetail("prewarm", pc.Prewarm).
			WithDetail("max_idle_per_tier", pc.MaxIdlePerTier)
	}
	return nil
}

// EffectiveDefaultCapacity returns DefaultCapacity, or the smallest tier when
// it is unset.
func (pc PoolConfig) EffectiveDefaultCapacity() int {
	if pc.DefaultCapacity > 0 || len(pc.Tiers) == 0 {
		return pc.DefaultCapacity
	}
	return pc.Tiers[0]
}

// ValidateTiers checks that thresholds are non-empty, positive and strictly
// increasing.
func ValidateTiers(tiers []int) error {
	if len(tiers) == 0 {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "at least one tier is required")
	}
	for i, t := range tiers {
		if t <= 0 {
			return poolerrors.New(poolerrors.ErrorTypeConfig, "tier thresholds must be positive").
				WithDetail("index", i).
				WithDetail("threshold", t)
		}
		if i > 0 && t <= tiers[i-1] {
			return poolerrors.Newf(poolerrors.ErrorTypeConfig,
				"tier thresholds must be strictly increasing: %d follows %d", t, tiers[i-1]).
				WithDetail("index", i)
		}
	}
	return nil
}

// Validate checks every section of the root configuration.
func (c *Config) Validate() error {
	if err := c.TextBuffers.Validate(); err != nil {
		return err
	}
	if err := c.StringSets.Validate(); err != nil {
		return err
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "metrics address is required when metrics are enabled")
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return poolerrors.Newf(poolerrors.ErrorTypeConfig, "sampling_rate must be between 0 and 1, got %g", c.Tracing.SamplingRate)
	}
	return nil
}
