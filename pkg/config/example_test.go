package config_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/leasepool/pkg/config"
)

// ExampleNewPoolConfig demonstrates the default tier table.
func ExampleNewPoolConfig() {
	cfg := config.NewPoolConfig("editor-text")

	fmt.Printf("Tiers: %v\n", cfg.Tiers)
	fmt.Printf("Default capacity: %d\n", cfg.DefaultCapacity)
	fmt.Printf("Max idle per tier: %d\n", cfg.MaxIdlePerTier)

	// Output:
	// Tiers: [256 1024 4096 16384]
	// Default capacity: 256
	// Max idle per tier: 64
}

// ExamplePoolConfig_Validate shows a rejected tier table.
func ExamplePoolConfig_Validate() {
	cfg := config.NewPoolConfig("layout-sets")
	cfg.Tiers = []int{64, 64, 512}

	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
	}

	// Output:
	// config: tier thresholds must be strictly increasing: 64 follows 64
}

// ExampleLoad demonstrates loading a YAML file with environment variable
// substitution.
func ExampleLoad() {
	dir, err := os.MkdirTemp("", "leasepool-config")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	os.Setenv("LEASEPOOL_EXAMPLE_IDLE", "8")
	defer os.Unsetenv("LEASEPOOL_EXAMPLE_IDLE")

	path := filepath.Join(dir, "pools.yaml")
	doc := []byte(`
text_buffers:
  name: editor-text
  tiers: [128, 512, 2048]
  max_idle_per_tier: ${LEASEPOOL_EXAMPLE_IDLE}
`)
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(cfg.TextBuffers.Name, cfg.TextBuffers.Tiers, cfg.TextBuffers.MaxIdlePerTier)
	fmt.Println(cfg.StringSets.Name, cfg.StringSets.Tiers)

	// Output:
	// editor-text [128 512 2048] 8
	// string_sets [256 1024 4096 16384]
}
