// Package leasepool provides capacity-bucketed object pools with scoped
// leases for hot paths that repeatedly need scratch text buffers and sets.
//
// A factory owns one pool per capacity tier. Each request is routed to the
// smallest tier whose threshold covers it, so a burst of small requests never
// drains the large-buffer pool and a large request never receives a tiny
// buffer. Requests above the largest tier go to the last tier, which grows the
// item in place. Items are always handed out empty, and a lease returns its
// item exactly once.
//
// # Quick Start
//
// Rent a text buffer of at least 2 KiB and release it on every exit path:
//
//	import (
//	    "github.com/ajitpratap0/leasepool/pkg/config"
//	    "github.com/ajitpratap0/leasepool/pkg/pool"
//	    "github.com/ajitpratap0/leasepool/pkg/textbuf"
//	)
//
//	texts, err := pool.NewTextBufferFactory(config.NewPoolConfig("editor-text"))
//	if err != nil {
//	    return err
//	}
//
//	err = pool.With(texts, 2048, func(buf *textbuf.Buffer) error {
//	    _, err := buf.WriteString("hello")
//	    return err
//	})
//
// Or hold a lease explicitly:
//
//	lease, err := texts.RentCapacity(5000) // served by the 16384 tier
//	if err != nil {
//	    return err
//	}
//	defer lease.Release()
//	buf := lease.MustItem()
//
// # Key Packages
//
//	pkg/pool          - Policies, pools, bucketed factories and leases
//	pkg/textbuf       - Growable text buffer item kind
//	pkg/set           - Ordinal set item kind backed by golang-set
//	pkg/config        - YAML configuration for tier tables and idle caps
//	pkg/poolerrors    - Structured errors: invalid argument, misuse, create
//	pkg/logger        - Structured logging with zap
//	pkg/metrics       - Prometheus counters and gauges per pool tier
//	pkg/observability - OpenTelemetry spans for stress runs
//	pkg/json          - go-json encoding into leased buffers
//	pkg/performance   - Process resource sampling with gopsutil
//
// # Configuration
//
// Factories are configured per item kind:
//
//	text_buffers:
//	  name: text_buffers
//	  tiers: [256, 1024, 4096, 16384]
//	  max_idle_per_tier: 64
//	  prewarm: 0
//	  enable_metrics: true
//
// Environment variables are supported with ${VAR_NAME} syntax.
//
// # Development
//
// Inspect tier routing and stress a factory:
//
//	go run ./cmd/leasepool tiers --capacity 10 --capacity 5000
//	go run ./cmd/leasepool stress --kind text --workers 16 --cycles 100000
//
// Run tests with the race detector:
//
//	go test -race ./...
package leasepool
