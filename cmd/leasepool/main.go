package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/leasepool/internal/stress"
	"github.com/ajitpratap0/leasepool/pkg/config"
	"github.com/ajitpratap0/leasepool/pkg/json"
	"github.com/ajitpratap0/leasepool/pkg/logger"
	"github.com/ajitpratap0/leasepool/pkg/observability"
	"github.com/ajitpratap0/leasepool/pkg/pool"
	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
)

var version = "0.1.0"

// defaultLogLevel keeps the CLI quiet when neither a config file nor
// --log-level chooses a level.
const defaultLogLevel = "error"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the root command and flushes buffered log entries before
// returning the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leasepool",
		Short: "Capacity-bucketed object pools with scoped leases",
		Long: `leasepool inspects tier tables and stress-tests bucketed lease factories.
Every flag can also be set through a LEASEPOOL_<FLAG> environment variable,
for example LEASEPOOL_WORKERS=16.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "leasepool v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newTiersCmd())
	root.AddCommand(newStressCmd())

	return root
}

// bindViper exposes cmd's flags to viper with LEASEPOOL_* environment
// overrides. Explicitly set flags win over the environment.
func bindViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("LEASEPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, "failed to bind flags")
	}
	return v, nil
}

// loadConfig reads the YAML configuration at path, or defaults when path is
// empty. A non-empty logLevel overrides the configured level. Logs go to
// stderr unless the configuration names other outputs.
func loadConfig(path, logLevel string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Logging.Level = defaultLogLevel
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if len(cfg.Logging.OutputPaths) == 0 {
		// stdout carries reports
		cfg.Logging.OutputPaths = []string{"stderr"}
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("logger error: %w", err)
	}
	return cfg, nil
}

func newTiersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "Show which tier serves each requested capacity",
		Long: `Show the configured tier table and the tier each requested capacity maps to.

Example:
  leasepool tiers --capacity 10 --capacity 5000 --config pools.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := bindViper(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v.GetString("config"), v.GetString("log-level"))
			if err != nil {
				return err
			}
			pc, err := poolConfigFor(cfg, v.GetString("kind"))
			if err != nil {
				return err
			}
			return printTiers(cmd.OutOrStdout(), pc, v.GetIntSlice("capacity"))
		},
	}
	cmd.Flags().String("kind", "text", "Item kind whose tier table to show (text, set)")
	cmd.Flags().IntSlice("capacity", nil, "Capacities to map onto the tier table")
	cmd.Flags().String("config", "", "Path to YAML configuration file (optional)")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	return cmd
}

// poolConfigFor returns the section of cfg that configures kind.
func poolConfigFor(cfg *config.Config, kind string) (config.PoolConfig, error) {
	switch kind {
	case "text":
		return cfg.TextBuffers, nil
	case "set":
		return cfg.StringSets, nil
	}
	return config.PoolConfig{}, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "unknown kind, expected text or set").
		WithDetail("kind", kind)
}

func printTiers(out io.Writer, pc config.PoolConfig, capacities []int) error {
	if err := pc.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "tiers: %v (last tier is the catch-all)\n", pc.Tiers)
	for _, c := range capacities {
		if c <= 0 {
			return poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "capacity must be positive").
				WithDetail("capacity", c)
		}
		fmt.Fprintf(out, "%d -> %d\n", c, pc.Tiers[pool.SelectTier(pc.Tiers, c)])
	}
	return nil
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Stress a lease factory from many goroutines",
		Long: `Rent, mutate and release items from many goroutines and report reuse,
double checkouts, latency and memory.

Example:
  leasepool stress --kind text --workers 16 --cycles 100000 --capacity 10 --capacity 5000
  leasepool stress --kind set --json --metrics-addr :9464`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := bindViper(cmd)
			if err != nil {
				return err
			}
			return runStress(cmd.Context(), cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().String("kind", "text", "Item kind to stress (text, set)")
	cmd.Flags().Int("workers", runtime.NumCPU(), "Number of concurrent workers")
	cmd.Flags().Int("cycles", 10000, "Rent/release cycles per worker")
	cmd.Flags().IntSlice("capacity", nil, "Capacities requested in rotation (default: factory default)")
	cmd.Flags().String("config", "", "Path to YAML configuration file (optional)")
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	cmd.Flags().Bool("trace", false, "Export OpenTelemetry spans to stderr")
	cmd.Flags().Duration("timeout", 10*time.Minute, "Run timeout")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	return cmd
}

func runStress(ctx context.Context, out io.Writer, v *viper.Viper) error {
	cfg, err := loadConfig(v.GetString("config"), v.GetString("log-level"))
	if err != nil {
		return err
	}
	if v.GetBool("trace") {
		cfg.Tracing.Enabled = true
	}
	metricsAddr := v.GetString("metrics-addr")
	if metricsAddr == "" && cfg.Metrics.Enabled {
		metricsAddr = cfg.Metrics.Address
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, v.GetDuration("timeout"))
	defer cancel()
	ctx = context.WithValue(ctx, logger.RunIDKey, fmt.Sprintf("stress-%d", time.Now().UnixNano()))

	log := logger.WithContext(ctx).With(zap.String("component", "leasepool-cli"))

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, version, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := stress.Options{
		Workers:    v.GetInt("workers"),
		Cycles:     v.GetInt("cycles"),
		Capacities: v.GetIntSlice("capacity"),
		Logger:     log,
	}

	var report *stress.Report
	switch kind := v.GetString("kind"); kind {
	case "text":
		f, ferr := pool.NewTextBufferFactory(cfg.TextBuffers)
		if ferr != nil {
			return ferr
		}
		report, err = stress.Run(ctx, f, stress.TextWorkload, opts)
	case "set":
		f, ferr := pool.NewStringSetFactory(cfg.StringSets)
		if ferr != nil {
			return ferr
		}
		report, err = stress.Run(ctx, f, stress.StringSetWorkload, opts)
	default:
		_, err = poolConfigFor(cfg, kind)
		return err
	}
	if report != nil {
		if v.GetBool("json") {
			if jerr := json.MarshalTo(out, nil, report); jerr != nil {
				return jerr
			}
		} else {
			printReport(out, report)
		}
	}
	return err
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("serving metrics", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func printReport(out io.Writer, r *stress.Report) {
	fmt.Fprintf(out, "pool:             %s (%s)\n", r.Pool, r.Kind)
	fmt.Fprintf(out, "workers x cycles: %d x %d\n", r.Workers, r.Cycles)
	fmt.Fprintf(out, "leases:           %d in %v (%.0f/sec)\n", r.Leases, r.Duration.Round(time.Millisecond), r.CyclesPerSecond)
	fmt.Fprintf(out, "distinct items:   %d\n", r.DistinctItems)
	fmt.Fprintf(out, "double checkouts: %d\n", r.DoubleCheckouts)
	fmt.Fprintf(out, "latency:          p50=%v p95=%v p99=%v\n", r.P50, r.P95, r.P99)
	fmt.Fprintf(out, "created/hits:     %d/%d (discarded %d, misuse %d)\n",
		r.Total.Created, r.Total.Hits, r.Total.Discarded, r.Total.Misuse)
	if r.Resources != nil {
		fmt.Fprintf(out, "peak rss:         %.1f MB\n", float64(r.Resources.PeakRSS)/1024/1024)
	}
}
