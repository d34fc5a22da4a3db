package run

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vexsearch/mergebench/internal/bench"
	"github.com/vexsearch/mergebench/internal/config"
	"github.com/vexsearch/mergebench/internal/index"
	"github.com/vexsearch/mergebench/internal/logging"
	"github.com/vexsearch/mergebench/internal/people"
	"github.com/vexsearch/mergebench/internal/segment"
	"github.com/vexsearch/mergebench/pkg/directory"
)

func Run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	only := fs.String("scenarios", "", "Comma-separated scenario labels to run (default: all)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *only != "" {
		cfg.Bench.Scenarios = strings.Split(*only, ",")
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	logger := logging.NewWithLevel(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Execute(ctx, cfg, os.Stdout, logger); err != nil {
		logger.Error("benchmark failed", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("all scenarios finished")
}

// Execute runs the selected scenarios and writes one JSON result per line
// to out.
func Execute(ctx context.Context, cfg *config.Config, out io.Writer, logger *logging.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	records, err := people.Load(cfg.DataPeoplePath)
	if err != nil {
		return err
	}

	selected, err := bench.Select(bench.Scenarios(uint32(cfg.Bench.TargetDocs)), cfg.Bench.Scenarios)
	if err != nil {
		return err
	}

	dir, err := OpenDirectory(cfg)
	if err != nil {
		return fmt.Errorf("failed to prepare index directory: %w", err)
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runner, err := bench.NewRunner(dir, bench.Options{
		Index:       IndexOptions(cfg),
		SettleDelay: cfg.Bench.SettleDelay(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	return runner.RunAll(ctx, selected, records, func(_ bench.Scenario, res *bench.RunResult) error {
		return enc.Encode(res)
	})
}

// OpenDirectory builds the instrumented index directory described by cfg.
func OpenDirectory(cfg *config.Config) (directory.Directory, error) {
	dir, err := directory.New(directory.Config{
		Type: cfg.Storage.Type,
		Path: cfg.IndexPeoplePath,
		S3: directory.S3Config{
			Endpoint:  cfg.Storage.S3.Endpoint,
			Bucket:    cfg.Storage.S3.Bucket,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Region:    cfg.Storage.S3.Region,
			UseSSL:    cfg.Storage.S3.UseSSL,
		},
	})
	if err != nil {
		return nil, err
	}
	return directory.NewInstrumentedDirectory(dir), nil
}

// IndexOptions maps the index section of cfg.
func IndexOptions(cfg *config.Config) index.Options {
	opts := index.DefaultOptions()
	opts.MergeWorkers = cfg.Index.MergeWorkers
	opts.MemoryBudgetBytes = cfg.Index.MemoryBudgetBytes()
	if cfg.Index.DocstoreCompression != "" {
		opts.Segment.Compression = segment.Compression(cfg.Index.DocstoreCompression)
	}
	return opts
}

func serveMetrics(addr string, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
