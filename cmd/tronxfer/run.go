package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Fantasim/tronxfer/internal/api"
	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/explorer"
	"github.com/Fantasim/tronxfer/internal/ledger"
	"github.com/Fantasim/tronxfer/internal/logging"
	"github.com/Fantasim/tronxfer/internal/metrics"
	"github.com/Fantasim/tronxfer/internal/pipeline"
	"github.com/Fantasim/tronxfer/internal/sink"
	"github.com/Fantasim/tronxfer/internal/transfer"
	"github.com/Fantasim/tronxfer/internal/wallets"
)

// exitInterrupted is the conventional exit status after SIGINT.
const exitInterrupted = 130

func runCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	runID := logging.WithRunID()

	slog.Info("starting tronxfer",
		"version", version,
		"apiURL", cfg.APIURL,
		"hasAPIKey", cfg.APIKey != "",
		"walletsFile", cfg.WalletsFile,
		"outputFile", cfg.OutputFile,
		"processedFile", cfg.ProcessedFile,
		"pageSize", cfg.PageSize,
		"rateLimit", cfg.RateLimit,
		"maxAttempts", cfg.MaxAttempts,
		"backoffUnit", cfg.BackoffUnit,
		"failureThreshold", cfg.FailureThreshold,
		"failureCooldown", cfg.FailureCooldown,
		"validateWallets", cfg.ValidateWallets,
		"statusAddr", cfg.StatusAddr,
	)

	candidates, err := wallets.ReadCSV(cfg.WalletsFile)
	if err != nil {
		slog.Error("wallet source unreadable", "errorCode", config.ErrorWalletSource, "error", err)
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	throttle := explorer.NewThrottle("tronscan", cfg.RateLimit, nil)
	client := &http.Client{Timeout: cfg.RequestTimeout}
	provider := explorer.NewTronscanProvider(client, throttle, cfg.APIURL, cfg.APIKey, m)
	paginator := explorer.NewPaginator(provider, explorer.RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     explorer.LinearBackoff(cfg.BackoffUnit),
	}, m)

	// Startup probe is advisory; the run proceeds either way.
	explorer.CheckHealth(context.Background(), provider, "")

	hub := pipeline.NewHub()
	runner := pipeline.New(
		paginator,
		sink.NewCSVSink(cfg.OutputFile, m),
		ledger.New(cfg.ProcessedFile),
		pipeline.Options{
			PageSize:        cfg.PageSize,
			ValidateWallets: cfg.ValidateWallets,
			Flattener:       transfer.NewFlattener(cfg.MissingMarker),
			Breaker:         explorer.NewCircuitBreaker(cfg.FailureThreshold, cfg.FailureCooldown, nil),
			Metrics:         m,
			Hub:             hub,
			RunID:           runID,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	if cfg.StatusAddr != "" {
		srv := api.NewServer(cfg.StatusAddr, api.NewRouter(api.Deps{
			Status:   runner,
			Hub:      hub,
			Gatherer: registry,
			RunID:    runID,
		}))
		g.Go(func() error {
			hub.Run(serveCtx)
			return nil
		})
		g.Go(func() error {
			return srv.Run(serveCtx)
		})
	}

	g.Go(func() error {
		defer stopServing()
		_, err := runner.Run(gctx, candidates)
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			slog.Warn("run interrupted", "errorCode", config.ErrorRunInterrupted)
			return cli.Exit("run interrupted", exitInterrupted)
		}
		if errors.Is(err, config.ErrSinkWrite) {
			slog.Error("output not writable", "errorCode", config.ErrorSinkWrite, "error", err)
		}
		return err
	}

	return nil
}
