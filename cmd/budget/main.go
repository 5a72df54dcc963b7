package main

import (
	"context"
	"os"
	"time"

	"budget/internal/cache"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
	"budget/internal/services"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	rt, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("Startup failed", applog.FieldError, err)
		os.Exit(1)
	}
	defer rt.Close()

	overviews := cache.NewOverviewCache(cfg.OverviewCacheSize, cfg.OverviewCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(overviews)
	caches.Start(ctx, 5*time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		WriteRateLimit: cfg.WriteRateLimit,
	}, apphttp.Deps{
		Engine:    rt.Engine,
		Ledger:    services.NewLedgerService(rt.Store, overviews, logger),
		Snapshots: rt.Store,
		Store:     rt.Store,
		Cache:     overviews,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if cfg.SchedulerEnabled {
		job := services.NewDailyOverviewJob(rt.Store, rt.Engine, overviews, logger)
		scheduler := services.NewScheduler(job, rt.Clock, services.SchedulerConfig{}, logger)
		g.Go(func() error { return scheduler.Run(gctx) })
	} else {
		logger.Info("Daily overview scheduler disabled")
	}

	logger.Info("Starting budget server",
		"port", cfg.Port,
		"driver", cfg.DatabaseDriver,
		"utc_offset", cfg.LocalUTCOffset.String(),
		"scheduler", cfg.SchedulerEnabled)

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
