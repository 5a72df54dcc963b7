// Command overview-worker finalises yesterday's snapshot and opens today's
// for every account, once at start-up and then at each local midnight.
package main

import (
	"context"
	"os"

	"budget/internal/cli"
	applog "budget/internal/log"
	"budget/internal/services"
)

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentScheduler)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	rt, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("Startup failed", applog.FieldError, err)
		os.Exit(1)
	}
	defer rt.Close()

	job := services.NewDailyOverviewJob(rt.Store, rt.Engine, nil, logger)
	scheduler := services.NewScheduler(job, rt.Clock, services.SchedulerConfig{RunOnStart: true}, logger)

	logger.Info("Starting overview worker", "utc_offset", cfg.LocalUTCOffset.String())
	if err := scheduler.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
