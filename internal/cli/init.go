// Package cli provides the start-up plumbing shared by cmd/budget,
// cmd/overview-worker and cmd/budgetctl, plus terminal rendering helpers.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"budget/internal/amqp"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/finance"
	applog "budget/internal/log"
	"budget/internal/storage"
)

// LoadConfig reads .env (when present) and the environment, then validates.
func LoadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	return logger
}

// StorageConfig maps the database settings onto storage.Config.
func StorageConfig(cfg *config.Config) (storage.Config, error) {
	dialect, err := storage.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Dialect:     dialect,
		SQLitePath:  cfg.SQLiteDBPath,
		DatabaseURL: cfg.DatabaseURL,
	}, nil
}

// Runtime bundles the collaborators every binary needs.
type Runtime struct {
	Config *config.Config
	Logger *applog.Logger
	Store  *storage.Repository
	Clock  core.Clock
	Engine *finance.Engine
	// Broker is nil when AMQP_URL is unset or the broker was unreachable.
	Broker *amqp.Client
}

// Bootstrap opens the store, connects the optional broker and builds the
// engine. A broker failure is logged and the runtime continues without
// publishing.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Runtime, error) {
	storeCfg, err := StorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, storeCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Info("Store ready", "driver", string(storeCfg.Dialect))

	rt := &Runtime{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Clock:  core.NewClock(cfg.LocalUTCOffset),
	}

	opts := []finance.Option{finance.WithLogger(logger)}
	if cfg.AMQPURL != "" {
		broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, overview updates will not be published",
				applog.FieldError, err)
		} else {
			rt.Broker = broker
			opts = append(opts, finance.WithPublisher(broker))
			logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	rt.Engine = finance.NewEngine(store, store, rt.Clock, opts...)
	return rt, nil
}

// Close releases the broker and the store.
func (rt *Runtime) Close() {
	if rt.Broker != nil {
		if err := rt.Broker.Close(); err != nil {
			rt.Logger.Warn("Failed to close AMQP client", applog.FieldError, err)
		}
	}
	if rt.Store != nil {
		if err := rt.Store.Close(); err != nil {
			rt.Logger.Warn("Failed to close store", applog.FieldError, err)
		}
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
