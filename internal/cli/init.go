// Package cli holds the start-up steps shared by cmd/ledger and
// cmd/ledger-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"conti/internal/config"
	"conti/internal/log"
	"conti/internal/storage"
)

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(component string, cfg *config.Config) *log.Logger {
	logger := log.NewWithLevel(component, log.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on failure.
func LoadAndValidateConfig() *config.Config {
	bootstrap := log.NewWithLevel(log.ComponentConfig, log.ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT"))
	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		bootstrap.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// StoreOptions maps the configuration onto storage options.
func StoreOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Driver:      storage.Dialect(cfg.DBDriver),
		SQLitePath:  cfg.SQLiteDBPath,
		DatabaseURL: cfg.DatabaseURL,
	}
}

// OpenStore opens the configured database and applies migrations.
// Exits the process on failure.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) *storage.Store {
	store, err := storage.Open(ctx, StoreOptions(cfg))
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	return store
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs before cancellation and done closes once shutdown has finished or
// timeout has elapsed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		cancel()
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and shutdown is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
