// Package cli holds the start-up steps of cmd/finassist.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finassist/internal/config"
	"finassist/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from cfg and makes it the
// slog default. Unparseable settings fall back to info/text; Validate
// reports them before this is called.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	if format, err := log.ParseFormat(cfg.LogFormat); err == nil {
		lc.Format = format
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
