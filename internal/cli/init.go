// Package cli holds the startup steps shared by the groupdash commands.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"groupdash/internal/config"
	"groupdash/internal/log"
	"groupdash/internal/reconcile"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	return SetupLoggerTo(cfg, os.Stdout)
}

// SetupLoggerTo is SetupLogger writing to out, for commands whose stdout
// carries data.
func SetupLoggerTo(cfg *config.Config, out io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.JSON = cfg.LogFormat == "json"
	lc.Output = out
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads and validates configuration. Validation errors are
// returned so the caller can log them with its own logger.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadRules reads the reconciliation rules, falling back to the built-in
// table when no file is configured.
func LoadRules(logger *log.Logger, path string) (reconcile.Rules, error) {
	rules, err := reconcile.LoadRules(path)
	if err != nil {
		return reconcile.Rules{}, err
	}
	if path != "" {
		logger.WithComponent(log.ComponentReconcile).Info("Loaded reconciliation rules", "path", path)
	}
	return rules, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Exit logs err and terminates the process.
func Exit(logger *log.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{log.FieldError, err}, args...)...)
	os.Exit(1)
}
