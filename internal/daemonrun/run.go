package daemonrun

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"psud/internal/config"
	"psud/internal/daemon"
	"psud/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured level when non-empty.
	LogLevel string
}

// Run starts the daemon runtime loop and blocks until shutdown.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	runID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	logger.Info("starting",
		logging.String(logging.FieldDevice, cfg.Serial.Device),
		logging.Int("baud_rate", cfg.Serial.BaudRate),
		logging.String("database", cfg.Daemon.DatabaseFile),
		logging.String("lock_file", cfg.Daemon.LockFile))

	d := daemon.New(cfg, logger)
	return d.Run(signalCtx)
}
