package testsupport

import (
	"path/filepath"
	"testing"

	"psud/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp paths per test. It
// defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Serial.Device = filepath.Join(base, "ttyUSB0")
	cfg.Daemon.DataDir = filepath.Join(base, "data")
	cfg.Daemon.DatabaseFile = filepath.Join(base, "data", "psud.sqlite3")
	cfg.Daemon.LockFile = filepath.Join(base, "psud.lock")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithDevice overrides the serial device path on the test config.
func WithDevice(path string) ConfigOption {
	return func(c *config.Config) {
		c.Serial.Device = path
	}
}

// WithIntervals overrides the scheduler cadences, in milliseconds.
func WithIntervals(commandMS, updateMS, windowMS int) ConfigOption {
	return func(c *config.Config) {
		c.Intervals.CommandMS = commandMS
		c.Intervals.UpdateMS = updateMS
		c.Intervals.TriggerWindowMS = windowMS
	}
}
