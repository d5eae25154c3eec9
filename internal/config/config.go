package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Serial contains the serial link parameters for the instrument port.
type Serial struct {
	// Device is the serial device path, or "auto" to probe candidate ports.
	Device               string `toml:"device"`
	BaudRate             int    `toml:"baud_rate"`
	DataBits             int    `toml:"data_bits"`
	Parity               string `toml:"parity"`
	StopBits             int    `toml:"stop_bits"`
	ReadTimeoutMS        int    `toml:"read_timeout_ms"`
	FlowControlTimeoutMS int    `toml:"flow_control_timeout_ms"`
}

// PSU contains instrument-level settings applied during session startup.
type PSU struct {
	// Terminal selects the output terminal driven by the daemon.
	Terminal            string  `toml:"terminal"`
	DefaultVoltage      float64 `toml:"default_voltage"`
	DefaultCurrentLimit float64 `toml:"default_current_limit"`
	// MaxAttempts bounds full-exchange retries in the transaction engine.
	MaxAttempts int `toml:"max_attempts"`
}

// Intervals contains the scheduler cadences.
type Intervals struct {
	CommandMS       int `toml:"command_ms"`
	UpdateMS        int `toml:"update_ms"`
	TriggerWindowMS int `toml:"trigger_window_ms"`
}

// Daemon contains process-level settings: store location, lock marker,
// and the consecutive-update-failure ceiling.
type Daemon struct {
	DataDir          string `toml:"data_dir"`
	DatabaseFile     string `toml:"database_file"`
	LockFile         string `toml:"lock_file"`
	FailureThreshold int    `toml:"failure_threshold"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for psud. It is built once at
// startup and handed to component constructors; nothing reads it ambiently.
type Config struct {
	Serial    Serial    `toml:"serial"`
	PSU       PSU       `toml:"psu"`
	Intervals Intervals `toml:"intervals"`
	Daemon    Daemon    `toml:"daemon"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/psud/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. When no file exists the
// defaults are returned; the resolved path and existence flag let callers
// report which file was (or would be) used.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("psud.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Daemon.DataDir, filepath.Dir(c.Daemon.DatabaseFile), filepath.Dir(c.Daemon.LockFile)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CommandInterval returns the command cycle cadence.
func (c *Config) CommandInterval() time.Duration {
	return time.Duration(c.Intervals.CommandMS) * time.Millisecond
}

// UpdateInterval returns the update cycle cadence.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.Intervals.UpdateMS) * time.Millisecond
}

// TriggerWindow returns the early-fire window shared by both cadences.
func (c *Config) TriggerWindow() time.Duration {
	return time.Duration(c.Intervals.TriggerWindowMS) * time.Millisecond
}

// ReadTimeout returns the serial read timeout floor.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeoutMS) * time.Millisecond
}

// FlowControlTimeout returns the bounded wait on the readiness line.
func (c *Config) FlowControlTimeout() time.Duration {
	return time.Duration(c.Serial.FlowControlTimeoutMS) * time.Millisecond
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Sample returns the embedded sample configuration text.
func Sample() string {
	return sampleConfig
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
