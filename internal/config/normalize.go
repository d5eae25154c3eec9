package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeSerial(); err != nil {
		return err
	}
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizePSU()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSerial() error {
	if c.Serial.Device == "" {
		if value, ok := os.LookupEnv("PSUD_SERIAL_DEVICE"); ok {
			c.Serial.Device = value
		}
	}
	c.Serial.Device = strings.TrimSpace(c.Serial.Device)
	if c.Serial.Device == "" {
		c.Serial.Device = defaultSerialDevice
	}
	c.Serial.Parity = strings.ToLower(strings.TrimSpace(c.Serial.Parity))
	if c.Serial.Parity == "" {
		c.Serial.Parity = defaultParity
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = defaultBaudRate
	}
	if c.Serial.DataBits == 0 {
		c.Serial.DataBits = defaultDataBits
	}
	if c.Serial.StopBits == 0 {
		c.Serial.StopBits = defaultStopBits
	}
	if c.Serial.ReadTimeoutMS == 0 {
		c.Serial.ReadTimeoutMS = defaultReadTimeoutMS
	}
	if c.Serial.FlowControlTimeoutMS == 0 {
		c.Serial.FlowControlTimeoutMS = defaultFlowControlWaitMS
	}
	return nil
}

func (c *Config) normalizeDaemon() error {
	var err error
	if c.Daemon.DataDir, err = expandPath(c.Daemon.DataDir); err != nil {
		return fmt.Errorf("daemon.data_dir: %w", err)
	}
	if c.Daemon.DatabaseFile, err = expandPath(c.Daemon.DatabaseFile); err != nil {
		return fmt.Errorf("daemon.database_file: %w", err)
	}
	if c.Daemon.LockFile, err = expandPath(c.Daemon.LockFile); err != nil {
		return fmt.Errorf("daemon.lock_file: %w", err)
	}
	if c.Daemon.FailureThreshold == 0 {
		c.Daemon.FailureThreshold = defaultFailureThreshold
	}
	return nil
}

func (c *Config) normalizePSU() {
	c.PSU.Terminal = strings.ToUpper(strings.TrimSpace(c.PSU.Terminal))
	if c.PSU.Terminal == "" {
		c.PSU.Terminal = defaultTerminal
	}
	if c.PSU.MaxAttempts == 0 {
		c.PSU.MaxAttempts = defaultMaxAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
