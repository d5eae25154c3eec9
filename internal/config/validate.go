package config

import (
	"errors"
	"fmt"
)

var validParities = map[string]bool{
	"none": true,
	"odd":  true,
	"even": true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSerial(); err != nil {
		return err
	}
	if err := c.validatePSU(); err != nil {
		return err
	}
	if err := c.validateIntervals(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSerial() error {
	if c.Serial.BaudRate <= 0 {
		return errors.New("serial.baud_rate must be positive")
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		return fmt.Errorf("serial.data_bits must be 5..8, got %d", c.Serial.DataBits)
	}
	if !validParities[c.Serial.Parity] {
		return fmt.Errorf("serial.parity must be none, odd, or even, got %q", c.Serial.Parity)
	}
	if c.Serial.StopBits != 1 && c.Serial.StopBits != 2 {
		return fmt.Errorf("serial.stop_bits must be 1 or 2, got %d", c.Serial.StopBits)
	}
	if c.Serial.ReadTimeoutMS < 0 || c.Serial.FlowControlTimeoutMS < 0 {
		return errors.New("serial timeouts must not be negative")
	}
	return nil
}

func (c *Config) validatePSU() error {
	if c.PSU.DefaultVoltage < 0 {
		return errors.New("psu.default_voltage must not be negative")
	}
	if c.PSU.DefaultCurrentLimit <= 0 {
		return errors.New("psu.default_current_limit must be positive")
	}
	if c.PSU.MaxAttempts < 1 {
		return errors.New("psu.max_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateIntervals() error {
	if c.Intervals.CommandMS <= 0 {
		return errors.New("intervals.command_ms must be positive")
	}
	if c.Intervals.UpdateMS <= c.Intervals.CommandMS {
		return errors.New("intervals.update_ms must exceed intervals.command_ms")
	}
	if c.Intervals.TriggerWindowMS < 0 || c.Intervals.TriggerWindowMS >= c.Intervals.CommandMS {
		return errors.New("intervals.trigger_window_ms must be shorter than the command interval")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Daemon.DatabaseFile == "" {
		return errors.New("daemon.database_file must be set")
	}
	if c.Daemon.LockFile == "" {
		return errors.New("daemon.lock_file must be set")
	}
	if c.Daemon.FailureThreshold < 1 {
		return errors.New("daemon.failure_threshold must be at least 1")
	}
	return nil
}
