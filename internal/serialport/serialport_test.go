package serialport

import (
	"testing"

	"go.bug.st/serial"

	"psud/internal/config"
)

func TestModeFromConfig(t *testing.T) {
	cfg := config.Default().Serial
	mode, err := ModeFromConfig(cfg)
	if err != nil {
		t.Fatalf("ModeFromConfig failed: %v", err)
	}
	if mode.BaudRate != 9600 || mode.DataBits != 8 {
		t.Errorf("mode = %+v", mode)
	}
	if mode.Parity != serial.NoParity {
		t.Errorf("parity = %v", mode.Parity)
	}
	if mode.StopBits != serial.TwoStopBits {
		t.Errorf("stop bits = %v", mode.StopBits)
	}

	cfg.Parity = "odd"
	cfg.StopBits = 1
	mode, err = ModeFromConfig(cfg)
	if err != nil {
		t.Fatalf("ModeFromConfig failed: %v", err)
	}
	if mode.Parity != serial.OddParity || mode.StopBits != serial.OneStopBit {
		t.Errorf("mode = %+v", mode)
	}
}

func TestModeFromConfigRejectsUnknownValues(t *testing.T) {
	cfg := config.Default().Serial
	cfg.Parity = "mark"
	if _, err := ModeFromConfig(cfg); err == nil {
		t.Error("mark parity accepted")
	}

	cfg = config.Default().Serial
	cfg.StopBits = 3
	if _, err := ModeFromConfig(cfg); err == nil {
		t.Error("3 stop bits accepted")
	}
}
