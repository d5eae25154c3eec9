package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"psud/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Serial.BaudRate != 9600 || cfg.Serial.StopBits != 2 || cfg.Serial.Parity != "none" {
		t.Fatalf("unexpected serial defaults: %+v", cfg.Serial)
	}
	if cfg.CommandInterval() != 100*time.Millisecond {
		t.Fatalf("unexpected command interval: %v", cfg.CommandInterval())
	}
	if cfg.UpdateInterval() != 360*time.Millisecond {
		t.Fatalf("unexpected update interval: %v", cfg.UpdateInterval())
	}
	if cfg.TriggerWindow() != 20*time.Millisecond {
		t.Fatalf("unexpected trigger window: %v", cfg.TriggerWindow())
	}
	if cfg.Daemon.FailureThreshold != 3 {
		t.Fatalf("unexpected failure threshold: %d", cfg.Daemon.FailureThreshold)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[serial]
device = "/dev/ttyUSB3"
parity = "EVEN"

[psu]
terminal = "p6v"

[intervals]
command_ms = 200
update_ms = 900
trigger_window_ms = 50
`)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %q, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Serial.Device != "/dev/ttyUSB3" {
		t.Fatalf("unexpected device: %q", cfg.Serial.Device)
	}
	if cfg.Serial.Parity != "even" {
		t.Fatalf("parity not normalized: %q", cfg.Serial.Parity)
	}
	if cfg.PSU.Terminal != "P6V" {
		t.Fatalf("terminal not normalized: %q", cfg.PSU.Terminal)
	}
	if cfg.CommandInterval() != 200*time.Millisecond {
		t.Fatalf("unexpected command interval: %v", cfg.CommandInterval())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"bad parity", "[serial]\nparity = \"mark\"\n"},
		{"update not above command", "[intervals]\ncommand_ms = 100\nupdate_ms = 100\n"},
		{"window too wide", "[intervals]\ncommand_ms = 100\nupdate_ms = 360\ntrigger_window_ms = 100\n"},
		{"bad stop bits", "[serial]\nstop_bits = 3\n"},
		{"zero current limit", "[psu]\ndefault_current_limit = -0.1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
