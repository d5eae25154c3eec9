package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"psud/internal/config"
	"psud/internal/store"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[daemon]
data_dir = %q
database_file = %q
lock_file = %q
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "data", "psud.sqlite3"),
		filepath.Join(base, "psud.lock"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "psud", "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output %q does not mention target", out)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if !exists {
		t.Fatal("generated config not found")
	}
	if cfg.Serial.BaudRate != 9600 {
		t.Errorf("baud rate = %d", cfg.Serial.BaudRate)
	}

	// Refuses to clobber without --overwrite.
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Error("second init succeeded without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Errorf("init --overwrite failed: %v", err)
	}
}

func TestConfigShowCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "config", "show", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"[serial]", "baud_rate", "[intervals]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestSetCommandEnqueues(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "set", "voltage", "3.3", "--config", cfgPath)
	if err != nil {
		t.Fatalf("set voltage failed: %v", err)
	}
	if !strings.Contains(out, "queued") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "not running") {
		t.Errorf("output %q should warn about the stopped daemon", out)
	}

	cfg, _, _, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	st, err := store.OpenPath(cfg.Daemon.DatabaseFile)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	cmd, err := st.NextCommand(context.Background())
	if err != nil {
		t.Fatalf("NextCommand failed: %v", err)
	}
	if cmd == nil || cmd.Kind != store.KindSetVoltage || cmd.Value != "3.300" {
		t.Fatalf("queued command = %#v", cmd)
	}
}

func TestSetPowerRejectsBadValue(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCommand(t, "set", "power", "maybe", "--config", cfgPath); err == nil {
		t.Fatal("bad power value accepted")
	}
	if _, err := runCommand(t, "set", "voltage", "three", "--config", cfgPath); err == nil {
		t.Fatal("bad voltage accepted")
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "stop", "--config", cfgPath)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if !strings.Contains(out, "not running") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusWhenNotRunning(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "status", "--config", cfgPath)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "not running") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "not created yet") {
		t.Errorf("output = %q, expected missing-database note", out)
	}
}
