package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"psud/internal/lockfile"
	"psud/internal/store"
)

func newSetCommand(configFlag *string) *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Queue a command for the daemon",
	}

	setCmd.AddCommand(&cobra.Command{
		Use:   "voltage <volts>",
		Short: "Queue an output voltage change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volts, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("not a voltage: %q", args[0])
			}
			return enqueue(cmd, configFlag, store.KindSetVoltage, fmt.Sprintf("%.3f", volts))
		},
	})

	setCmd.AddCommand(&cobra.Command{
		Use:   "current <amps>",
		Short: "Queue a current limit change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amps, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("not a current: %q", args[0])
			}
			return enqueue(cmd, configFlag, store.KindSetCurrentLimit, fmt.Sprintf("%.3f", amps))
		},
	})

	setCmd.AddCommand(&cobra.Command{
		Use:   "power <on|off>",
		Short: "Queue an output relay change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.ToUpper(strings.TrimSpace(args[0]))
			if value != "ON" && value != "OFF" {
				return fmt.Errorf("power takes on or off, got %q", args[0])
			}
			return enqueue(cmd, configFlag, store.KindSetPower, value)
		},
	})

	return setCmd
}

func enqueue(cmd *cobra.Command, configFlag *string, kind, value string) error {
	cfg, _, _, err := loadConfig(configFlag)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Enqueue(cmd.Context(), kind, value)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "queued %s %s as command %d\n", kind, value, id)

	if pid, err := lockfile.Read(cfg.Daemon.LockFile); errors.Is(err, lockfile.ErrNotRunning) || (err == nil && !lockfile.Alive(pid)) {
		fmt.Fprintln(out, "note: psud is not running; the command waits until it starts")
	}
	return nil
}
