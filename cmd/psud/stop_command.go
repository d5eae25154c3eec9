package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"psud/internal/lockfile"
)

func newStopCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			outcome, pid, err := lockfile.Terminate(cfg.Daemon.LockFile)
			if errors.Is(err, lockfile.ErrNotRunning) {
				fmt.Fprintln(out, "psud is not running")
				return nil
			}
			if err != nil {
				return err
			}

			switch outcome {
			case lockfile.OutcomeStale:
				fmt.Fprintf(out, "removed stale lock, pid %d was already dead\n", pid)
			case lockfile.OutcomeTerminated:
				fmt.Fprintf(out, "stopped psud, pid %d\n", pid)
			}
			return nil
		},
	}
}
