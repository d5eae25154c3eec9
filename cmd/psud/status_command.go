package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"psud/internal/lockfile"
	"psud/internal/store"
)

// State older than the update cadence by this much is reported stale: the
// daemon should have refreshed it long ago.
const stateStalenessGrace = 10 * time.Second

func newStatusCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and instrument status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(os.Stdout)

			fmt.Fprintf(out, "Config: %s", path)
			if !exists {
				fmt.Fprint(out, " (defaults, file missing)")
			}
			fmt.Fprintln(out)

			// Process.
			pid, err := lockfile.Read(cfg.Daemon.LockFile)
			switch {
			case errors.Is(err, lockfile.ErrNotRunning):
				fmt.Fprintln(out, renderStatusLine("daemon", statusInfo, "not running", colorize))
			case errors.Is(err, lockfile.ErrCorruptLock):
				fmt.Fprintln(out, renderStatusLine("daemon", statusWarn,
					fmt.Sprintf("corrupt lock file at %s", cfg.Daemon.LockFile), colorize))
			case err != nil:
				return err
			case lockfile.Alive(pid):
				fmt.Fprintln(out, renderStatusLine("daemon", statusOK,
					fmt.Sprintf("running, pid %d", pid), colorize))
			default:
				fmt.Fprintln(out, renderStatusLine("daemon", statusWarn,
					fmt.Sprintf("stale lock, pid %d is dead", pid), colorize))
			}

			// Store.
			if _, err := os.Stat(cfg.Daemon.DatabaseFile); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, renderStatusLine("database", statusInfo,
					fmt.Sprintf("not created yet (%s)", cfg.Daemon.DatabaseFile), colorize))
				return nil
			} else if err != nil {
				return fmt.Errorf("check database: %w", err)
			}

			st, err := store.OpenPath(cfg.Daemon.DatabaseFile)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("database", statusError, err.Error(), colorize))
				return nil
			}
			defer st.Close()
			fmt.Fprintln(out, renderStatusLine("database", statusOK, cfg.Daemon.DatabaseFile, colorize))

			ctx := context.Background()
			if pending, err := st.PendingCount(ctx); err == nil && pending > 0 {
				fmt.Fprintln(out, renderStatusLine("queue", statusInfo,
					fmt.Sprintf("%d command(s) pending", pending), colorize))
			}

			state, err := st.State(ctx)
			if errors.Is(err, store.ErrNoState) {
				fmt.Fprintln(out, renderStatusLine("state", statusInfo, "no live state", colorize))
				return nil
			}
			if err != nil {
				return err
			}

			age := time.Since(state.TakenAt)
			if age > cfg.UpdateInterval()+stateStalenessGrace {
				fmt.Fprintln(out, renderStatusLine("state", statusWarn,
					fmt.Sprintf("stale, last update %s ago", age.Round(time.Second)), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("state", statusOK,
					fmt.Sprintf("updated %s ago", age.Round(time.Millisecond)), colorize))
			}

			fmt.Fprintln(out, renderStateTable(state))
			return nil
		},
	}
}
