package main

import (
	"github.com/spf13/cobra"

	"psud/internal/daemonrun"
)

func newRunCommand(configFlag *string) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the control daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadConfig(configFlag)
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: logLevel,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override configured log level (debug, info, warn, error)")
	return cmd
}
