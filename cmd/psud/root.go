package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"psud/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "psud",
		Short:         "Bench power supply control daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(&configFlag))
	rootCmd.AddCommand(newStatusCommand(&configFlag))
	rootCmd.AddCommand(newStopCommand(&configFlag))
	rootCmd.AddCommand(newSetCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}

// loadConfig resolves and loads the configuration honoring the --config flag.
func loadConfig(configFlag *string) (*config.Config, string, bool, error) {
	path := ""
	if configFlag != nil {
		path = *configFlag
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, resolved, exists, fmt.Errorf("load config: %w", err)
	}
	return cfg, resolved, exists, nil
}
