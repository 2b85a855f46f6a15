package main

import (
	"github.com/spf13/cobra"
)

// configFile is the optional YAML config path shared by all subcommands.
var configFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "authflow",
		Short:        "Portfolio authentication flows",
		Version:      version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRoutesCmd())
	return cmd
}
