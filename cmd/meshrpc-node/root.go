package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "meshrpc-node",
		Short:         "Bring up RPC transports and publish their contact addresses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")

	cmd.AddCommand(newRunCmd(&cfgPath))
	cmd.AddCommand(newKindsCmd())
	cmd.AddCommand(newCardCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }
	return cmd
}
