package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meshrpc/pkg/codec"
	"meshrpc/pkg/transport"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List transport kinds and encodings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "transports:")
			for _, k := range transport.Kinds() {
				fmt.Fprintf(out, "  %s\n", k)
			}
			fmt.Fprintln(out, "encodings:")
			for _, k := range codec.Kinds() {
				fmt.Fprintf(out, "  %s\n", k)
			}
			return nil
		},
	}
}
