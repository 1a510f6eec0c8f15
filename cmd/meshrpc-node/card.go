package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meshrpc/pkg/codec"
	"meshrpc/pkg/rpc"
)

func newCardCmd() *cobra.Command {
	var encoding string
	cmd := &cobra.Command{
		Use:   "card <file>",
		Short: "Decode a contact card written by a running node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := codec.ParseKind(encoding)
			if err != nil {
				return err
			}
			c, err := codec.New(kind)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			card, err := rpc.DecodeContactCard(c, data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "node:      %s\n", card.Node)
			fmt.Fprintf(out, "transport: %s\n", card.Transport)
			fmt.Fprintf(out, "address:   %s\n", card.Address)
			fmt.Fprintf(out, "encoding:  %s\n", card.Encoding)
			return nil
		},
	}
	cmd.Flags().StringVarP(&encoding, "encoding", "e", "cbor", "encoding the card was written with (cbor|proto|json)")
	return cmd
}
