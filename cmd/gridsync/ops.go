package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/viant/gridsync/oplog"
)

func newOpsCommand(e *env) *cobra.Command {
	var from, to int64
	cmd := &cobra.Command{
		Use:   "ops <collection> <doc-id>",
		Short: "Print committed ops of a document.",
		Long: `
Prints the committed ops of a document as a JSON array, in version order.
--from and --to select versions from <= v < to; a negative --to (the
default) reads to the latest version.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := e.openService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close(ctx) }()
			ops, err := svc.Ops(ctx, args[0], args[1], from, to)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(e.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ops)
		},
	}
	flags := cmd.Flags()
	flags.Int64Var(&from, "from", 0, "First version to print.")
	flags.Int64Var(&to, "to", oplog.Latest, "Version to stop before (negative = latest).")
	return cmd
}
