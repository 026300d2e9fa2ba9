package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newRebuildCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <collection> <doc-id>...",
		Short: "Rebuild cached snapshots from the op log.",
		Long: `
Replays the op log of each document and replaces its cached snapshot. The
rebuilt snapshots are printed as JSON lines.
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := e.openService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close(ctx) }()
			enc := json.NewEncoder(e.stdout)
			for _, id := range args[1:] {
				snap, err := svc.Rebuild(ctx, args[0], id)
				if err != nil {
					return err
				}
				if err := enc.Encode(snap); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
