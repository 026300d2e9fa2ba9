package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/propagation"
)

// plan is the propagate command input.
type plan struct {
	Order []propagation.Link      `json:"order"`
	Seeds []propagation.RecordRef `json:"seeds"`
}

func newPropagateCommand(e *env) *cobra.Command {
	var (
		path    string
		execute bool
	)
	cmd := &cobra.Command{
		Use:   "propagate",
		Short: "Preview or run the affected-records query of a link order.",
		Long: `
Reads a JSON document {"order": [links...], "seeds": [records...]} from
--plan (or stdin) and prints the affected-records SQL and its arguments for
the configured driver. With --execute the query runs against the database
and the affected records are printed as JSON instead.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPlan(e.stdin, path)
			if err != nil {
				return err
			}
			d, err := engine.ParseDialect(e.cfg.Driver)
			if err != nil {
				return err
			}
			builder, err := propagation.New(d)
			if err != nil {
				return err
			}
			if !execute {
				query, qargs, err := builder.AffectedRecordsQuery(p.Order, p.Seeds)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.stdout, "-- strategy: %s\n%s;\n", builder.Strategy(), query)
				enc := json.NewEncoder(e.stdout)
				return enc.Encode(qargs)
			}

			ctx := cmd.Context()
			db, err := engine.Open(d, e.cfg.DSN)
			if err != nil {
				return errs.Wrap(err, errs.Unavailable, "propagate: open database")
			}
			defer db.Close()
			records, err := propagation.Collect(ctx, db, builder, p.Order, p.Seeds)
			if err != nil {
				return err
			}
			e.logger.V(1).Info("affected records", "count", len(records))
			enc := json.NewEncoder(e.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&path, "plan", "p", "", "JSON plan file (default stdin).")
	flags.BoolVar(&execute, "execute", false, "Run the query and print affected records.")
	return cmd
}

func readPlan(stdin io.Reader, path string) (plan, error) {
	var p plan
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return p, err
		}
		defer f.Close()
		r = f
	}
	if r == nil {
		return p, errs.New(errs.Validation, "propagate: no plan given")
	}
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return p, errs.Wrap(err, errs.Validation, "propagate: decode plan")
	}
	return p, nil
}
