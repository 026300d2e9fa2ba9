package main

import (
	"context"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/viant/gridsync/adapter"
	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/config"
	"github.com/viant/gridsync/docsync"
	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/metrics"
	"github.com/viant/gridsync/propagation"
	"github.com/viant/gridsync/snapshot"
)

// env is shared by every subcommand: the loaded configuration, the process
// logger, the collectors every service of the process reports to and the
// standard streams.
type env struct {
	cfg        *config.Config
	logger     logr.Logger
	flush      func()
	collectors *metrics.Collectors

	stdin          io.Reader
	stdout, stderr io.Writer
}

// NewRootCommand builds the gridsync command tree.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	e := &env{
		cfg:        config.New(),
		logger:     logr.Discard(),
		flush:      func() {},
		collectors: metrics.New(),
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
	}
	rc := &cobra.Command{
		Use:   "gridsync",
		Short: "gridsync keeps tabular documents in sync and propagates dependent changes.",
		Long: `gridsync is the document synchronization and dependency propagation core of
a collaborative spreadsheet database.

This binary serves the synchronization service over HTTP and contains
tools for creating its tables, inspecting committed ops, previewing
propagation SQL and rebuilding cached snapshots.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := config.Load(v, cmd.Flags()); err != nil {
				return err
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}
			logger, flush, err := e.cfg.Logger()
			if err != nil {
				return err
			}
			e.logger, e.flush = logger, flush
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.flush()
		},
	}
	flags := rc.PersistentFlags()
	flags.StringP("config", "c", "", "Configuration file to read from.")
	e.cfg.BindFlags(flags)

	rc.AddCommand(newMigrateCommand(e))
	rc.AddCommand(newOpsCommand(e))
	rc.AddCommand(newPropagateCommand(e))
	rc.AddCommand(newRebuildCommand(e))
	rc.AddCommand(newServeCommand(e))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// openService opens the configured database behind a registry serving
// every collection kind from the snapshot cache. Submits report to
// e.collectors; with routes configured they also queue the records they
// affect.
func (e *env) openService(ctx context.Context) (*docsync.Service, error) {
	cfg := e.cfg.Sync()
	d, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	queue := propagation.NewDirtyQueue(d, e.cfg.DirtyTable)
	opts := []docsync.Option{docsync.WithLogger(e.logger), docsync.WithMetrics(e.collectors)}
	if e.cfg.Routes != "" {
		hook, err := e.propagationHook(d, queue)
		if err != nil {
			return nil, err
		}
		opts = append(opts, docsync.WithTxHook(hook))
	}

	registry := adapter.NewRegistry()
	svc, err := docsync.Open(ctx, cfg, registry, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := queue.EnsureSchema(ctx, svc.DB()); err != nil {
			_ = svc.Close(ctx)
			return nil, err
		}
	}
	store := snapshot.NewStore(d, cfg.SnapshotTable)
	for _, kind := range collection.Kinds {
		if err := registry.Register(kind, adapter.NewStoreAdapter(svc.DB(), store, kind)); err != nil {
			_ = svc.Close(ctx)
			return nil, err
		}
	}
	return svc, nil
}

func (e *env) propagationHook(d engine.Dialect, queue *propagation.DirtyQueue) (docsync.TxHook, error) {
	f, err := os.Open(e.cfg.Routes)
	if err != nil {
		return nil, errs.Wrapf(err, errs.Validation, "open routes %s", e.cfg.Routes)
	}
	defer f.Close()
	routes, err := propagation.DecodeRoutes(f)
	if err != nil {
		return nil, err
	}
	builder, err := propagation.New(d)
	if err != nil {
		return nil, err
	}
	e.logger.Info("propagation enabled", "routes", len(routes), "strategy", string(builder.Strategy()))
	return propagation.Hook(builder, routes.Planner(), queue.Apply,
		propagation.WithCounter(e.collectors.AffectedRecords),
		propagation.WithLogger(e.logger),
	), nil
}
