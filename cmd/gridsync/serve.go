package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/viant/gridsync/docsync"
	"github.com/viant/gridsync/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the synchronization service and its metrics over HTTP.",
		Long: `
Opens the synchronization service and serves op submission, snapshot and
op-log reads and polls on --listen-addr, together with /metrics exposing the
service collectors and the Go runtime and process collectors. With --routes
every submit also queues the records it affects. Runs until interrupted,
then drains in-flight submits.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			svc, err := e.openService(ctx)
			if err != nil {
				return err
			}
			handler, err := e.handler(svc)
			if err != nil {
				_ = svc.Close(context.Background())
				return err
			}
			serveErr := serve(ctx, e, handler)

			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := svc.Close(closeCtx); err != nil && serveErr == nil {
				serveErr = err
			}
			return serveErr
		},
	}
}

// handler registers the process collectors on a fresh registry and routes
// svc and that registry.
func (e *env) handler(svc *docsync.Service) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := e.collectors.Register(reg); err != nil {
		return nil, err
	}
	return server.Handler(svc, reg, e.logger), nil
}

func serve(ctx context.Context, e *env, handler http.Handler) error {
	srv := &http.Server{Addr: e.cfg.ListenAddr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	e.logger.Info("serving", "addr", e.cfg.ListenAddr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
