package propagation

import (
	"context"
	"database/sql"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/viant/gridsync/docsync"
)

// Planner derives the topological link order and seed records for a
// committed op. An empty order or seed set means nothing depends on it.
type Planner func(ctx context.Context, tx *sql.Tx, event docsync.Event) ([]Link, []RecordRef, error)

// Applier recomputes the affected records inside the submit transaction.
type Applier func(ctx context.Context, tx *sql.Tx, event docsync.Event, records []AffectedRecord) error

// HookOption customizes Hook.
type HookOption func(*hook)

// WithLogger sets the hook logger.
func WithLogger(logger logr.Logger) HookOption {
	return func(h *hook) { h.logger = logger }
}

// WithCounter counts affected records found.
func WithCounter(counter prometheus.Counter) HookOption {
	return func(h *hook) { h.counter = counter }
}

type hook struct {
	builder Builder
	plan    Planner
	apply   Applier
	logger  logr.Logger
	counter prometheus.Counter
}

// Hook returns a submit transaction hook that finds the records depending
// on the submitted document and hands them to apply in the same
// transaction, so computed fields never commit out of step with their
// sources.
func Hook(builder Builder, plan Planner, apply Applier, opts ...HookOption) docsync.TxHook {
	h := &hook{builder: builder, plan: plan, apply: apply, logger: logr.Discard()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithName("propagation")
	return h.run
}

func (h *hook) run(ctx context.Context, tx *sql.Tx, event docsync.Event) error {
	order, seeds, err := h.plan(ctx, tx, event)
	if err != nil {
		return err
	}
	if len(order) == 0 || len(seeds) == 0 {
		return nil
	}
	records, err := Collect(ctx, tx, h.builder, order, seeds)
	if err != nil {
		return err
	}
	if h.counter != nil {
		h.counter.Add(float64(len(records)))
	}
	h.logger.V(1).Info("affected records", "collection", event.Collection.String(), "doc", event.DocID, "hops", len(order), "records", len(records))
	if h.apply == nil || len(records) == 0 {
		return nil
	}
	return h.apply(ctx, tx, event, records)
}
