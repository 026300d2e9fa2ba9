package docsync

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/metrics"
	"github.com/viant/gridsync/oplog"
	"github.com/viant/gridsync/snapshot"
)

// Event describes a committed op.
type Event struct {
	Collection collection.ID
	DocID      string
	Op         oplog.Op
	// Snapshot is the document after the op, at version Op.V+1.
	Snapshot snapshot.Snapshot
}

// TxHook runs inside a submit transaction. An error rolls the whole submit
// back.
type TxHook func(ctx context.Context, tx *sql.Tx, event Event) error

// SubmitOption customizes a single submit.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	hooks []TxHook
}

// WithHook adds hook to this submit only; it runs after the service hooks.
func WithHook(hook TxHook) SubmitOption {
	return func(o *submitOptions) { o.hooks = append(o.hooks, hook) }
}

// Submit applies op to the document, the only write path. Submits for one
// document are serialized; op.V must equal the committed version or the op
// is rejected with errs.StaleVersion (lower) or errs.InvalidVersion
// (higher). The op-log append, snapshot update and hooks commit together,
// then the op is published.
func (s *Service) Submit(ctx context.Context, coll, docID string, op oplog.Op, opts ...SubmitOption) (snap snapshot.Snapshot, err error) {
	id, err := collection.Parse(coll)
	if err != nil {
		return snapshot.Snapshot{}, normalize(err)
	}
	if docID == "" {
		return snapshot.Snapshot{}, normalize(errs.New(errs.Validation, "docsync: document id is required"))
	}
	if !s.enter() {
		return snapshot.Snapshot{}, normalize(errs.New(errs.Unavailable, "docsync: service closed"))
	}
	defer s.inflight.Done()

	started := time.Now()
	kind := string(id.Kind)
	defer func() {
		s.metrics.SubmitDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
		if err != nil {
			s.metrics.SubmitRejected.WithLabelValues(kind, string(errs.CodeOf(err))).Inc()
			s.logger.V(1).Info("submit rejected", "collection", coll, "doc", docID, "v", op.V, "error", err.Error())
			return
		}
		s.metrics.OpsCommitted.WithLabelValues(kind, metrics.OpKind(op.IsCreate(), op.IsDelete())).Inc()
	}()

	if s.cfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SubmitTimeout)
		defer cancel()
	}
	options := &submitOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if op.Src == "" {
		op.Src = uuid.NewString()
	}

	unlock, err := s.locks.lock(ctx, collection.DocKey{Collection: id, DocID: docID}.String())
	if err != nil {
		return snapshot.Snapshot{}, normalize(err)
	}
	defer unlock()

	event, err := s.commit(ctx, id, docID, op, options)
	if err != nil {
		return snapshot.Snapshot{}, normalize(err)
	}
	s.logger.V(1).Info("op committed", "collection", coll, "doc", docID, "version", event.Snapshot.Version)
	s.publish(event)
	return event.Snapshot, nil
}

func (s *Service) commit(ctx context.Context, id collection.ID, docID string, op oplog.Op, options *submitOptions) (Event, error) {
	coll := id.String()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return Event{}, ctx.Err()
		}
		return Event{}, errs.Wrap(err, errs.Unavailable, "docsync: begin")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	next, err := s.ops.NextVersion(ctx, tx, coll, docID)
	if err != nil {
		return Event{}, err
	}
	switch {
	case op.V < next:
		return Event{}, errs.Errorf(errs.StaleVersion, "%s/%s: op version %d is behind committed version %d", coll, docID, op.V, next)
	case op.V > next:
		return Event{}, errs.Errorf(errs.InvalidVersion, "%s/%s: op version %d is ahead of committed version %d", coll, docID, op.V, next)
	}

	current, err := s.current(ctx, tx, coll, docID, next)
	if err != nil {
		return Event{}, err
	}
	applied, err := snapshot.Apply(current, op)
	if err != nil {
		return Event{}, err
	}
	if err := s.ops.Append(ctx, tx, coll, docID, op); err != nil {
		return Event{}, err
	}
	if err := s.snapshots.Put(ctx, tx, coll, applied); err != nil {
		return Event{}, err
	}

	event := Event{Collection: id, DocID: docID, Op: op, Snapshot: applied}
	for _, hook := range append(append([]TxHook{}, s.hooks...), options.hooks...) {
		if err := hook(ctx, tx, event); err != nil {
			return Event{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Event{}, errs.Wrap(err, errs.Internal, "docsync: commit")
	}
	committed = true
	return event, nil
}

// current returns the snapshot at version, replaying the op log when the
// cache row disagrees with it.
func (s *Service) current(ctx context.Context, q engine.Querier, coll, docID string, version int64) (snapshot.Snapshot, error) {
	snap, err := s.snapshots.Get(ctx, q, coll, docID)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	if snap.Version == version {
		return snap, nil
	}
	s.logger.Info("snapshot cache out of date, replaying op log", "collection", coll, "doc", docID, "cached", snap.Version, "committed", version)
	ops, err := s.ops.Ops(ctx, q, coll, docID, 0, version)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return snapshot.Replay(docID, ops)
}

// Commit is not supported: every mutation must go through Submit so that
// per-document serialization holds.
func (s *Service) Commit(ctx context.Context, coll, docID string, op oplog.Op) error {
	s.logger.Error(nil, "commit outside the submit pipeline", "collection", coll, "doc", docID, "v", op.V)
	return normalize(errs.Errorf(errs.NotImplemented, "docsync: commit of %s/%s bypasses submit", coll, docID))
}
