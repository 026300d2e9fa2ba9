package docsync

import (
	"context"

	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/oplog"
	"github.com/viant/gridsync/snapshot"
)

// Ops reads committed ops with from <= version < to from the op log in
// ascending order. oplog.Latest as to reads up to the latest version.
func (s *Service) Ops(ctx context.Context, coll, docID string, from, to int64) ([]oplog.Op, error) {
	id, err := collection.Parse(coll)
	if err != nil {
		return nil, normalize(err)
	}
	ops, err := s.ops.Ops(ctx, s.db, id.String(), docID, from, to)
	return ops, normalize(err)
}

// Rebuild replaces the cached snapshot of a document by replaying its op
// log, under the document lock.
func (s *Service) Rebuild(ctx context.Context, coll, docID string) (snapshot.Snapshot, error) {
	id, err := collection.Parse(coll)
	if err != nil {
		return snapshot.Snapshot{}, normalize(err)
	}
	if s.isClosed() {
		return snapshot.Snapshot{}, normalize(errs.New(errs.Unavailable, "docsync: service closed"))
	}
	unlock, err := s.locks.lock(ctx, collection.DocKey{Collection: id, DocID: docID}.String())
	if err != nil {
		return snapshot.Snapshot{}, normalize(err)
	}
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return snapshot.Snapshot{}, normalize(errs.Wrap(err, errs.Unavailable, "docsync: begin"))
	}
	defer func() { _ = tx.Rollback() }()

	ops, err := s.ops.Ops(ctx, tx, id.String(), docID, 0, oplog.Latest)
	if err != nil {
		return snapshot.Snapshot{}, normalize(err)
	}
	snap, err := snapshot.Replay(docID, ops)
	if err != nil {
		return snapshot.Snapshot{}, normalize(err)
	}
	if err := s.snapshots.Put(ctx, tx, id.String(), snap); err != nil {
		return snapshot.Snapshot{}, normalize(err)
	}
	if err := tx.Commit(); err != nil {
		return snapshot.Snapshot{}, normalize(errs.Wrap(err, errs.Internal, "docsync: commit rebuild"))
	}
	s.logger.Info("snapshot rebuilt", "collection", id.String(), "doc", docID, "version", snap.Version)
	return snap, nil
}
