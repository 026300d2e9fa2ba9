package docsync

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/viant/gridsync/adapter"
	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/oplog"
	"github.com/viant/gridsync/snapshot"
)

// Query resolves ids through the collection's adapter and returns their
// snapshots in id order. Unknown ids yield version 0 snapshots.
func (s *Service) Query(ctx context.Context, coll string, query adapter.Query, projection snapshot.Projection) ([]snapshot.Snapshot, error) {
	id, a, err := s.route(coll)
	if err != nil {
		return nil, normalize(err)
	}
	result, err := a.DocIDsByQuery(ctx, id.ParentID, query)
	if err != nil {
		return nil, normalize(err)
	}
	byID, err := s.bulk(ctx, id, a, result.IDs, projection)
	if err != nil {
		return nil, normalize(err)
	}
	out := make([]snapshot.Snapshot, len(result.IDs))
	for i, docID := range result.IDs {
		out[i] = byID[docID]
	}
	return out, nil
}

// QueryPoll returns only the matching ids. It runs under the caller carried
// by ctx; without one it fails closed with an empty result and the adapter
// is not called.
func (s *Service) QueryPoll(ctx context.Context, coll string, query adapter.Query) ([]string, error) {
	id, a, err := s.route(coll)
	if err != nil {
		return nil, normalize(err)
	}
	if _, ok := adapter.CallerFrom(ctx); !ok {
		s.logger.V(1).Info("poll without caller, returning no ids", "collection", coll)
		return []string{}, nil
	}
	result, err := a.DocIDsByQuery(ctx, id.ParentID, query)
	if err != nil {
		return nil, normalize(err)
	}
	if result.IDs == nil {
		return []string{}, nil
	}
	return result.IDs, nil
}

// SkipPoll reports whether op cannot change any query result: it carries
// no diff and is neither a create nor a delete.
func SkipPoll(op oplog.Op) bool {
	return !op.HasDiff() && !op.IsCreate() && !op.IsDelete()
}

// SkipPoll is the method form of the package function.
func (s *Service) SkipPoll(op oplog.Op) bool { return SkipPoll(op) }

// SnapshotBulk fetches ids in one adapter round trip. The result holds one
// entry per requested id.
func (s *Service) SnapshotBulk(ctx context.Context, coll string, ids []string, projection snapshot.Projection) (map[string]snapshot.Snapshot, error) {
	id, a, err := s.route(coll)
	if err != nil {
		return nil, normalize(err)
	}
	out, err := s.bulk(ctx, id, a, ids, projection)
	return out, normalize(err)
}

// Snapshot fetches a single document.
func (s *Service) Snapshot(ctx context.Context, coll, docID string, projection snapshot.Projection) (snapshot.Snapshot, error) {
	byID, err := s.SnapshotBulk(ctx, coll, []string{docID}, projection)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return byID[docID], nil
}

// FetchBulk fetches snapshots of several collections concurrently, keyed
// by collection then document id.
func (s *Service) FetchBulk(ctx context.Context, request map[string][]string, projection snapshot.Projection) (map[string]map[string]snapshot.Snapshot, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]map[string]snapshot.Snapshot, len(request))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for coll, ids := range request {
		coll, ids := coll, ids
		g.Go(func() error {
			byID, err := s.SnapshotBulk(gctx, coll, ids, projection)
			if err != nil {
				return err
			}
			mu.Lock()
			out[coll] = byID
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, normalize(err)
	}
	return out, nil
}

func (s *Service) bulk(ctx context.Context, id collection.ID, a adapter.Readonly, ids []string, projection snapshot.Projection) (map[string]snapshot.Snapshot, error) {
	out := make(map[string]snapshot.Snapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	unique := make([]string, 0, len(ids))
	for _, docID := range ids {
		if _, ok := out[docID]; ok {
			continue
		}
		out[docID] = snapshot.Empty(docID)
		unique = append(unique, docID)
	}
	snaps, err := a.SnapshotBulk(ctx, id.ParentID, unique, projection)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if _, requested := out[snap.ID]; requested {
			out[snap.ID] = snap
		}
	}
	return out, nil
}
