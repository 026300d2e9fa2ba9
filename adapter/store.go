package adapter

import (
	"context"
	"database/sql"
	"math"

	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/snapshot"
)

// Query keys understood by StoreAdapter.
const (
	QueryIDs   = "ids"
	QueryLimit = "limit"
	QuerySkip  = "skip"
)

// AuthorizeFunc decides whether caller may read documents of kind under
// parentID. A nil error grants access.
type AuthorizeFunc func(ctx context.Context, caller Caller, kind collection.Kind, parentID string) error

// StoreAdapter serves one collection kind directly from the snapshot cache.
// It lists created documents in id order and applies field projections.
type StoreAdapter struct {
	db        *sql.DB
	store     *snapshot.Store
	kind      collection.Kind
	authorize AuthorizeFunc
}

// StoreOption customizes a StoreAdapter.
type StoreOption func(*StoreAdapter)

// WithAuthorize installs an authorization check run before every read.
func WithAuthorize(fn AuthorizeFunc) StoreOption {
	return func(a *StoreAdapter) { a.authorize = fn }
}

// NewStoreAdapter creates an adapter for kind over store.
func NewStoreAdapter(db *sql.DB, store *snapshot.Store, kind collection.Kind, opts ...StoreOption) *StoreAdapter {
	a := &StoreAdapter{db: db, store: store, kind: kind}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *StoreAdapter) collectionName(parentID string) string {
	return collection.New(a.kind, parentID).String()
}

func (a *StoreAdapter) check(ctx context.Context, parentID string) error {
	if a.authorize == nil {
		return nil
	}
	caller, ok := CallerFrom(ctx)
	if !ok {
		return errs.New(errs.Unauthorized, "adapter: missing caller")
	}
	return a.authorize(ctx, caller, a.kind, parentID)
}

// DocIDsByQuery implements Readonly. An "ids" entry restricts the result to
// those documents (in the given order); "limit" and "skip" page the listing.
func (a *StoreAdapter) DocIDsByQuery(ctx context.Context, parentID string, query Query) (Result, error) {
	if err := a.check(ctx, parentID); err != nil {
		return Result{}, err
	}
	coll := a.collectionName(parentID)
	if raw, ok := query[QueryIDs]; ok {
		want, err := stringList(raw)
		if err != nil {
			return Result{}, err
		}
		snaps, err := a.store.Bulk(ctx, a.db, coll, want)
		if err != nil {
			return Result{}, err
		}
		present := make(map[string]bool, len(snaps))
		for _, s := range snaps {
			if s.Exists() {
				present[s.ID] = true
			}
		}
		ids := make([]string, 0, len(want))
		for _, id := range want {
			if present[id] {
				ids = append(ids, id)
			}
		}
		return Result{IDs: ids}, nil
	}
	limit, err := intValue(query, QueryLimit)
	if err != nil {
		return Result{}, err
	}
	skip, err := intValue(query, QuerySkip)
	if err != nil {
		return Result{}, err
	}
	if limit <= 0 && skip > 0 {
		limit = math.MaxInt32
	}
	ids, err := a.store.IDs(ctx, a.db, coll, limit, skip)
	if err != nil {
		return Result{}, err
	}
	return Result{IDs: ids}, nil
}

// SnapshotBulk implements Readonly.
func (a *StoreAdapter) SnapshotBulk(ctx context.Context, parentID string, ids []string, projection snapshot.Projection) ([]snapshot.Snapshot, error) {
	if err := a.check(ctx, parentID); err != nil {
		return nil, err
	}
	snaps, err := a.store.Bulk(ctx, a.db, a.collectionName(parentID), ids)
	if err != nil {
		return nil, err
	}
	for i := range snaps {
		if snaps[i].Data, err = projection.Apply(snaps[i].Data); err != nil {
			return nil, errs.Wrapf(err, errs.Internal, "adapter: project %s", snaps[i].ID)
		}
	}
	return snaps, nil
}

func stringList(v interface{}) ([]string, error) {
	switch actual := v.(type) {
	case []string:
		return actual, nil
	case []interface{}:
		out := make([]string, 0, len(actual))
		for _, item := range actual {
			s, ok := item.(string)
			if !ok {
				return nil, errs.Errorf(errs.Validation, "adapter: %q entries must be strings, got %T", QueryIDs, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errs.Errorf(errs.Validation, "adapter: %q must be a list, got %T", QueryIDs, v)
}

func intValue(query Query, key string) (int, error) {
	v, ok := query[key]
	if !ok || v == nil {
		return 0, nil
	}
	var n int
	switch actual := v.(type) {
	case int:
		n = actual
	case int64:
		n = int(actual)
	case float64:
		n = int(actual)
	default:
		return 0, errs.Errorf(errs.Validation, "adapter: %q must be a number, got %T", key, v)
	}
	if n < 0 {
		return 0, errs.Errorf(errs.Validation, "adapter: %q must not be negative", key)
	}
	return n, nil
}
