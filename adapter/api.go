package adapter

import (
	"context"

	"github.com/viant/gridsync/snapshot"
)

// Query is the opaque, adapter-interpreted query of a subscription.
type Query map[string]interface{}

// Result is the outcome of DocIDsByQuery.
type Result struct {
	// IDs lists matching documents in query order.
	IDs []string
	// Extra carries adapter-specific metadata (e.g. total row count).
	Extra interface{}
}

// Readonly serves one collection kind. Implementations must be safe for
// concurrent use.
type Readonly interface {
	// DocIDsByQuery returns the ordered ids of documents under parentID
	// matching query.
	DocIDsByQuery(ctx context.Context, parentID string, query Query) (Result, error)

	// SnapshotBulk loads snapshots for ids under parentID in one round trip.
	// Unknown ids may be omitted; the service fills them in.
	SnapshotBulk(ctx context.Context, parentID string, ids []string, projection snapshot.Projection) ([]snapshot.Snapshot, error)
}
