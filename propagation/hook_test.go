package propagation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/gridsync/adapter"
	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/docsync"
	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/oplog"
	"github.com/viant/gridsync/snapshot"
)

func TestHook_RunsInSubmitTransaction(t *testing.T) {
	db := seedTables(t)
	ctx := context.Background()
	_, err := db.Exec(`CREATE TABLE dirty(record_id TEXT, table_name TEXT, field_id TEXT)`)
	require.NoError(t, err)

	registry := adapter.NewRegistry()
	require.NoError(t, registry.Register(collection.Record, adapter.NewStoreAdapter(db, snapshot.NewStore(engine.SQLite, ""), collection.Record)))

	plan := func(ctx context.Context, tx *sql.Tx, event docsync.Event) ([]Link, []RecordRef, error) {
		if event.Collection.ParentID != "orders" {
			return nil, nil, nil
		}
		return []Link{customerOrders, invoiceCustomer}, []RecordRef{{DbTableName: "orders", ID: event.DocID}}, nil
	}
	failOn := ""
	apply := func(ctx context.Context, tx *sql.Tx, event docsync.Event, records []AffectedRecord) error {
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, `INSERT INTO dirty VALUES(?, ?, ?)`, rec.ID, rec.DbTableName, rec.FieldID); err != nil {
				return err
			}
		}
		if event.DocID == failOn {
			return errors.New("recompute failed")
		}
		return nil
	}
	found := prometheus.NewCounter(prometheus.CounterOpts{Name: "found"})

	builder, err := New(engine.SQLite)
	require.NoError(t, err)
	svc, err := docsync.New(docsync.Config{Driver: "sqlite"}, db, registry, docsync.WithTxHook(Hook(builder, plan, apply, WithCounter(found))))
	require.NoError(t, err)
	require.NoError(t, svc.EnsureSchema(ctx))
	defer svc.Close(ctx)

	create := oplog.Op{Create: &oplog.CreateOp{Data: json.RawMessage(`{"fields":{}}`)}}
	_, err = svc.Submit(ctx, "record_orders", "o3", create)
	require.NoError(t, err)

	var dirty int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM dirty`).Scan(&dirty))
	assert.Equal(t, 2, dirty, "c2 and its invoice i3")
	assert.Equal(t, float64(2), testutil.ToFloat64(found))

	_, err = svc.Submit(ctx, "record_customers", "c1", create)
	require.NoError(t, err, "records without dependents commit untouched")

	failOn = "o1"
	_, err = svc.Submit(ctx, "record_orders", "o1", create)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Internal))

	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM dirty`).Scan(&dirty))
	assert.Equal(t, 2, dirty, "propagation writes roll back with the submit")
	snap, err := svc.Snapshot(ctx, "record_orders", "o1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Version)
}
