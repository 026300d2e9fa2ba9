package propagation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/viant/gridsync/docsync"
	"github.com/viant/gridsync/engine"
)

// DefaultDirtyTable is the affected-record queue table name.
const DefaultDirtyTable = "dirty_records"

// DirtyQueue records affected records for the recompute pass. Rows are
// written in the submit transaction, so a record is queued if and only if
// the op that affected it committed.
type DirtyQueue struct {
	dialect engine.Dialect
	table   string
}

// NewDirtyQueue creates a queue over table (DefaultDirtyTable when empty).
func NewDirtyQueue(d engine.Dialect, table string) *DirtyQueue {
	if table == "" {
		table = DefaultDirtyTable
	}
	return &DirtyQueue{dialect: d, table: table}
}

// DDL returns the queue table definition.
func (q *DirtyQueue) DDL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	record_id TEXT NOT NULL,
	db_table_name TEXT NOT NULL,
	field_id TEXT NOT NULL,
	select_in TEXT,
	relation_to TEXT,
	source_collection TEXT NOT NULL,
	source_doc TEXT NOT NULL,
	source_version BIGINT NOT NULL
)`, engine.QuoteIdent(q.table))
}

// EnsureSchema creates the queue table if it does not exist.
func (q *DirtyQueue) EnsureSchema(ctx context.Context, db engine.Querier) error {
	if _, err := db.ExecContext(ctx, q.DDL()); err != nil {
		return errors.Wrapf(err, "propagation: create %s", q.table)
	}
	return nil
}

// Apply is an Applier queueing every affected record of event.
func (q *DirtyQueue) Apply(ctx context.Context, tx *sql.Tx, event docsync.Event, records []AffectedRecord) error {
	stmt := q.dialect.Rebind(fmt.Sprintf(`INSERT INTO %s (record_id, db_table_name, field_id, select_in, relation_to, source_collection, source_doc, source_version) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, engine.QuoteIdent(q.table)))
	source := event.Collection.String()
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, stmt, rec.ID, rec.DbTableName, rec.FieldID, nullable(rec.SelectIn), nullable(rec.RelationTo), source, event.DocID, event.Snapshot.Version); err != nil {
			return errors.Wrapf(err, "propagation: queue %s/%s", rec.DbTableName, rec.ID)
		}
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
