package snapshot

import (
	"fmt"

	"github.com/viant/gridsync/engine"
)

// DefaultTable is the snapshot cache table name.
const DefaultTable = "doc_snapshots"

// TableDDL returns the snapshot cache DDL for the given dialect.
func TableDDL(d engine.Dialect, table string) string {
	if table == "" {
		table = DefaultTable
	}
	data := "TEXT"
	updated := "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"
	if d == engine.Postgres {
		data = "JSONB"
		updated = "TIMESTAMPTZ NOT NULL DEFAULT now()"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    collection TEXT   NOT NULL,
    doc_id     TEXT   NOT NULL,
    version    BIGINT NOT NULL,
    doc_type   TEXT,
    data       %s,
    updated_at %s,
    PRIMARY KEY(collection, doc_id)
);`, engine.QuoteIdent(table), data, updated)
}
