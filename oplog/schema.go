package oplog

import (
	"fmt"

	"github.com/viant/gridsync/engine"
)

// DefaultTable is the op-log table name.
const DefaultTable = "ops"

// Latest is the open upper bound of a version range.
const Latest int64 = -1

// TableDDL returns the op-log DDL for the given dialect. The primary key
// doubles as the cross-process guard against two commits at one version.
func TableDDL(d engine.Dialect, table string) string {
	if table == "" {
		table = DefaultTable
	}
	payload := "TEXT"
	created := "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"
	if d == engine.Postgres {
		payload = "JSONB"
		created = "TIMESTAMPTZ NOT NULL DEFAULT now()"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    collection TEXT   NOT NULL,
    doc_id     TEXT   NOT NULL,
    version    BIGINT NOT NULL,
    operation  %s   NOT NULL,
    created_at %s,
    PRIMARY KEY(collection, doc_id, version)
);`, engine.QuoteIdent(table), payload, created)
}
