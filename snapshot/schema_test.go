package snapshot

import (
	"context"
	"testing"

	"github.com/viant/gridsync/engine"
)

// TestTableDDL verifies that the snapshot DDL creates a usable table on a
// fresh in-memory database.
func TestTableDDL(t *testing.T) {
	db, err := engine.Open(engine.SQLite, ":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	if err := NewStore(engine.SQLite, "").EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO doc_snapshots(collection, doc_id, version, doc_type, data) VALUES('record_tbl1', 'rec1', 1, 'json0', '{}')`); err != nil {
		t.Fatalf("insert into doc_snapshots failed: %v", err)
	}
}
