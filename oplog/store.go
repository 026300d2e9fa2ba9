package oplog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
)

// Store reads and appends op-log rows. It holds no connection; every call
// takes the Querier (pool or transaction) to run on.
type Store struct {
	dialect engine.Dialect
	table   string
}

// NewStore creates a Store over table (DefaultTable when empty).
func NewStore(d engine.Dialect, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{dialect: d, table: table}
}

// EnsureSchema creates the op-log table if it does not already exist.
func (s *Store) EnsureSchema(ctx context.Context, q engine.Querier) error {
	_, err := q.ExecContext(ctx, TableDDL(s.dialect, s.table))
	return err
}

// Append stores op at version op.V. A row already present at that version
// means another submit won the race and is reported as errs.StaleVersion.
func (s *Store) Append(ctx context.Context, q engine.Querier, collection, docID string, op Op) error {
	payload, err := json.Marshal(op)
	if err != nil {
		return errs.Wrap(err, errs.Validation, "encode op")
	}
	stmt := s.dialect.Rebind(fmt.Sprintf(`INSERT INTO %s(collection, doc_id, version, operation) VALUES(?, ?, ?, ?)`, engine.QuoteIdent(s.table)))
	if _, err := q.ExecContext(ctx, stmt, collection, docID, op.V, string(payload)); err != nil {
		if isUniqueViolation(err) {
			return errs.Errorf(errs.StaleVersion, "%s/%s: version %d already committed", collection, docID, op.V)
		}
		return errors.Wrapf(err, "oplog: append %s/%s v%d", collection, docID, op.V)
	}
	return nil
}

// NextVersion returns the version the next op for the document must be
// submitted against: one past the highest committed version, 0 when empty.
func (s *Store) NextVersion(ctx context.Context, q engine.Querier, collection, docID string) (int64, error) {
	stmt := s.dialect.Rebind(fmt.Sprintf(`SELECT COALESCE(MAX(version) + 1, 0) FROM %s WHERE collection = ? AND doc_id = ?`, engine.QuoteIdent(s.table)))
	var next int64
	if err := q.QueryRowContext(ctx, stmt, collection, docID).Scan(&next); err != nil {
		return 0, errors.Wrapf(err, "oplog: next version %s/%s", collection, docID)
	}
	return next, nil
}

// Range returns the ops with from <= version < to in ascending order. A
// negative to (Latest) reads up to the latest version; to == from is empty.
func (s *Store) Range(ctx context.Context, q engine.Querier, collection, docID string, from, to int64) ([]Entry, error) {
	if from < 0 {
		return nil, errs.Errorf(errs.Validation, "invalid from version %d", from)
	}
	query := fmt.Sprintf(`SELECT version, operation, created_at FROM %s WHERE collection = ? AND doc_id = ? AND version >= ?`, engine.QuoteIdent(s.table))
	args := []interface{}{collection, docID, from}
	if to >= 0 {
		if to < from {
			return nil, errs.Errorf(errs.Validation, "invalid version range [%d, %d)", from, to)
		}
		query += ` AND version < ?`
		args = append(args, to)
	}
	query += ` ORDER BY version ASC`

	rows, err := q.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, errors.Wrapf(err, "oplog: range %s/%s", collection, docID)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       = Entry{Collection: collection, DocID: docID}
			payload []byte
			created interface{}
		)
		if err := rows.Scan(&e.Version, &payload, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &e.Op); err != nil {
			return nil, errors.Wrapf(err, "oplog: decode %s/%s v%d", collection, docID, e.Version)
		}
		e.CreatedAt = asTime(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ops is Range without row metadata.
func (s *Store) Ops(ctx context.Context, q engine.Querier, collection, docID string, from, to int64) ([]Op, error) {
	entries, err := s.Range(ctx, q, collection, docID, from, to)
	if err != nil {
		return nil, err
	}
	ops := make([]Op, len(entries))
	for i, e := range entries {
		ops[i] = e.Op
	}
	return ops, nil
}

// asTime tolerates drivers returning timestamps as time.Time or text.
func asTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	}
	return time.Time{}
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
