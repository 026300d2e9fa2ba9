package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/viant/gridsync/engine"
)

// Store is the SQL-backed snapshot cache. Like the op-log store it holds no
// connection; callers pass the pool or the submit transaction.
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

// EnsureSchema creates the snapshot table if it does not already exist.
func (s *Store) EnsureSchema(ctx context.Context, q engine.Querier) error {
	_, err := q.ExecContext(ctx, TableDDL(s.dialect, s.table))
	return err
}

// Get returns the cached snapshot or Empty(id) when none is stored.
func (s *Store) Get(ctx context.Context, q engine.Querier, collection, id string) (Snapshot, error) {
	stmt := s.dialect.Rebind(fmt.Sprintf(`SELECT version, doc_type, data FROM %s WHERE collection = ? AND doc_id = ?`, engine.QuoteIdent(s.table)))
	snap := Snapshot{ID: id}
	var (
		docType sql.NullString
		data    []byte
	)
	err := q.QueryRowContext(ctx, stmt, collection, id).Scan(&snap.Version, &docType, &data)
	if err == sql.ErrNoRows {
		return Empty(id), nil
	}
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "snapshot: get %s/%s", collection, id)
	}
	snap.Type = docType.String
	if len(data) > 0 {
		snap.Data = data
	}
	return snap, nil
}

// Put upserts snap.
func (s *Store) Put(ctx context.Context, q engine.Querier, collection string, snap Snapshot) error {
	stmt := s.dialect.Rebind(fmt.Sprintf(`
INSERT INTO %s(collection, doc_id, version, doc_type, data)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(collection, doc_id) DO UPDATE SET
  version = excluded.version,
  doc_type = excluded.doc_type,
  data = excluded.data,
  updated_at = CURRENT_TIMESTAMP`, engine.QuoteIdent(s.table)))

	var docType, data interface{}
	if snap.Type != "" {
		docType = snap.Type
	}
	if len(snap.Data) > 0 {
		data = string(snap.Data)
	}
	if _, err := q.ExecContext(ctx, stmt, collection, snap.ID, snap.Version, docType, data); err != nil {
		return errors.Wrapf(err, "snapshot: put %s/%s", collection, snap.ID)
	}
	return nil
}

// Bulk returns the stored snapshots among ids in a single round trip. Ids
// without a stored row are omitted; callers fill them in.
func (s *Store) Bulk(ctx context.Context, q engine.Querier, collection string, ids []string) ([]Snapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	stmt := s.dialect.Rebind(fmt.Sprintf(`SELECT doc_id, version, doc_type, data FROM %s WHERE collection = ? AND doc_id IN (%s)`, engine.QuoteIdent(s.table), marks))

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot: bulk %s", collection)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			docType sql.NullString
			data    []byte
		)
		if err := rows.Scan(&snap.ID, &snap.Version, &docType, &data); err != nil {
			return nil, err
		}
		snap.Type = docType.String
		if len(data) > 0 {
			snap.Data = data
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// IDs lists created documents of a collection ordered by id. A non-positive
// limit returns every id.
func (s *Store) IDs(ctx context.Context, q engine.Querier, collection string, limit, offset int) ([]string, error) {
	query := fmt.Sprintf(`SELECT doc_id FROM %s WHERE collection = ? AND doc_type IS NOT NULL ORDER BY doc_id`, engine.QuoteIdent(s.table))
	args := []interface{}{collection}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := q.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot: ids %s", collection)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
