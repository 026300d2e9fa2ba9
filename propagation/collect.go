package propagation

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/viant/gridsync/engine"
)

// Collect builds the affected-records query and runs it on q, normally the
// transaction of the mutation being propagated.
func Collect(ctx context.Context, q engine.Querier, b Builder, order []Link, seeds []RecordRef) ([]AffectedRecord, error) {
	query, args, err := b.AffectedRecordsQuery(order, seeds)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "propagation: query affected records")
	}
	defer rows.Close()

	var out []AffectedRecord
	for rows.Next() {
		var rec AffectedRecord
		var tableName, fieldID, selectIn, relTo sql.NullString
		if err := rows.Scan(&rec.ID, &tableName, &fieldID, &selectIn, &relTo); err != nil {
			return nil, errors.Wrap(err, "propagation: scan affected record")
		}
		rec.DbTableName = tableName.String
		rec.FieldID = fieldID.String
		rec.SelectIn = selectIn.String
		rec.RelationTo = relTo.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
