package propagation

import (
	"fmt"
	"strings"

	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
)

const (
	idColumn = "__id"
	// RelationName is the CTE name prefix (Chained) or the whole name (Fixed).
	RelationName = "affected_records"
)

var columns = []string{idColumn, "dbTableName", "fieldId", "selectIn", "relationTo"}

// Strategy names a query shape.
type Strategy string

const (
	Chained Strategy = "chained"
	Fixed   Strategy = "fixed"
)

// Builder generates the affected-records query. Builders are stateless and
// safe for concurrent use.
type Builder interface {
	Strategy() Strategy
	// AffectedRecordsQuery returns SQL selecting every AffectedRecord column
	// (in struct order) and its bind arguments. Seeds themselves are not
	// part of the result.
	AffectedRecordsQuery(order []Link, seeds []RecordRef) (string, []interface{}, error)
}

// New returns the builder suited to d: Chained for postgres, Fixed for sqlite.
func New(d engine.Dialect) (Builder, error) {
	switch d {
	case engine.Postgres:
		return NewChained(d), nil
	case engine.SQLite:
		return NewFixed(d), nil
	}
	return nil, errs.Errorf(errs.NotImplemented, "propagation: no builder for dialect %q", d)
}

func validate(order []Link, seeds []RecordRef) error {
	if len(order) == 0 {
		return errs.New(errs.Validation, "propagation: topological order must contain at least one link")
	}
	if len(seeds) == 0 {
		return errs.New(errs.Validation, "propagation: at least one seed record is required")
	}
	for i, link := range order {
		switch {
		case link.FieldID == "":
			return errs.Errorf(errs.Validation, "propagation: link %d: missing field id", i)
		case link.DbTableName == "" || link.LinkedDbTableName == "":
			return errs.Errorf(errs.Validation, "propagation: link %s: missing table names", link.FieldID)
		case link.ForeignKeyName == "":
			return errs.Errorf(errs.Validation, "propagation: link %s: missing foreign key name", link.FieldID)
		}
		switch link.Relationship {
		case OneOne, OneMany, ManyOne, ManyMany:
		default:
			return errs.Errorf(errs.Validation, "propagation: link %s: unknown relationship %q", link.FieldID, link.Relationship)
		}
	}
	for i, seed := range seeds {
		if seed.DbTableName == "" || seed.ID == "" {
			return errs.Errorf(errs.Validation, "propagation: seed %d: table name and id are required", i)
		}
	}
	return nil
}

func columnList() string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = engine.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// seedSelect selects the seed rows tagged with null fieldId, selectIn and
// relationTo. Arguments are id, table pairs.
func seedSelect(d engine.Dialect, seeds []RecordRef) (string, []interface{}) {
	rows := make([]string, len(seeds))
	args := make([]interface{}, 0, 2*len(seeds))
	for i, seed := range seeds {
		rows[i] = "(?, ?)"
		args = append(args, seed.ID, seed.DbTableName)
	}
	null := d.NullText()
	if d == engine.Postgres {
		return fmt.Sprintf(`SELECT "s"."id"::text, "s"."tbl"::text, %[1]s, %[1]s, %[1]s FROM (VALUES %[2]s) AS "s"("id", "tbl")`,
			null, strings.Join(rows, ", ")), args
	}
	return fmt.Sprintf(`SELECT column1, column2, %[1]s, %[1]s, %[1]s FROM (VALUES %[2]s)`,
		null, strings.Join(rows, ", ")), args
}

// hopSelect selects the records one link reaches from the rows of prev.
func hopSelect(d engine.Dialect, link Link, prev string) string {
	host := link.host()
	h := engine.QuoteIdent("h")
	p := engine.QuoteIdent("p")
	fk := h + "." + engine.QuoteIdent(link.ForeignKeyName)
	null := d.NullText()

	if link.Relationship == OneMany {
		// The fk host rows are the changed records; their fk value is the
		// dependent record.
		return fmt.Sprintf(`SELECT %[1]s, %[2]s, %[3]s, %[4]s, %[5]s
FROM %[6]s AS %[7]s
JOIN %[8]s AS %[9]s ON %[7]s.%[10]s = %[9]s.%[11]s
WHERE %[9]s.%[12]s = %[13]s AND %[1]s IS NOT NULL`,
			fk,
			engine.QuoteLiteral(link.DbTableName),
			engine.QuoteLiteral(link.FieldID),
			engine.QuoteLiteral(host+"#"+link.ForeignKeyName),
			null,
			engine.QuoteIdent(host), h,
			engine.QuoteIdent(prev), p,
			engine.QuoteIdent(link.selfKey()), engine.QuoteIdent(idColumn),
			engine.QuoteIdent("dbTableName"), engine.QuoteLiteral(link.LinkedDbTableName))
	}
	// The fk host references the changed record; its self key is the
	// dependent record.
	return fmt.Sprintf(`SELECT %[1]s.%[2]s, %[3]s, %[4]s, %[5]s, %[6]s.%[7]s
FROM %[8]s AS %[1]s
JOIN %[9]s AS %[6]s ON %[10]s = %[6]s.%[7]s
WHERE %[6]s.%[11]s = %[12]s`,
		h, engine.QuoteIdent(link.selfKey()),
		engine.QuoteLiteral(link.DbTableName),
		engine.QuoteLiteral(link.FieldID),
		null,
		p, engine.QuoteIdent(idColumn),
		engine.QuoteIdent(host),
		engine.QuoteIdent(prev),
		fk,
		engine.QuoteIdent("dbTableName"), engine.QuoteLiteral(link.LinkedDbTableName))
}

func finalSelect(relation string) string {
	return fmt.Sprintf(`SELECT * FROM %s WHERE %s IS NOT NULL`, engine.QuoteIdent(relation), engine.QuoteIdent("fieldId"))
}
