package aggregation

import (
	"strings"

	"github.com/viant/gridsync/engine"
)

// CTE is a named common table expression. Args bind its '?' markers.
type CTE struct {
	Name string
	SQL  string
	Args []interface{}
}

// Predicate is one AND-ed WHERE condition.
type Predicate struct {
	SQL  string
	Args []interface{}
}

// Query is a minimal SELECT builder. SQL fragments use '?' markers; SQL
// rebinds them for the dialect.
type Query struct {
	From    string
	With    []CTE
	Selects []string
	Joins   []string
	Where   []Predicate
	GroupBy []string
}

// NewQuery starts a query over table.
func NewQuery(table string) *Query { return &Query{From: table} }

// AndWhere adds a condition.
func (q *Query) AndWhere(sql string, args ...interface{}) *Query {
	q.Where = append(q.Where, Predicate{SQL: sql, Args: args})
	return q
}

func (q *Query) whereClause() (string, []interface{}) {
	if len(q.Where) == 0 {
		return "", nil
	}
	conds := make([]string, len(q.Where))
	var args []interface{}
	for i, p := range q.Where {
		conds[i] = "(" + p.SQL + ")"
		args = append(args, p.Args...)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SQL renders the statement and its arguments in marker order.
func (q *Query) SQL(d engine.Dialect) (string, []interface{}) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	if len(q.With) > 0 {
		sb.WriteString("WITH ")
		for i, cte := range q.With {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(engine.QuoteIdent(cte.Name))
			sb.WriteString(" AS (")
			sb.WriteString(cte.SQL)
			sb.WriteString(")")
			args = append(args, cte.Args...)
		}
		sb.WriteString(" ")
	}
	sb.WriteString("SELECT ")
	if len(q.Selects) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(q.Selects, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(engine.QuoteIdent(q.From))
	for _, join := range q.Joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}
	where, whereArgs := q.whereClause()
	sb.WriteString(where)
	args = append(args, whereArgs...)
	if len(q.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(q.GroupBy, ", "))
	}
	return d.Rebind(sb.String()), args
}
