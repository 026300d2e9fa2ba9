package aggregation

import (
	"strings"

	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/field"
)

// Request asks for one statistic of one field.
type Request struct {
	FieldID string `json:"fieldId"`
	Func    Func   `json:"statisticFunc"`
}

// Alias is the column name the statistic is selected as.
func (r Request) Alias() string { return r.FieldID + "_" + string(r.Func) }

// Extra carries optional post-aggregation settings.
type Extra struct {
	// GroupBy lists field ids; ids that do not resolve are ignored.
	GroupBy []string `json:"groupBy,omitempty"`
}

// Builder appends statistics to a base query. It is stateless.
type Builder struct {
	dialect engine.Dialect
}

// NewBuilder returns a Builder generating SQL for d.
func NewBuilder(d engine.Dialect) Builder { return Builder{dialect: d} }

// Append validates reqs against fields and selects every requested statistic
// on q under its Alias. Multi-valued statistics that need the expanded
// array become CTEs named like the alias, aggregated per group and joined
// back on the group columns (one row wide without grouping).
func (b Builder) Append(q *Query, fields []field.Field, reqs []Request, extra Extra) (*Query, error) {
	if q == nil || q.From == "" {
		return nil, errs.New(errs.Validation, "aggregation: base query needs a table")
	}
	byID := field.Index(fields)
	where, whereArgs := q.whereClause()
	table := engine.QuoteIdent(q.From)

	var groupBy []string
	for _, id := range extra.GroupBy {
		if f, ok := byID[id]; ok && f.DbFieldName != "" {
			groupBy = append(groupBy, table+"."+engine.QuoteIdent(f.DbFieldName))
		}
	}

	var selects []string
	seen := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		f, ok := byID[req.FieldID]
		if !ok {
			return nil, errs.Errorf(errs.Validation, "aggregation: unknown field %q", req.FieldID)
		}
		if !isValid(f, req.Func) {
			return nil, errs.Errorf(errs.Validation, "aggregation: field %q does not support %q, allowed: %s", f.ID, req.Func, joinFuncs(ValidFuncs(f)))
		}
		alias := req.Alias()
		if seen[alias] {
			continue
		}
		seen[alias] = true

		set, err := resolve(b.dialect, f, Target{
			Table:  table,
			Column: engine.QuoteIdent(f.DbFieldName),
			Where:  where,
			Group:  groupBy,
			Field:  f,
		})
		if err != nil {
			return nil, err
		}
		fragment, err := set.Generate(req.Func)
		if err != nil {
			return nil, err
		}
		quoted := engine.QuoteIdent(alias)
		if !set.IsSubquery(req.Func) {
			selects = append(selects, fragment+" AS "+quoted)
			continue
		}
		q.With = append(q.With, CTE{Name: alias, SQL: fragment, Args: append([]interface{}(nil), whereArgs...)})
		q.Joins = append(q.Joins, "LEFT JOIN "+quoted+" ON "+b.joinOn(quoted, groupBy))
		selects = append(selects, "MAX("+quoted+`."value") AS `+quoted)
	}
	q.Selects = append(q.Selects, groupBy...)
	q.Selects = append(q.Selects, selects...)
	q.GroupBy = append(q.GroupBy, groupBy...)
	return q, nil
}

// joinOn matches a statistic CTE row to its group.
func (b Builder) joinOn(cte string, groupBy []string) string {
	if len(groupBy) == 0 {
		return "1 = 1"
	}
	op := grammars[b.dialect].notDistinct
	conds := make([]string, len(groupBy))
	for i, column := range groupBy {
		conds[i] = cte + "." + engine.QuoteIdent(GroupColumn(i)) + " " + op + " " + column
	}
	return strings.Join(conds, " AND ")
}
