package propagation

import (
	"fmt"
	"strings"

	"github.com/viant/gridsync/engine"
)

type chained struct {
	dialect engine.Dialect
}

// NewChained returns the multi-CTE builder. Every hop i reads
// affected_records_{i-1} by name and affected_records_i accumulates all
// rows found so far.
func NewChained(d engine.Dialect) Builder { return chained{dialect: d} }

func (chained) Strategy() Strategy { return Chained }

func (c chained) AffectedRecordsQuery(order []Link, seeds []RecordRef) (string, []interface{}, error) {
	if err := validate(order, seeds); err != nil {
		return "", nil, err
	}
	seedSQL, args := seedSelect(c.dialect, seeds)
	cols := columnList()

	ctes := make([]string, 0, len(order)+1)
	ctes = append(ctes, fmt.Sprintf("%s(%s) AS (\n%s\n)", engine.QuoteIdent(stepName(0)), cols, seedSQL))
	for i, link := range order {
		prev := stepName(i)
		ctes = append(ctes, fmt.Sprintf("%s(%s) AS (\nSELECT * FROM %s\nUNION ALL\n%s\n)",
			engine.QuoteIdent(stepName(i+1)), cols, engine.QuoteIdent(prev), hopSelect(c.dialect, link, prev)))
	}
	query := "WITH RECURSIVE " + strings.Join(ctes, ",\n") + "\n" + finalSelect(stepName(len(order)))
	return c.dialect.Rebind(query), args, nil
}

func stepName(i int) string { return fmt.Sprintf("%s_%d", RelationName, i) }
