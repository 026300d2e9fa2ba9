package propagation

import (
	"fmt"
	"strings"

	"github.com/viant/gridsync/engine"
)

type fixed struct {
	dialect engine.Dialect
}

// NewFixed returns the single-relation builder. The seed select is the
// anchor of one recursive relation and every hop is a recursive branch
// reading that same relation; hops are kept in union order.
func NewFixed(d engine.Dialect) Builder { return fixed{dialect: d} }

func (fixed) Strategy() Strategy { return Fixed }

func (f fixed) AffectedRecordsQuery(order []Link, seeds []RecordRef) (string, []interface{}, error) {
	if err := validate(order, seeds); err != nil {
		return "", nil, err
	}
	seedSQL, args := seedSelect(f.dialect, seeds)
	branches := make([]string, 0, len(order)+1)
	branches = append(branches, seedSQL)
	for _, link := range order {
		branches = append(branches, hopSelect(f.dialect, link, RelationName))
	}
	query := fmt.Sprintf("WITH RECURSIVE %s(%s) AS (\n%s\n)\n%s",
		engine.QuoteIdent(RelationName), columnList(), strings.Join(branches, "\nUNION ALL\n"), finalSelect(RelationName))
	return f.dialect.Rebind(query), args, nil
}
