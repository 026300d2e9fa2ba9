package propagation

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"

	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/docsync"
	"github.com/viant/gridsync/errs"
)

// Route is the propagation plan for the records of one table: its physical
// name and the link order reaching every table that depends on it.
type Route struct {
	DbTableName string `json:"dbTableName"`
	Order       []Link `json:"order"`
}

// Routes maps table ids (the parent id of record collections) to routes.
type Routes map[string]Route

// DecodeRoutes reads routes from JSON and checks every link order.
func DecodeRoutes(r io.Reader) (Routes, error) {
	var routes Routes
	if err := json.NewDecoder(r).Decode(&routes); err != nil {
		return nil, errs.Wrap(err, errs.Validation, "propagation: decode routes")
	}
	for tableID, route := range routes {
		if route.DbTableName == "" {
			return nil, errs.Errorf(errs.Validation, "propagation: route %q has no dbTableName", tableID)
		}
		if err := validate(route.Order, []RecordRef{{DbTableName: route.DbTableName, ID: tableID}}); err != nil {
			return nil, errs.Wrapf(err, errs.Validation, "propagation: route %q", tableID)
		}
	}
	return routes, nil
}

// Planner seeds the submitted record of a routed table with its route.
// Ops on other collections plan nothing.
func (r Routes) Planner() Planner {
	return func(ctx context.Context, tx *sql.Tx, event docsync.Event) ([]Link, []RecordRef, error) {
		if event.Collection.Kind != collection.Record {
			return nil, nil, nil
		}
		route, ok := r[event.Collection.ParentID]
		if !ok {
			return nil, nil, nil
		}
		return route.Order, []RecordRef{{DbTableName: route.DbTableName, ID: event.DocID}}, nil
	}
}
