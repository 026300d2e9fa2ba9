// Package collection parses and formats collection identifiers of the form
// "<kind>_<parentId>", e.g. "record_tbl123". The kind selects a readonly
// adapter; the parent id scopes the documents (a table for records, fields
// and views, a base for tables).
package collection

import (
	"strings"

	"github.com/viant/gridsync/errs"
)

// Kind is the entity kind encoded in a collection prefix.
type Kind string

const (
	Table  Kind = "table"
	Field  Kind = "field"
	View   Kind = "view"
	Record Kind = "record"
)

// Kinds lists every known kind.
var Kinds = []Kind{Table, Field, View, Record}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, candidate := range Kinds {
		if k == candidate {
			return true
		}
	}
	return false
}

// ID is a parsed collection identifier.
type ID struct {
	Kind     Kind
	ParentID string
}

// New builds an ID.
func New(kind Kind, parentID string) ID { return ID{Kind: kind, ParentID: parentID} }

// String formats the identifier back to "<kind>_<parentId>".
func (id ID) String() string { return string(id.Kind) + "_" + id.ParentID }

// Parse splits a collection name on its first underscore. Parent ids may
// themselves contain underscores.
func Parse(name string) (ID, error) {
	i := strings.IndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return ID{}, errs.Errorf(errs.Validation, "invalid collection %q: want <kind>_<parentId>", name)
	}
	id := ID{Kind: Kind(name[:i]), ParentID: name[i+1:]}
	if !id.Kind.Valid() {
		return ID{}, errs.Errorf(errs.UnknownCollection, "unknown collection kind %q in %q", id.Kind, name)
	}
	return id, nil
}

// DocKey identifies a single document: the unit of mutation serialization.
type DocKey struct {
	Collection ID
	DocID      string
}

func (k DocKey) String() string { return k.Collection.String() + "/" + k.DocID }
