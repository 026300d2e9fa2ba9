package oplog

import (
	"encoding/json"
	"time"
)

// DefaultType is the document type assigned when a create op names none.
const DefaultType = "json0"

// Op is an ordered delta applied to exactly one document version V to
// produce V+1. Exactly one of Create, Del or Op describes the change; an op
// with none of them is a no-op that still bumps the version.
type Op struct {
	// Src identifies the submitting client; Seq orders its submissions.
	Src string `json:"src,omitempty"`
	Seq int64  `json:"seq,omitempty"`

	// V is the base version the op was submitted against.
	V int64 `json:"v"`

	Create *CreateOp   `json:"create,omitempty"`
	Del    bool        `json:"del,omitempty"`
	Op     []Component `json:"op,omitempty"`
}

// CreateOp carries the initial document type and data.
type CreateOp struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Component is one json0 edit. P is the path (object keys as strings, list
// indexes as numbers); OI/OD insert or delete an object key, LI/LD insert or
// delete a list element. Setting both halves of a pair replaces the value.
type Component struct {
	P  []interface{}   `json:"p"`
	OI json.RawMessage `json:"oi,omitempty"`
	OD json.RawMessage `json:"od,omitempty"`
	LI json.RawMessage `json:"li,omitempty"`
	LD json.RawMessage `json:"ld,omitempty"`
}

// IsCreate reports whether the op creates the document.
func (o Op) IsCreate() bool { return o.Create != nil }

// IsDelete reports whether the op deletes the document.
func (o Op) IsDelete() bool { return o.Del }

// HasDiff reports whether the op carries edit components.
func (o Op) HasDiff() bool { return len(o.Op) > 0 }

// Entry mirrors a single row of the op-log table.
type Entry struct {
	Collection string
	DocID      string
	Version    int64
	Op         Op
	CreatedAt  time.Time
}
