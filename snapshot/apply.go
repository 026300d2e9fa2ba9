package snapshot

import (
	"encoding/json"
	"math"

	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/oplog"
)

// Apply returns snap transformed by op at version snap.Version+1. It does
// not check op.V; version arbitration belongs to the submit pipeline.
func Apply(snap Snapshot, op oplog.Op) (Snapshot, error) {
	next := snap
	next.Version = snap.Version + 1
	switch {
	case op.IsCreate():
		if snap.Exists() {
			return Snapshot{}, errs.Errorf(errs.Validation, "document %s already exists", snap.ID)
		}
		next.Type = op.Create.Type
		if next.Type == "" {
			next.Type = oplog.DefaultType
		}
		next.Data = op.Create.Data
		return next, nil
	case op.IsDelete():
		if !snap.Exists() {
			return Snapshot{}, errs.Errorf(errs.Validation, "document %s does not exist", snap.ID)
		}
		next.Type = ""
		next.Data = nil
		return next, nil
	}
	if !snap.Exists() {
		return Snapshot{}, errs.Errorf(errs.Validation, "document %s does not exist", snap.ID)
	}
	if !op.HasDiff() {
		return next, nil
	}

	var doc interface{}
	if len(snap.Data) > 0 {
		if err := json.Unmarshal(snap.Data, &doc); err != nil {
			return Snapshot{}, errs.Wrapf(err, errs.Internal, "decode snapshot %s", snap.ID)
		}
	}
	for i, c := range op.Op {
		var err error
		if doc, err = applyComponent(doc, c); err != nil {
			return Snapshot{}, errs.Wrapf(err, errs.Validation, "document %s component %d", snap.ID, i)
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return Snapshot{}, errs.Wrapf(err, errs.Internal, "encode snapshot %s", snap.ID)
	}
	next.Data = data
	return next, nil
}

// Replay rebuilds a snapshot from ops starting at version 0.
func Replay(id string, ops []oplog.Op) (Snapshot, error) {
	snap := Empty(id)
	for _, op := range ops {
		var err error
		if snap, err = Apply(snap, op); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

func applyComponent(doc interface{}, c oplog.Component) (interface{}, error) {
	if len(c.P) == 0 {
		if len(c.OI) == 0 {
			return nil, errs.New(errs.Validation, "empty path requires oi")
		}
		return decode(c.OI)
	}
	return applyAt(doc, c.P, c)
}

func applyAt(node interface{}, path []interface{}, c oplog.Component) (interface{}, error) {
	if len(path) == 1 {
		return applyLeaf(node, path[0], c)
	}
	switch n := node.(type) {
	case map[string]interface{}:
		key, ok := path[0].(string)
		if !ok {
			return nil, errs.Errorf(errs.Validation, "object key must be a string, got %v", path[0])
		}
		child, ok := n[key]
		if !ok {
			return nil, errs.Errorf(errs.Validation, "path key %q not found", key)
		}
		updated, err := applyAt(child, path[1:], c)
		if err != nil {
			return nil, err
		}
		n[key] = updated
		return n, nil
	case []interface{}:
		i, err := listIndex(path[0], len(n)-1)
		if err != nil {
			return nil, err
		}
		updated, err := applyAt(n[i], path[1:], c)
		if err != nil {
			return nil, err
		}
		n[i] = updated
		return n, nil
	}
	return nil, errs.Errorf(errs.Validation, "cannot descend into %T at %v", node, path[0])
}

func applyLeaf(node interface{}, key interface{}, c oplog.Component) (interface{}, error) {
	switch n := node.(type) {
	case map[string]interface{}:
		k, ok := key.(string)
		if !ok {
			return nil, errs.Errorf(errs.Validation, "object key must be a string, got %v", key)
		}
		switch {
		case len(c.OI) > 0:
			v, err := decode(c.OI)
			if err != nil {
				return nil, err
			}
			n[k] = v
		case len(c.OD) > 0:
			delete(n, k)
		default:
			return nil, errs.New(errs.Validation, "object component needs oi or od")
		}
		return n, nil
	case []interface{}:
		switch {
		case len(c.LI) > 0 && len(c.LD) > 0:
			i, err := listIndex(key, len(n)-1)
			if err != nil {
				return nil, err
			}
			v, err := decode(c.LI)
			if err != nil {
				return nil, err
			}
			n[i] = v
			return n, nil
		case len(c.LI) > 0:
			i, err := listIndex(key, len(n))
			if err != nil {
				return nil, err
			}
			v, err := decode(c.LI)
			if err != nil {
				return nil, err
			}
			n = append(n, nil)
			copy(n[i+1:], n[i:])
			n[i] = v
			return n, nil
		case len(c.LD) > 0:
			i, err := listIndex(key, len(n)-1)
			if err != nil {
				return nil, err
			}
			return append(n[:i], n[i+1:]...), nil
		}
		return nil, errs.New(errs.Validation, "list component needs li or ld")
	case nil:
		// inserting into a missing root creates an object
		if k, ok := key.(string); ok && len(c.OI) > 0 {
			v, err := decode(c.OI)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{k: v}, nil
		}
	}
	return nil, errs.Errorf(errs.Validation, "cannot apply component to %T", node)
}

func listIndex(key interface{}, max int) (int, error) {
	var i int
	switch v := key.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, errs.Errorf(errs.Validation, "list index %v is not an integer", v)
		}
		i = int(v)
	case int:
		i = v
	case int64:
		i = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, errs.Wrapf(err, errs.Validation, "list index %v", v)
		}
		i = int(n)
	default:
		return 0, errs.Errorf(errs.Validation, "list index must be a number, got %v", key)
	}
	if i < 0 || i > max {
		return 0, errs.Errorf(errs.Validation, "list index %d out of range", i)
	}
	return i, nil
}

func decode(raw json.RawMessage) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errs.Wrap(err, errs.Validation, "decode component value")
	}
	return v, nil
}
