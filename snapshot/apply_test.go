package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/oplog"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestApply_CreateEditDelete(t *testing.T) {
	snap, err := Apply(Empty("rec1"), oplog.Op{Create: &oplog.CreateOp{Data: raw(`{"fields":{"fld1":"a"},"tags":["x"]}`)}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, oplog.DefaultType, snap.Type)

	snap, err = Apply(snap, oplog.Op{V: 1, Op: []oplog.Component{
		{P: []interface{}{"fields", "fld1"}, OD: raw(`"a"`), OI: raw(`"b"`)},
		{P: []interface{}{"fields", "fld2"}, OI: raw(`42`)},
		{P: []interface{}{"tags", float64(1)}, LI: raw(`"y"`)},
		{P: []interface{}{"tags", float64(0)}, LI: raw(`"w"`)},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	assert.JSONEq(t, `{"fields":{"fld1":"b","fld2":42},"tags":["w","x","y"]}`, string(snap.Data))

	snap, err = Apply(snap, oplog.Op{V: 2, Op: []oplog.Component{
		{P: []interface{}{"fields", "fld2"}, OD: raw(`42`)},
		{P: []interface{}{"tags", float64(1)}, LD: raw(`"x"`)},
		{P: []interface{}{"tags", float64(0)}, LD: raw(`"w"`), LI: raw(`"v"`)},
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":{"fld1":"b"},"tags":["v","y"]}`, string(snap.Data))

	snap, err = Apply(snap, oplog.Op{V: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), snap.Version)

	snap, err = Apply(snap, oplog.Op{V: 4, Del: true})
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.Version)
	assert.False(t, snap.Exists())
	assert.Nil(t, snap.Data)
}

func TestApply_Errors(t *testing.T) {
	created := Snapshot{ID: "rec1", Version: 1, Type: oplog.DefaultType, Data: raw(`{"fields":{},"tags":[]}`)}

	tests := []struct {
		name string
		snap Snapshot
		op   oplog.Op
	}{
		{"create existing", created, oplog.Op{Create: &oplog.CreateOp{}}},
		{"delete missing", Empty("rec1"), oplog.Op{Del: true}},
		{"edit missing", Empty("rec1"), oplog.Op{Op: []oplog.Component{{P: []interface{}{"a"}, OI: raw(`1`)}}}},
		{"missing intermediate key", created, oplog.Op{Op: []oplog.Component{{P: []interface{}{"nope", "x"}, OI: raw(`1`)}}}},
		{"list index out of range", created, oplog.Op{Op: []oplog.Component{{P: []interface{}{"tags", float64(3)}, LI: raw(`1`)}}}},
		{"non-integer index", created, oplog.Op{Op: []oplog.Component{{P: []interface{}{"tags", 0.5}, LI: raw(`1`)}}}},
		{"object without oi/od", created, oplog.Op{Op: []oplog.Component{{P: []interface{}{"fields", "x"}}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Apply(tc.snap, tc.op)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.Validation), err.Error())
		})
	}
}

func TestReplay(t *testing.T) {
	ops := []oplog.Op{
		{V: 0, Create: &oplog.CreateOp{Type: "json0", Data: raw(`{"fields":{}}`)}},
		{V: 1, Op: []oplog.Component{{P: []interface{}{"fields", "fld1"}, OI: raw(`"x"`)}}},
		{V: 2, Op: []oplog.Component{{P: []interface{}{"fields", "fld1"}, OD: raw(`"x"`), OI: raw(`"y"`)}}},
	}
	snap, err := Replay("rec1", ops)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Version)
	assert.JSONEq(t, `{"fields":{"fld1":"y"}}`, string(snap.Data))
}

func TestProjection(t *testing.T) {
	data := raw(`{"id":"rec1","fields":{"fld1":1,"fld2":2,"fld3":3}}`)

	out, err := Projection{"fld1": true, "fld3": true}.Apply(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"rec1","fields":{"fld1":1,"fld3":3}}`, string(out))

	out, err = Projection{SubmitMarker: true, "fld1": true}.Apply(data)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(out))

	out, err = Projection(nil).Apply(data)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(out))

	out, err = Projection{"fld1": true}.Apply(raw(`{"name":"grid"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"grid"}`, string(out))
}
