package errs

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs(t *testing.T) {
	err := New(StaleVersion, "op v3 is behind v5")
	assert.True(t, Is(err, StaleVersion))
	assert.False(t, Is(err, InvalidVersion))

	wrapped := fmt.Errorf("submit: %w", err)
	assert.True(t, Is(wrapped, StaleVersion))
	assert.False(t, Is(fmt.Errorf("plain"), StaleVersion))
	assert.False(t, Is(nil, StaleVersion))
}

func TestErrorf(t *testing.T) {
	err := Errorf(Validation, "field %s does not support %s", "fld1", "sum")
	assert.Equal(t, "Validation: field fld1 does not support sum", err.Error())
	assert.Equal(t, Validation, CodeOf(err))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, Internal, "x"))

	cause := fmt.Errorf("connection reset")
	err := Wrapf(cause, Internal, "append op %d", 4)
	assert.Equal(t, "Internal: append op 4: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	coded := New(NotImplemented, "dateRangeOfDays")
	n := Normalize(coded)
	require.NotNil(t, n)
	assert.Equal(t, NotImplemented, n.Code)
	assert.Equal(t, "dateRangeOfDays", n.Message)

	n = Normalize(fmt.Errorf("dial tcp: refused"))
	assert.Equal(t, Internal, n.Code)
	assert.Contains(t, n.Error(), "dial tcp: refused")

	n = Normalize(fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.Equal(t, Canceled, n.Code)

	n = Normalize(sql.ErrNoRows)
	assert.Equal(t, NotFound, n.Code)

	assert.Equal(t, Internal, CodeOf(fmt.Errorf("x")))
	assert.Equal(t, Code(""), CodeOf(nil))
}
