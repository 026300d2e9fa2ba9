package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors_Register(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := New()
	require.NoError(t, c.Register(reg))
	assert.Error(t, c.Register(reg), "double registration must fail")

	c.OpsCommitted.WithLabelValues("record", OpKind(true, false)).Inc()
	c.OpsCommitted.WithLabelValues("record", OpKind(false, false)).Add(2)
	c.SubmitRejected.WithLabelValues("record", "StaleVersion").Inc()
	c.PollsSkipped.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(c.OpsCommitted.WithLabelValues("record", "create")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.OpsCommitted.WithLabelValues("record", "edit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.SubmitRejected.WithLabelValues("record", "StaleVersion")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.PollsSkipped))

	n, err := testutil.GatherAndCount(reg, "gridsync_ops_committed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpKind(t *testing.T) {
	assert.Equal(t, "create", OpKind(true, false))
	assert.Equal(t, "delete", OpKind(false, true))
	assert.Equal(t, "edit", OpKind(false, false))
}
