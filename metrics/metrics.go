// Package metrics holds the prometheus collectors of the synchronization
// core. Collectors are created per service instance and registered by the
// binary, so tests can use private registries.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	Namespace = "gridsync"

	MetricOpsCommitted    = "ops_committed_total"
	MetricSubmitRejected  = "submit_rejected_total"
	MetricPollsSkipped    = "polls_skipped_total"
	MetricSubmitDuration  = "submit_duration_seconds"
	MetricAffectedRecords = "affected_records_total"
	MetricSubscribers     = "subscribers"
)

// Collectors groups every collector the service reports to.
type Collectors struct {
	OpsCommitted    *prometheus.CounterVec
	SubmitRejected  *prometheus.CounterVec
	PollsSkipped    prometheus.Counter
	SubmitDuration  *prometheus.HistogramVec
	AffectedRecords prometheus.Counter
	Subscribers     prometheus.Gauge
}

// New creates an unregistered set of collectors.
func New() *Collectors {
	return &Collectors{
		OpsCommitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      MetricOpsCommitted,
				Help:      "Operations committed to the op-log.",
			},
			[]string{"kind", "op"},
		),
		SubmitRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      MetricSubmitRejected,
				Help:      "Submits rejected, by error code.",
			},
			[]string{"kind", "code"},
		),
		PollsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      MetricPollsSkipped,
				Help:      "Committed operations that did not require a query re-poll.",
			},
		),
		SubmitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      MetricSubmitDuration,
				Help:      "Submit latency including lock wait and hooks.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"kind"},
		),
		AffectedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      MetricAffectedRecords,
				Help:      "Dependent records found by propagation during submits.",
			},
		),
		Subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      MetricSubscribers,
				Help:      "Open op subscriptions.",
			},
		),
	}
}

// Register registers every collector with reg.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{
		c.OpsCommitted,
		c.SubmitRejected,
		c.PollsSkipped,
		c.SubmitDuration,
		c.AffectedRecords,
		c.Subscribers,
	} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// OpKind labels an op for OpsCommitted.
func OpKind(create, del bool) string {
	switch {
	case create:
		return "create"
	case del:
		return "delete"
	}
	return "edit"
}
