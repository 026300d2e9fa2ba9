package docsync

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/metrics"
)

const (
	defaultSubscriberBuffer = 64
	defaultFetchConcurrency = 4
)

// Config configures a Service.
type Config struct {
	// Driver names the backend: postgres or sqlite.
	Driver string
	DSN    string
	// MaxOpenConns caps the pool opened by Open; 0 keeps the driver default.
	MaxOpenConns int
	// SubmitTimeout bounds a submit including lock wait; 0 disables it.
	SubmitTimeout time.Duration

	OpsTable      string
	SnapshotTable string

	// SubscriberBuffer is the per-subscription channel capacity. A
	// subscriber that falls this far behind is closed.
	SubscriberBuffer int
	// FetchConcurrency caps concurrent collections in FetchBulk.
	FetchConcurrency int
	// Migrate creates the op-log and snapshot tables on Open.
	Migrate bool
}

// Dialect resolves Driver.
func (c Config) Dialect() (engine.Dialect, error) { return engine.ParseDialect(c.Driver) }

func (c *Config) init() {
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = defaultSubscriberBuffer
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = defaultFetchConcurrency
	}
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger logr.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics reports to c instead of a private unregistered set.
func WithMetrics(c *metrics.Collectors) Option {
	return func(s *Service) {
		if c != nil {
			s.metrics = c
		}
	}
}

// WithTxHook runs hook inside every submit transaction, after the op is
// appended and before commit.
func WithTxHook(hook TxHook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, hook) }
}
