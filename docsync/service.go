package docsync

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/viant/gridsync/adapter"
	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/metrics"
	"github.com/viant/gridsync/oplog"
	"github.com/viant/gridsync/snapshot"
)

// Service is the document synchronization service. It is safe for
// concurrent use; create it with New or Open and release it with Close.
type Service struct {
	cfg       Config
	dialect   engine.Dialect
	db        *sql.DB
	ownsDB    bool
	adapters  *adapter.Registry
	ops       *oplog.Store
	snapshots *snapshot.Store
	locks     *keyedLock
	hooks     []TxHook
	logger    logr.Logger
	metrics   *metrics.Collectors

	gate     sync.RWMutex
	closed   bool
	inflight sync.WaitGroup

	// subsClosed is set by the Close sweep; Subscribe checks it under subsMu.
	subsMu     sync.RWMutex
	subs       map[string]map[string]*Subscription
	subsClosed bool
}

// New creates a Service over an existing pool. The pool stays owned by the
// caller.
func New(cfg Config, db *sql.DB, adapters *adapter.Registry, opts ...Option) (*Service, error) {
	if db == nil {
		return nil, errs.New(errs.Validation, "docsync: nil database")
	}
	if adapters == nil {
		return nil, errs.New(errs.Validation, "docsync: nil adapter registry")
	}
	d, err := cfg.Dialect()
	if err != nil {
		return nil, errs.Wrap(err, errs.Validation, "docsync: config")
	}
	cfg.init()
	s := &Service{
		cfg:       cfg,
		dialect:   d,
		db:        db,
		adapters:  adapters,
		ops:       oplog.NewStore(d, cfg.OpsTable),
		snapshots: snapshot.NewStore(d, cfg.SnapshotTable),
		locks:     newKeyedLock(),
		logger:    logr.Discard(),
		metrics:   metrics.New(),
		subs:      make(map[string]map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithName("docsync")
	return s, nil
}

// Open opens the configured database and creates a Service owning it.
func Open(ctx context.Context, cfg Config, adapters *adapter.Registry, opts ...Option) (*Service, error) {
	d, err := cfg.Dialect()
	if err != nil {
		return nil, errs.Wrap(err, errs.Validation, "docsync: config")
	}
	db, err := engine.Open(d, cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(err, errs.Unavailable, "docsync: open database")
	}
	if cfg.MaxOpenConns > 0 && !(d == engine.SQLite && isMemory(cfg.DSN)) {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, errs.Unavailable, "docsync: ping database")
	}
	s, err := New(cfg, db, adapters, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	if cfg.Migrate {
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// DB returns the underlying pool.
func (s *Service) DB() *sql.DB { return s.db }

// Dialect returns the configured backend dialect.
func (s *Service) Dialect() engine.Dialect { return s.dialect }

// EnsureSchema creates the op-log and snapshot tables.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if err := s.ops.EnsureSchema(ctx, s.db); err != nil {
		return normalize(errs.Wrap(err, errs.Internal, "docsync: create op-log table"))
	}
	if err := s.snapshots.EnsureSchema(ctx, s.db); err != nil {
		return normalize(errs.Wrap(err, errs.Internal, "docsync: create snapshot table"))
	}
	return nil
}

// Close stops accepting submits, waits for in-flight ones until ctx is
// done, closes every subscription and closes the pool when owned.
func (s *Service) Close(ctx context.Context) error {
	s.gate.Lock()
	if s.closed {
		s.gate.Unlock()
		return nil
	}
	s.closed = true
	s.gate.Unlock()

	drained := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(drained)
	}()
	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = normalize(ctx.Err())
		s.logger.Info("closing with submits in flight", "reason", ctx.Err().Error())
	}

	s.subsMu.Lock()
	for _, byID := range s.subs {
		for _, sub := range byID {
			sub.closeChannel()
		}
	}
	s.subs = make(map[string]map[string]*Subscription)
	s.subsClosed = true
	s.metrics.Subscribers.Set(0)
	s.subsMu.Unlock()

	if s.ownsDB {
		if cerr := s.db.Close(); cerr != nil && err == nil {
			err = normalize(cerr)
		}
	}
	return err
}

// enter registers an in-flight submit unless the service is closed.
func (s *Service) enter() bool {
	s.gate.RLock()
	defer s.gate.RUnlock()
	if s.closed {
		return false
	}
	s.inflight.Add(1)
	return true
}

func (s *Service) isClosed() bool {
	s.gate.RLock()
	defer s.gate.RUnlock()
	return s.closed
}

// route parses a collection name and finds its adapter.
func (s *Service) route(name string) (collection.ID, adapter.Readonly, error) {
	id, err := collection.Parse(name)
	if err != nil {
		return collection.ID{}, nil, err
	}
	a, err := s.adapters.Lookup(id.Kind)
	if err != nil {
		return collection.ID{}, nil, err
	}
	return id, a, nil
}

// normalize converts err into *errs.Error without producing a typed nil.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	return errs.Normalize(err)
}

func isMemory(dsn string) bool { return strings.Contains(dsn, ":memory:") }
