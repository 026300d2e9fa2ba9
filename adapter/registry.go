package adapter

import (
	"sync"

	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/errs"
)

// Registry routes collection kinds to their adapters.
type Registry struct {
	mu     sync.RWMutex
	byKind map[collection.Kind]Readonly
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[collection.Kind]Readonly)}
}

// Register binds kind to a; a later call for the same kind replaces it.
func (r *Registry) Register(kind collection.Kind, a Readonly) error {
	if !kind.Valid() {
		return errs.Errorf(errs.Validation, "unknown collection kind %q", kind)
	}
	if a == nil {
		return errs.Errorf(errs.Validation, "nil adapter for kind %q", kind)
	}
	r.mu.Lock()
	r.byKind[kind] = a
	r.mu.Unlock()
	return nil
}

// Lookup returns the adapter serving kind.
func (r *Registry) Lookup(kind collection.Kind) (Readonly, error) {
	r.mu.RLock()
	a, ok := r.byKind[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.Errorf(errs.UnknownCollection, "no readonly adapter for collection kind %q", kind)
	}
	return a, nil
}
