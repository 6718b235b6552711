// Package favorites keeps the set of favorited product ids. The set is
// independent of the catalog: ids may outlive the products they refer to.
package favorites

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Backend persists favorites one id at a time.
type Backend interface {
	LoadFavorites(ctx context.Context) ([]string, error)
	AddFavorite(ctx context.Context, id string) error
	RemoveFavorite(ctx context.Context, id string) error
	ClearFavorites(ctx context.Context) error
}

// Logger abstracts logging so callers can use logrus or nothing at all.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Registry is the in-memory favorites set backed by a Backend. Mutations
// are serialized and persisted before they return; persistence failures
// are logged and the in-memory set stays authoritative.
type Registry struct {
	mu      sync.RWMutex
	set     map[string]struct{}
	backend Backend
	log     Logger
}

// New creates an empty registry. A nil backend keeps favorites in memory
// only; a nil logger discards messages.
func New(backend Backend, log Logger) *Registry {
	if log == nil {
		log = nopLogger{}
	}
	return &Registry{
		set:     make(map[string]struct{}),
		backend: backend,
		log:     log,
	}
}

// Load replaces the in-memory set with the backend's contents. On failure
// the current set is kept and the error is returned.
func (r *Registry) Load(ctx context.Context) error {
	if r.backend == nil {
		return nil
	}
	ids, err := r.backend.LoadFavorites(ctx)
	if err != nil {
		r.log.Warnf("Could not load favorites: %v", err)
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })
	return nil
}

func (r *Registry) IsFavorite(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.set[id]
	return ok
}

// Toggle flips membership of id and returns the new state.
func (r *Registry) Toggle(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.set[id]; ok {
		delete(r.set, id)
		if r.backend != nil {
			if err := r.backend.RemoveFavorite(ctx, id); err != nil {
				r.log.Errorf("Error saving favorites: %v", err)
			}
		}
		return false
	}

	r.set[id] = struct{}{}
	if r.backend != nil {
		if err := r.backend.AddFavorite(ctx, id); err != nil {
			r.log.Errorf("Error saving favorites: %v", err)
		}
	}
	return true
}

// Clear empties the set.
func (r *Registry) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = make(map[string]struct{})
	if r.backend != nil {
		if err := r.backend.ClearFavorites(ctx); err != nil {
			r.log.Errorf("Error clearing favorites: %v", err)
		}
	}
}

// Rebind moves the registry onto backend, copying the current set into it.
// Later changes persist to backend only.
func (r *Registry) Rebind(ctx context.Context, backend Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = backend
	if backend == nil {
		return
	}
	ids := lo.Keys(r.set)
	sort.Strings(ids)
	for _, id := range ids {
		if err := backend.AddFavorite(ctx, id); err != nil {
			r.log.Errorf("Error saving favorites: %v", err)
		}
	}
}

// List returns the favorited ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	ids := lo.Keys(r.set)
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.set)
}
