// Package flows keeps per-client screen state machines in memory, keyed by
// id and owned by one principal, until closed or idle for too long.
package flows

import (
	"errors"
	"sync"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/observability"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("flow not found")
	ErrForbidden = errors.New("flow belongs to another client")
)

// Closer is implemented by every flow kept in a Registry.
type Closer interface {
	Close()
}

type entry[T Closer] struct {
	flow      T
	owner     string
	createdAt time.Time
	lastSeen  time.Time
}

// Registry holds flows of one kind. Lookups refresh the idle clock.
type Registry[T Closer] struct {
	kind string
	ttl  time.Duration
	now  func() time.Time

	mu    sync.Mutex
	items map[uuid.UUID]*entry[T]
}

// NewRegistry creates a registry whose flows expire after ttl without use.
func NewRegistry[T Closer](kind string, ttl time.Duration) *Registry[T] {
	return &Registry[T]{
		kind:  kind,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[uuid.UUID]*entry[T]),
	}
}

func (r *Registry[T]) Kind() string { return r.kind }

// Add stores flow for owner and returns its id.
func (r *Registry[T]) Add(owner string, flow T) uuid.UUID {
	id := uuid.New()
	now := r.now()

	r.mu.Lock()
	r.items[id] = &entry[T]{flow: flow, owner: owner, createdAt: now, lastSeen: now}
	n := len(r.items)
	r.mu.Unlock()

	observability.SetActiveFlows(r.kind, n)
	return id
}

// Get returns the flow if owner created it.
func (r *Registry[T]) Get(owner string, id uuid.UUID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	e, ok := r.items[id]
	if !ok {
		return zero, ErrNotFound
	}
	if e.owner != owner {
		return zero, ErrForbidden
	}
	e.lastSeen = r.now()
	return e.flow, nil
}

// CreatedAt reports when the flow was added.
func (r *Registry[T]) CreatedAt(id uuid.UUID) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return time.Time{}, false
	}
	return e.createdAt, true
}

// Remove closes and forgets the flow.
func (r *Registry[T]) Remove(owner string, id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if e.owner != owner {
		r.mu.Unlock()
		return ErrForbidden
	}
	delete(r.items, id)
	n := len(r.items)
	r.mu.Unlock()

	e.flow.Close()
	observability.SetActiveFlows(r.kind, n)
	return nil
}

// RemoveOwner closes every flow of owner, e.g. on logout.
func (r *Registry[T]) RemoveOwner(owner string) int {
	r.mu.Lock()
	var closing []T
	for id, e := range r.items {
		if e.owner == owner {
			closing = append(closing, e.flow)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, f := range closing {
		f.Close()
	}
	observability.SetActiveFlows(r.kind, n)
	return len(closing)
}

// Sweep closes flows idle since before now-ttl and returns how many.
func (r *Registry[T]) Sweep(now time.Time) int {
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	var closing []T
	for id, e := range r.items {
		if e.lastSeen.Before(cutoff) {
			closing = append(closing, e.flow)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, f := range closing {
		f.Close()
	}
	observability.SetActiveFlows(r.kind, n)
	return len(closing)
}

// CloseAll closes every flow; used at shutdown.
func (r *Registry[T]) CloseAll() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[uuid.UUID]*entry[T])
	r.mu.Unlock()

	for _, e := range items {
		e.flow.Close()
	}
	observability.SetActiveFlows(r.kind, 0)
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
