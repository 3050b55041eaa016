package relay

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

type entry struct {
	peer  Peer
	name  string
	bound bool
}

// Registry maps every live connection to its peer and, once the connection
// has joined, to its display name. All access goes through a single lock.
type Registry struct {
	mu      sync.RWMutex
	entries map[ConnID]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[ConnID]*entry),
	}
}

// Attach records an open connection that has not joined yet. It receives
// broadcasts from this point on.
func (r *Registry) Attach(id ConnID, peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.peer = peer
		return
	}
	r.entries[id] = &entry{peer: peer}
}

// Bind inserts or overwrites the display name of id. The name is stored
// as given, empty or not.
func (r *Registry) Bind(id ConnID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	e.name = name
	e.bound = true
}

// Resolve returns the name bound to id, or FallbackSender.
func (r *Registry) Resolve(id ConnID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[id]; ok && e.bound {
		return e.name
	}
	return FallbackSender
}

// Unbind removes id and returns the name that was bound to it. ok is false
// when the connection never joined or is unknown.
func (r *Registry) Unbind(id ConnID) (name string, ok bool) {
	name, ok, _ = r.detach(id)
	return name, ok
}

// detach removes id and additionally reports whether it was present at all,
// so that a connection is only ever torn down once.
func (r *Registry) detach(id ConnID) (name string, bound, present bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, present := r.entries[id]
	if !present {
		return "", false, false
	}
	delete(r.entries, id)
	return e.name, e.bound, true
}

// All returns a snapshot of every attached peer. Order is unspecified.
func (r *Registry) All() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.FilterMap(lo.Values(r.entries), func(e *entry, _ int) (Peer, bool) {
		return e.peer, e.peer != nil
	})
}

// Contains reports whether id is still registered.
func (r *Registry) Contains(id ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[id]
	return ok
}

// Len returns the number of registered connections, joined or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Names returns the bound display names, sorted. Duplicates are kept.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.FilterMap(lo.Values(r.entries), func(e *entry, _ int) (string, bool) {
		return e.name, e.bound
	})
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}
