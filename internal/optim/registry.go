package optim

import (
	"sort"
	"sync"

	"github.com/born-ml/born-optim/internal/nn"
)

// Registry maps parameter identities to optimizer states.
//
// It is safe for concurrent use by distinct keys. A registry belongs to
// exactly one Adaptor.
type Registry[S any] struct {
	mu     sync.RWMutex
	states map[nn.ParamID]*S
}

// NewRegistry creates an empty registry.
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{states: make(map[nn.ParamID]*S)}
}

// Get returns the state for id.
func (r *Registry[S]) Get(id nn.ParamID) (*S, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[id]
	return s, ok
}

// Put stores the state for id.
func (r *Registry[S]) Put(id nn.ParamID, state *S) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[id] = state
}

// Delete removes the state for id and reports whether it existed.
func (r *Registry[S]) Delete(id nn.ParamID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.states[id]
	delete(r.states, id)
	return ok
}

// Len returns the number of states.
func (r *Registry[S]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

// IDs returns every identity in sorted order.
func (r *Registry[S]) IDs() []nn.ParamID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]nn.ParamID, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot returns a shallow copy of the mapping. States are immutable
// values, so sharing them is safe.
func (r *Registry[S]) Snapshot() map[nn.ParamID]*S {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[nn.ParamID]*S, len(r.states))
	for id, s := range r.states {
		out[id] = s
	}
	return out
}

// Replace swaps in a new mapping wholesale. The registry takes ownership of
// states.
func (r *Registry[S]) Replace(states map[nn.ParamID]*S) {
	if states == nil {
		states = make(map[nn.ParamID]*S)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = states
}
