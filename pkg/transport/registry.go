package transport

import (
	"errors"
	"sort"
	"sync"
)

// ErrAlreadyBound is returned by Put when the slot already holds a handle.
var ErrAlreadyBound = errors.New("transport slot already bound")

// Registry keeps at most one live Handle per Kind. Slots are never replaced
// implicitly; a handle must be taken out before another can be put.
type Registry struct {
	mu    sync.RWMutex
	slots map[Kind]Handle
}

func NewRegistry() *Registry { return &Registry{slots: make(map[Kind]Handle)} }

// Put publishes a fully initialized handle into the slot for kind.
func (r *Registry) Put(kind Kind, h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[kind]; ok {
		return ErrAlreadyBound
	}
	r.slots[kind] = h
	return nil
}

// Get returns the handle for kind, if any.
func (r *Registry) Get(kind Kind) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.slots[kind]
	return h, ok
}

// Take removes and returns the handle for kind.
func (r *Registry) Take(kind Kind) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.slots[kind]
	if ok {
		delete(r.slots, kind)
	}
	return h, ok
}

// Len returns the number of occupied slots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Kinds returns the occupied kinds in enumeration order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.slots))
	for k := range r.slots {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
