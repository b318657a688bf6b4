package scheduler

import (
	"context"
	"sync"
)

// Handle is the cancellation handle of one delivery process. The registry
// compares handles by identity so a process can deregister itself without
// racing a replacement that was registered under the same reminder ID.
type Handle struct {
	cancel context.CancelFunc
}

// Registry maps reminder IDs to their active delivery process handles.
// It is the only shared mutable structure in the delivery subsystem and
// enforces at most one active process per reminder ID.
type Registry struct {
	mu    sync.Mutex
	procs map[int64]*Handle
}

// NewRegistry creates an empty process registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[int64]*Handle)}
}

// Replace registers h as the active process for id, cancelling and
// replacing any previously registered process atomically.
func (r *Registry) Replace(id int64, h *Handle) {
	r.mu.Lock()
	prev := r.procs[id]
	r.procs[id] = h
	r.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
}

// Cancel cancels and removes the active process for id, if any.
// It reports whether a process was registered.
func (r *Registry) Cancel(id int64) bool {
	r.mu.Lock()
	h, ok := r.procs[id]
	delete(r.procs, id)
	r.mu.Unlock()

	if ok {
		h.cancel()
	}
	return ok
}

// Release removes id from the registry only if h is still its registered
// handle. A process calls this on exit; a replaced process must not evict
// its successor.
func (r *Registry) Release(id int64, h *Handle) {
	r.mu.Lock()
	if r.procs[id] == h {
		delete(r.procs, id)
	}
	r.mu.Unlock()
}

// Len returns the number of registered processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}
