package transport

import (
	"context"
	"sync"
)

// InFlightRegistry tracks active exchanges by conversation ID so they can
// be cancelled out of band. At most one exchange per conversation is
// tracked; registering a second exchange for the same conversation cancels
// the first.
type InFlightRegistry struct {
	mu     sync.Mutex
	active map[string]*Registration
}

// Registration identifies one registered exchange. Its Remove releases
// only the caller's own entry, so an exchange unwinding after a takeover
// cannot cancel its successor.
type Registration struct {
	registry       *InFlightRegistry
	conversationID string
	cancel         context.CancelFunc
}

// NewInFlightRegistry creates an empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{active: make(map[string]*Registration)}
}

// Register derives a cancellable context for an exchange on the given
// conversation and records it. Any exchange already running for that
// conversation is cancelled first. The caller must call Remove on the
// returned Registration when the exchange finishes.
func (r *InFlightRegistry) Register(ctx context.Context, conversationID string) (context.Context, *Registration) {
	ctx, cancel := context.WithCancel(ctx)
	reg := &Registration{registry: r, conversationID: conversationID, cancel: cancel}

	r.mu.Lock()
	if prev, ok := r.active[conversationID]; ok {
		prev.cancel()
	}
	r.active[conversationID] = reg
	r.mu.Unlock()

	return ctx, reg
}

// Cancel aborts the exchange running for the given conversation, if any.
// Reports whether an exchange was found.
func (r *InFlightRegistry) Cancel(conversationID string) bool {
	r.mu.Lock()
	reg, ok := r.active[conversationID]
	if ok {
		delete(r.active, conversationID)
	}
	r.mu.Unlock()

	if ok {
		reg.cancel()
	}
	return ok
}

// Remove releases the registration's cancel function and drops its registry
// entry. If another exchange has since taken over the conversation, that
// entry is left untouched.
func (reg *Registration) Remove() {
	r := reg.registry
	r.mu.Lock()
	if cur, ok := r.active[reg.conversationID]; ok && cur == reg {
		delete(r.active, reg.conversationID)
	}
	r.mu.Unlock()

	reg.cancel()
}
