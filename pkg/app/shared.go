package app

import "sync"

// Shared is the single lock-protected handle to State given to every
// goroutine. Callers must not keep references to State (or its slices)
// after fn returns.
type Shared struct {
	mu    sync.Mutex
	state *State
}

func NewShared(s *State) *Shared {
	if s == nil {
		s = NewState()
	}
	return &Shared{state: s}
}

// With runs fn with the lock held. fn must not block on I/O.
func (sh *Shared) With(fn func(*State)) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(sh.state)
}

// Network returns the registered dispatcher sender, if any.
func (sh *Shared) Network() Sender {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.state.Network
}

// SetNetwork registers (or, with nil, unregisters) the dispatcher sender.
func (sh *Shared) SetNetwork(sender Sender) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.state.Network = sender
}
