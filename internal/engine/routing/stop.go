package routing

import (
	"context"
	"sync"
)

// StopSwitch scopes cancellation to top-level operations. Begin opens an
// operation with a fresh context, Stop cancels every open one. Dispatches
// that share an operation's context all honour the same stop.
type StopSwitch struct {
	mu   sync.Mutex
	next uint64
	ops  map[uint64]context.CancelCauseFunc
}

// NewStopSwitch creates an empty switch.
func NewStopSwitch() *StopSwitch {
	return &StopSwitch{ops: make(map[uint64]context.CancelCauseFunc)}
}

// Begin opens a top-level operation. The returned done func must be called
// when the operation finishes.
func (s *StopSwitch) Begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	s.mu.Lock()
	id := s.next
	s.next++
	s.ops[id] = cancel
	s.mu.Unlock()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.ops, id)
			s.mu.Unlock()
			cancel(nil)
		})
	}
}

// Stop cancels every open operation and returns how many were stopped.
func (s *StopSwitch) Stop() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.ops)
	for id, cancel := range s.ops {
		cancel(ErrStopped)
		delete(s.ops, id)
	}
	return n
}

// Active returns the number of open operations.
func (s *StopSwitch) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}
