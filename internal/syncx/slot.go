package syncx

import "sync/atomic"

// Slot holds the latest published value. Writers replace it wholesale and
// readers take a snapshot pointer; last write wins and nothing blocks.
// Published values must not be mutated afterwards.
type Slot[T any] struct {
	p atomic.Pointer[T]
}

// Store publishes v. A nil v clears the slot.
func (s *Slot[T]) Store(v *T) { s.p.Store(v) }

// Load returns the current snapshot, or nil when empty.
func (s *Slot[T]) Load() *T { return s.p.Load() }

// Clear empties the slot.
func (s *Slot[T]) Clear() { s.Store(nil) }
