package atomic_slot

import (
	"sync/atomic"
)

// Notes:
// - a slot holds a pointer to an immutable Signature, or nil when empty
// - a slot only ever moves from empty to claimed; Clear is the one way back,
//   and callers must exclude concurrent claims while clearing (the collision table
//   holds its write lock)
// Compare-and-swap from nil is what keeps two writers from overwriting each other's
// signatures: the loser reloads and either matches the winner or moves on to probe.

// Signature is the fingerprint of the coordinate vector occupying a slot.
// Exactly one of the two forms is used by a given table: a scalar check value,
// or the full coordinate vector.
type Signature struct {
	Check  int
	Coords []int
}

// NewCheckSignature builds a scalar signature.
func NewCheckSignature(check int) *Signature {
	return &Signature{Check: check}
}

// NewCoordsSignature builds a full-vector signature. The coordinates are copied,
// so the caller can reuse its buffer.
func NewCoordsSignature(coords []int) *Signature {
	cp := make([]int, len(coords))
	copy(cp, coords)
	return &Signature{Coords: cp}
}

// Matches reports whether the signature identifies the given check value or vector.
// Full-vector signatures compare coordinates; scalar signatures compare checks.
func (sig *Signature) Matches(check int, coords []int) bool {
	if sig.Coords == nil {
		return sig.Check == check
	}
	if len(sig.Coords) != len(coords) {
		return false
	}
	for i, c := range sig.Coords {
		if coords[i] != c {
			return false
		}
	}
	return true
}

// Outcome describes what a probe found in a slot.
type Outcome int

const (
	// Hit means the slot already holds the probed signature.
	Hit Outcome = iota
	// Claimed means the slot was empty and now holds the probed signature.
	Claimed
	// Occupied means the slot holds some other signature.
	Occupied
)

// Slot encapsulates a signature pointer for non-locking atomic operations.
type Slot struct {
	sig atomic.Pointer[Signature]
}

// AtomicRead returns the current signature, or nil if the slot is empty.
func (s *Slot) AtomicRead() *Signature {
	return s.sig.Load()
}

// IsEmpty reports whether no signature has claimed the slot.
func (s *Slot) IsEmpty() bool {
	return s.sig.Load() == nil
}

// Probe compares the slot against a fingerprint and claims it if empty.
// When coords is nil the fingerprint is the scalar check; otherwise it is the vector
// itself. The signature is only allocated when the slot is actually claimed.
func (s *Slot) Probe(check int, coords []int) Outcome {
	held := s.sig.Load()
	if held == nil {
		var fresh *Signature
		if coords == nil {
			fresh = NewCheckSignature(check)
		} else {
			fresh = NewCoordsSignature(coords)
		}
		if s.sig.CompareAndSwap(nil, fresh) {
			return Claimed
		}
		// Lost the race; the winner's signature is now in place.
		held = s.sig.Load()
	}
	if held.Matches(check, coords) {
		return Hit
	}
	return Occupied
}

// AtomicClear empties the slot.
func (s *Slot) AtomicClear() {
	s.sig.Store(nil)
}
