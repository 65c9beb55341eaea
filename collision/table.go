package collision

/*
Table detects and resolves hashing collisions so that a small, fixed memory behaves
like an unbounded exact one, until it runs out of slots. It uses open addressing with
double hashing: the primary slot and the probe step come from two differently
incremented UNH hashes, the step is forced odd, and since the size is a power of two
an odd step visits every slot before repeating.

A table is meant to live for a whole run and be shared by every caller producing
tiles against it. Resolve may be called concurrently: slots are claimed by
compare-and-swap and counters are atomic, so the read side of the table lock is
enough. Reset takes the write side.
*/

import (
	"fmt"
	"sync"
	"sync/atomic"

	"tilecoder/atomic_slot"
	tileerrors "tilecoder/errors"
	"tilecoder/hashing"
)

const (
	DefaultSize   = 2048
	DefaultSafety = Safe
)

// Option is a functional option for configuring a Table.
type Option func(*tableConfig)

type tableConfig struct {
	safety Safety
	random *hashing.RandomTable
}

func defaultTableConfig() *tableConfig {
	return &tableConfig{
		safety: DefaultSafety,
	}
}

// WithSafety sets how collisions are handled.
func WithSafety(safety Safety) Option {
	return func(c *tableConfig) {
		c.safety = safety
	}
}

// WithRandomTable hashes with rt instead of the process-wide table.
// Mostly useful for reproducing a table's layout in tests.
func WithRandomTable(rt *hashing.RandomTable) Option {
	return func(c *tableConfig) {
		c.random = rt
	}
}

// Stats is a snapshot of a table's counters.
type Stats struct {
	Calls      int
	ClearHits  int
	Collisions int
	Usage      int
}

// Table is a collision table. The zero value is not usable; see New.
type Table struct {
	// mu is read-held by Resolve and write-held by Reset.
	mu     sync.RWMutex
	size   int
	safety Safety
	random *hashing.RandomTable
	slots  []atomic_slot.Slot

	calls      atomic.Int64
	clearhits  atomic.Int64
	collisions atomic.Int64
}

// New allocates a table of size empty slots. The size must be a power of two.
func New(size int, opts ...Option) (*Table, error) {
	cfg := defaultTableConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if !hashing.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: got %d", tileerrors.ErrNotPowerOfTwo, size)
	}
	if !cfg.safety.valid() {
		return nil, fmt.Errorf("%w: %d", tileerrors.ErrUnknownSafety, int(cfg.safety))
	}
	if cfg.random == nil {
		cfg.random = hashing.Default()
	}
	return &Table{
		size:   size,
		safety: cfg.safety,
		random: cfg.random,
		slots:  make([]atomic_slot.Slot, size),
	}, nil
}

// Size returns the number of slots.
func (t *Table) Size() int { return t.size }

// Safety returns the collision handling mode chosen at construction.
func (t *Table) Safety() Safety { return t.safety }

// Reset empties every slot and zeroes the counters.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		t.slots[i].AtomicClear()
	}
	t.calls.Store(0)
	t.clearhits.Store(0)
	t.collisions.Store(0)
}

// Usage counts the occupied slots.
func (t *Table) Usage() int {
	used := 0
	for i := range t.slots {
		if !t.slots[i].IsEmpty() {
			used++
		}
	}
	return used
}

// Stats returns the counters along with the current usage.
func (t *Table) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Stats{
		Calls:      int(t.calls.Load()),
		ClearHits:  int(t.clearhits.Load()),
		Collisions: int(t.collisions.Load()),
		Usage:      t.Usage(),
	}
}

func (t *Table) String() string {
	s := t.Stats()
	return fmt.Sprintf(
		"Collision table: Safety : %s Usage : %d Size : %d Calls : %d ClearHits : %d Collisions : %d",
		t.safety, s.Usage, t.size, s.Calls, s.ClearHits, s.Collisions)
}

// Resolve returns the slot index in [0, Size()) belonging to the coordinate vector.
// The vector is not retained. If the table is checked (Safe or SuperSafe) and no
// matching or empty slot remains, ErrCapacityExhausted is returned instead.
func (t *Table) Resolve(coords []int) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	t.calls.Add(1)
	n := len(coords)
	j := t.random.UNH(coords, n, t.size, hashing.IndexIncrement)

	// The fingerprint is either a check hash or, for SuperSafe, the vector itself.
	var check int
	var vector []int
	if t.safety == SuperSafe {
		vector = coords[:n:n]
		if vector == nil {
			vector = []int{}
		}
	} else {
		check = t.random.UNH(coords, n, hashing.MaxLongInt, hashing.CheckIncrement)
	}

	switch t.slots[j].Probe(check, vector) {
	case atomic_slot.Hit, atomic_slot.Claimed:
		t.clearhits.Add(1)
		return j, nil
	}

	if t.safety == Unsafe {
		// Collision, but we don't care.
		t.collisions.Add(1)
		return j, nil
	}

	// Rehash. An odd step cycles through every slot of a power of two table.
	step := 1 + 2*t.random.UNH(coords, n, hashing.MaxLongIntBy4, hashing.StepIncrement)
	mask := t.size - 1
	for attempt := 0; attempt < t.size; attempt++ {
		t.collisions.Add(1)
		j = (j + step) & mask
		if t.slots[j].Probe(check, vector) != atomic_slot.Occupied {
			return j, nil
		}
	}
	return -1, fmt.Errorf("%w: no free slot among %d", tileerrors.ErrCapacityExhausted, t.size)
}
