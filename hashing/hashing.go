package hashing

/*
UNH hashing of integer arrays, after the UNH CMAC code. A single table of random
integers is built once and shared read-only by every evaluation; the same hash is
run with different increments to get a primary index, a check value and a probe
step that are decorrelated from each other, which is what lets a collision table
tell two different tiles apart even when they land on the same slot.
*/

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// RandomTableSize is the number of entries in a RandomTable.
	RandomTableSize = 2048
	// randomRange bounds each entry to [0, randomRange).
	randomRange = 65536

	// MaxLongInt bounds check values.
	MaxLongInt = 2147483647
	// MaxLongIntBy4 bounds probe steps, so that 1+2*step stays in range.
	MaxLongIntBy4 = MaxLongInt / 4

	// Increments for the three uses of UNH.
	IndexIncrement = 449
	CheckIncrement = 457
	StepIncrement  = IndexIncrement + CheckIncrement
)

// RandomTable is a fixed array of random integers in [0, 65536). It is never
// modified after construction, so it can be shared freely across goroutines.
type RandomTable [RandomTableSize]int

// NewRandomTable draws every entry uniformly from rng.
func NewRandomTable(rng *rand.Rand) *RandomTable {
	rt := &RandomTable{}
	for i := range rt {
		rt[i] = rng.Intn(randomRange)
	}
	return rt
}

// NewSeededRandomTable is a convenience for reproducible tables.
func NewSeededRandomTable(seed int64) *RandomTable {
	return NewRandomTable(rand.New(rand.NewSource(seed)))
}

var (
	defaultOnce  sync.Once
	defaultTable *RandomTable
)

// Default returns the process-wide table, built on first use.
func Default() *RandomTable {
	defaultOnce.Do(func() {
		defaultTable = NewSeededRandomTable(time.Now().UnixNano())
	})
	return defaultTable
}

// UNH hashes the first n entries of coords into [0, m).
// Negative coordinates are folded into the table with floor modulo.
func (rt *RandomTable) UNH(coords []int, n, m, increment int) int {
	res := 0
	for i := 0; i < n; i++ {
		res += rt[FloorMod(coords[i]+i*increment, RandomTableSize)]
	}
	return res % m
}

// UNH hashes coords with the process-wide table.
func UNH(coords []int, n, m, increment int) int {
	return Default().UNH(coords, n, m, increment)
}

// FloorMod returns num modulo by, always in [0, by) for by > 0.
func FloorMod(num, by int) int {
	r := num % by
	if r < 0 {
		r += by
	}
	return r
}

// IsPowerOfTwo reports whether n is 2^k for some k >= 0.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
