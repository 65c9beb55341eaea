package tiling

import (
	"fmt"

	"tilecoder/collision"
	tileerrors "tilecoder/errors"
	"tilecoder/hashing"
)

// Memory turns a tile's coordinate vector into its index.
// *collision.Table checks for and resolves collisions; Raw ignores them.
// Implementations must not retain coords, which is reused between tilings.
type Memory interface {
	Resolve(coords []int) (int, error)
}

var (
	_ Memory = (*collision.Table)(nil)
	_ Memory = Raw{}
)

// Raw hashes straight into [0, m) without detecting collisions: two different
// tiles may silently share an index. It keeps no state, so it is safe to share.
type Raw struct {
	m      int
	random *hashing.RandomTable
}

// NewRaw returns raw memory of size m, which must be a power of two.
func NewRaw(m int) (Raw, error) {
	return NewRawWithTable(m, hashing.Default())
}

// NewRawWithTable is NewRaw hashing with rt instead of the process-wide table.
func NewRawWithTable(m int, rt *hashing.RandomTable) (Raw, error) {
	if !hashing.IsPowerOfTwo(m) {
		return Raw{}, fmt.Errorf("%w: got %d", tileerrors.ErrNotPowerOfTwo, m)
	}
	return Raw{m: m, random: rt}, nil
}

// Size returns m.
func (r Raw) Size() int { return r.m }

// Resolve never fails for a Raw built by NewRaw.
func (r Raw) Resolve(coords []int) (int, error) {
	if r.random == nil {
		return -1, fmt.Errorf("%w: raw memory of size %d", tileerrors.ErrNotPowerOfTwo, r.m)
	}
	return r.random.UNH(coords, len(coords), r.m, hashing.IndexIncrement), nil
}
