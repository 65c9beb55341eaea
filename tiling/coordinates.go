package tiling

import (
	"math"

	"tilecoder/hashing"
)

// MaxNumFloats is the most float variables one call can tile.
const MaxNumFloats = 20

// scratch holds one call's intermediate values. It lives on the caller's stack, so
// concurrent calls never see each other's state.
//
// The coordinate vector is laid out as the displaced float coordinates, then the
// tiling index, then the integer variables verbatim.
type scratch struct {
	numTilings int
	numFloats  int
	// quantized floats
	qstate [MaxNumFloats]int
	// displacement of the current tiling, per float
	base [MaxNumFloats]int
	// wrap period in tiling space per float, zero when the float does not wrap
	period [MaxNumFloats]int
	wraps  bool

	backing [1 + 2*MaxNumFloats]int
	coords  []int
}

// start quantizes the floats and copies in the integers. Floats are gridded at unit
// intervals: scaling by numTilings makes one tile span 1 in the caller's units.
func (s *scratch) start(numTilings int, floats []float64, ints []int) {
	s.numTilings = numTilings
	s.numFloats = len(floats)

	numCoords := s.numFloats + 1 + len(ints)
	if numCoords <= len(s.backing) {
		s.coords = s.backing[:numCoords]
	} else {
		s.coords = make([]int, numCoords)
	}
	copy(s.coords[s.numFloats+1:], ints)

	for i, f := range floats {
		s.base[i] = 0
		s.qstate[i] = int(math.Floor(f * float64(numTilings)))
	}
}

// startWrap is start plus the per-float wrap periods.
func (s *scratch) startWrap(numTilings int, floats, wrapWidths []float64, ints []int) {
	s.start(numTilings, floats, ints)
	for i, w := range wrapWidths {
		s.period[i] = int(w) * numTilings
		if w != 0 {
			s.wraps = true
		}
	}
}

// fixCoord fills in the float coordinates and tiling index for tiling j, then
// advances the displacements. Tilings must be visited in order from 0.
func (s *scratch) fixCoord(j int) {
	n := s.numTilings
	for i := 0; i < s.numFloats; i++ {
		q, b := s.qstate[i], s.base[i]
		// Floor-consistent: q and b may be negative, the modulo operands never are.
		var c int
		if q >= b {
			c = q - ((q - b) % n)
		} else {
			c = q + 1 + ((b - q - 1) % n) - n
		}
		if s.wraps && s.period[i] != 0 {
			c = hashing.FloorMod(c, s.period[i])
		}
		s.coords[i] = c
		// Diagonal displacement: no two floats shift by the same amount.
		s.base[i] += 1 + 2*i
	}
	s.coords[s.numFloats] = j
}
