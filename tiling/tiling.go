package tiling

/*
Grid-style tile coding, after the UNH CMAC code. For each of numTilings overlapping
grids, each displaced diagonally from the last, the floats are quantized to the grid
cell they fall in, the tiling index and any integer variables are appended, and the
resulting coordinate vector is hashed down to an index by the given Memory.

Floats are gridded at unit intervals, so generalization is by roughly 1 in each
direction, and any scaling must be done before calling. numTilings is usually best
as a power of two (e.g. 16), though nothing here requires it.
*/

import (
	"fmt"
	"math"

	tileerrors "tilecoder/errors"
)

// Generate returns the numTilings tile indices for the floats and ints.
func Generate(numTilings int, memory Memory, floats []float64, ints ...int) ([]int, error) {
	tiles := make([]int, max(numTilings, 0))
	if err := GenerateInto(tiles, 0, numTilings, memory, floats, ints...); err != nil {
		return nil, err
	}
	return tiles, nil
}

// GenerateInto writes the numTilings tile indices into tiles[offset:offset+numTilings].
func GenerateInto(tiles []int, offset, numTilings int, memory Memory, floats []float64, ints ...int) error {
	if err := validate(tiles, offset, numTilings, memory, floats); err != nil {
		return err
	}
	var s scratch
	s.start(numTilings, floats, ints)
	return s.hashTiles(tiles[offset:offset+numTilings], memory)
}

// GenerateWrap is Generate with wrapping floats. wrapWidths parallels floats: each
// nonzero width is the period of its float, in the same units as the float but a
// whole number; zero leaves the float unwrapped. An angle wants scaling first, e.g.
// by 8/(2*math.Pi) with a width of 8.
func GenerateWrap(numTilings int, memory Memory, floats, wrapWidths []float64, ints ...int) ([]int, error) {
	tiles := make([]int, max(numTilings, 0))
	if err := GenerateWrapInto(tiles, 0, numTilings, memory, floats, wrapWidths, ints...); err != nil {
		return nil, err
	}
	return tiles, nil
}

// GenerateWrapInto is GenerateInto with wrapping floats, see GenerateWrap.
func GenerateWrapInto(
	tiles []int,
	offset, numTilings int,
	memory Memory,
	floats, wrapWidths []float64,
	ints ...int,
) error {
	if err := validate(tiles, offset, numTilings, memory, floats); err != nil {
		return err
	}
	if err := validateWrapWidths(floats, wrapWidths); err != nil {
		return err
	}
	var s scratch
	s.startWrap(numTilings, floats, wrapWidths, ints)
	return s.hashTiles(tiles[offset:offset+numTilings], memory)
}

// Coordinates returns each tiling's coordinate vector without hashing it.
func Coordinates(numTilings int, floats []float64, ints ...int) ([][]int, error) {
	if err := validateFloats(numTilings, floats); err != nil {
		return nil, err
	}
	var s scratch
	s.start(numTilings, floats, ints)
	return s.collect(), nil
}

// CoordinatesWrap returns each tiling's coordinate vector with wrapping applied.
func CoordinatesWrap(numTilings int, floats, wrapWidths []float64, ints ...int) ([][]int, error) {
	if err := validateFloats(numTilings, floats); err != nil {
		return nil, err
	}
	if err := validateWrapWidths(floats, wrapWidths); err != nil {
		return nil, err
	}
	var s scratch
	s.startWrap(numTilings, floats, wrapWidths, ints)
	return s.collect(), nil
}

func (s *scratch) hashTiles(tiles []int, memory Memory) error {
	for j := range tiles {
		s.fixCoord(j)
		idx, err := memory.Resolve(s.coords)
		if err != nil {
			return fmt.Errorf("tiling %d: %w", j, err)
		}
		tiles[j] = idx
	}
	return nil
}

func (s *scratch) collect() [][]int {
	all := make([][]int, s.numTilings)
	for j := range all {
		s.fixCoord(j)
		all[j] = append([]int(nil), s.coords...)
	}
	return all
}

func validate(tiles []int, offset, numTilings int, memory Memory, floats []float64) error {
	if err := validateFloats(numTilings, floats); err != nil {
		return err
	}
	if memory == nil {
		return tileerrors.ErrNilMemory
	}
	if offset < 0 || offset > len(tiles) || numTilings > len(tiles)-offset {
		return fmt.Errorf("%w: %d tilings at offset %d in %d", tileerrors.ErrBufferTooSmall, numTilings, offset, len(tiles))
	}
	return nil
}

func validateFloats(numTilings int, floats []float64) error {
	if numTilings <= 0 {
		return fmt.Errorf("%w: got %d", tileerrors.ErrInvalidNumTilings, numTilings)
	}
	if len(floats) > MaxNumFloats {
		return fmt.Errorf("%w: %d exceeds %d", tileerrors.ErrTooManyFloats, len(floats), MaxNumFloats)
	}
	for i, f := range floats {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: floats[%d] = %v", tileerrors.ErrInvalidFloat, i, f)
		}
	}
	return nil
}

func validateWrapWidths(floats, wrapWidths []float64) error {
	if len(wrapWidths) != len(floats) {
		return fmt.Errorf("%w: %d widths for %d floats", tileerrors.ErrWrapWidthMismatch, len(wrapWidths), len(floats))
	}
	for i, w := range wrapWidths {
		// Only a whole width keeps f and f+w on the same displaced grid.
		if w < 0 || math.IsInf(w, 0) || w != math.Trunc(w) {
			return fmt.Errorf("%w: wrapWidths[%d] = %v", tileerrors.ErrInvalidWrapWidth, i, w)
		}
	}
	return nil
}
