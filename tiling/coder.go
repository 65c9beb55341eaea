package tiling

import (
	"fmt"

	tileerrors "tilecoder/errors"
)

// Coder fixes the tiling parameters shared by every state of a problem, so callers
// encoding many states don't repeat them. A Coder holds no per-call state; it is as
// safe for concurrent use as its Memory.
type Coder struct {
	numTilings int
	memory     Memory
	wrapWidths []float64
}

// NewCoder validates the parameters once. wrapWidths may be nil for a plain tiling;
// otherwise every encoded state must have exactly len(wrapWidths) floats.
func NewCoder(numTilings int, memory Memory, wrapWidths []float64) (*Coder, error) {
	if err := validateFloats(numTilings, nil); err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, tileerrors.ErrNilMemory
	}
	if len(wrapWidths) > MaxNumFloats {
		return nil, fmt.Errorf("%w: %d wrap widths", tileerrors.ErrTooManyFloats, len(wrapWidths))
	}
	// widths parallel themselves; this only checks their values
	if err := validateWrapWidths(wrapWidths, wrapWidths); err != nil {
		return nil, err
	}
	var widths []float64
	if wrapWidths != nil {
		widths = append([]float64{}, wrapWidths...)
	}
	return &Coder{
		numTilings: numTilings,
		memory:     memory,
		wrapWidths: widths,
	}, nil
}

// NumTilings is the number of indices produced per state.
func (c *Coder) NumTilings() int { return c.numTilings }

// Memory returns the memory the coder hashes into.
func (c *Coder) Memory() Memory { return c.memory }

// Encode returns the tile indices of one state.
func (c *Coder) Encode(floats []float64, ints ...int) ([]int, error) {
	tiles := make([]int, c.numTilings)
	if err := c.EncodeInto(tiles, 0, floats, ints...); err != nil {
		return nil, err
	}
	return tiles, nil
}

// EncodeInto writes the tile indices of one state into tiles[offset:offset+NumTilings()].
func (c *Coder) EncodeInto(tiles []int, offset int, floats []float64, ints ...int) error {
	if c.wrapWidths == nil {
		return GenerateInto(tiles, offset, c.numTilings, c.memory, floats, ints...)
	}
	return GenerateWrapInto(tiles, offset, c.numTilings, c.memory, floats, c.wrapWidths, ints...)
}
