// Package errors defines the exported error sentinels shared by the tile coding packages.
//
// Every configuration failure wraps ErrConfiguration, so callers can test for the
// category with errors.Is and still match the specific cause when they care.
package errors

import (
	"errors"
	"fmt"
)

// Categories
var (
	// ErrConfiguration is reported when a table, memory or tiling call is set up with invalid parameters.
	ErrConfiguration = errors.New("tiles: configuration error")
	// ErrCapacityExhausted is reported when a checked collision table has no free or matching slot left.
	ErrCapacityExhausted = errors.New("tiles: collision table out of memory")
)

// Configuration causes
var (
	ErrNotPowerOfTwo     = fmt.Errorf("%w: size must be a power of two", ErrConfiguration)
	ErrTooManyFloats     = fmt.Errorf("%w: too many float variables", ErrConfiguration)
	ErrInvalidNumTilings = fmt.Errorf("%w: number of tilings must be positive", ErrConfiguration)
	ErrWrapWidthMismatch = fmt.Errorf("%w: wrap widths must parallel the floats", ErrConfiguration)
	ErrInvalidWrapWidth  = fmt.Errorf("%w: wrap width must be a non-negative integer", ErrConfiguration)
	ErrInvalidFloat      = fmt.Errorf("%w: float variable must be finite", ErrConfiguration)
	ErrBufferTooSmall    = fmt.Errorf("%w: tile buffer cannot hold the requested tilings", ErrConfiguration)
	ErrNilMemory         = fmt.Errorf("%w: memory is nil", ErrConfiguration)
	ErrUnknownSafety     = fmt.Errorf("%w: unknown safety", ErrConfiguration)
	ErrUnknownMemoryKind = fmt.Errorf("%w: unknown memory kind", ErrConfiguration)
)
