package collision

import (
	"fmt"
	"strings"

	tileerrors "tilecoder/errors"
)

// Safety selects how a Table handles two tiles hashing to the same slot.
type Safety int

const (
	// Unsafe counts collisions but lets the tiles share the slot.
	Unsafe Safety = iota
	// Safe keeps a second hash per slot as a check and rehashes on mismatch.
	// Two tiles agreeing on both hashes are still (rarely) taken as a hit.
	Safe
	// SuperSafe keeps the whole coordinate vector per slot. More memory, exact.
	SuperSafe
)

func (s Safety) String() string {
	switch s {
	case Unsafe:
		return "unsafe"
	case Safe:
		return "safe"
	case SuperSafe:
		return "super safe"
	default:
		return fmt.Sprintf("Safety(%d)", int(s))
	}
}

// ParseSafety accepts "unsafe", "safe", "super safe" and "supersafe", ignoring case.
func ParseSafety(name string) (Safety, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "unsafe":
		return Unsafe, nil
	case "safe":
		return Safe, nil
	case "super safe", "supersafe", "super_safe", "super-safe":
		return SuperSafe, nil
	}
	return Safe, fmt.Errorf("%w: %q", tileerrors.ErrUnknownSafety, name)
}

func (s Safety) valid() bool {
	return s == Unsafe || s == Safe || s == SuperSafe
}
