package collision

import (
	"errors"
	"sync"
	"testing"

	tileerrors "tilecoder/errors"
	"tilecoder/hashing"

	. "github.com/smartystreets/goconvey/convey"
)

// collidingVectors returns count single-coordinate vectors sharing a primary slot in a
// table of the given size, each with a distinct check value.
func collidingVectors(rt *hashing.RandomTable, size, count int) [][]int {
	target := rt.UNH([]int{0}, 1, size, hashing.IndexIncrement)
	checks := map[int]struct{}{}
	vectors := [][]int{}
	for k := 0; k < hashing.RandomTableSize && len(vectors) < count; k++ {
		coords := []int{k}
		if rt.UNH(coords, 1, size, hashing.IndexIncrement) != target {
			continue
		}
		check := rt.UNH(coords, 1, hashing.MaxLongInt, hashing.CheckIncrement)
		if _, seen := checks[check]; seen {
			continue
		}
		checks[check] = struct{}{}
		vectors = append(vectors, coords)
	}
	return vectors
}

func TestNew(t *testing.T) {
	Convey("When constructing a collision table", t, func() {
		Convey("Every power of two size succeeds", func() {
			for k := 0; k <= 16; k++ {
				table, err := New(1 << k)
				So(err, ShouldBeNil)
				So(table.Size(), ShouldEqual, 1<<k)
				So(table.Usage(), ShouldEqual, 0)
			}
		})

		Convey("Any other size is a configuration error", func() {
			for _, size := range []int{0, -8, 3, 5, 6, 7, 100, 2047, 3000} {
				table, err := New(size)
				So(table, ShouldBeNil)
				So(errors.Is(err, tileerrors.ErrNotPowerOfTwo), ShouldBeTrue)
				So(errors.Is(err, tileerrors.ErrConfiguration), ShouldBeTrue)
			}
		})

		Convey("The default safety is safe", func() {
			table, err := New(DefaultSize)
			So(err, ShouldBeNil)
			So(table.Safety(), ShouldEqual, Safe)
		})

		Convey("An unknown safety is rejected", func() {
			_, err := New(8, WithSafety(Safety(9)))
			So(errors.Is(err, tileerrors.ErrUnknownSafety), ShouldBeTrue)
		})
	})
}

func TestParseSafety(t *testing.T) {
	Convey("When parsing safety names", t, func() {
		for name, want := range map[string]Safety{
			"unsafe":     Unsafe,
			"safe":       Safe,
			"super safe": SuperSafe,
			"supersafe":  SuperSafe,
			" Safe ":     Safe,
		} {
			got, err := ParseSafety(name)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := ParseSafety("paranoid")
		So(errors.Is(err, tileerrors.ErrConfiguration), ShouldBeTrue)
	})
}

func TestResolve(t *testing.T) {
	rt := hashing.NewSeededRandomTable(1234)

	Convey("When resolving against a safe table", t, func() {
		table, err := New(1024, WithRandomTable(rt))
		So(err, ShouldBeNil)

		Convey("The first resolve occupies the primary slot", func() {
			coords := []int{3, 1, 4, 1, 5}
			j, err := table.Resolve(coords)
			So(err, ShouldBeNil)
			So(j, ShouldEqual, rt.UNH(coords, len(coords), 1024, hashing.IndexIncrement))
			So(table.Stats(), ShouldResemble, Stats{Calls: 1, ClearHits: 1, Collisions: 0, Usage: 1})

			Convey("Resolving it again returns the same slot as a clear hit", func() {
				again, err := table.Resolve(coords)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, j)
				So(table.Stats(), ShouldResemble, Stats{Calls: 2, ClearHits: 2, Collisions: 0, Usage: 1})
			})
		})

		Convey("Indices always fall within the table", func() {
			for a := -20; a < 20; a++ {
				for b := 0; b < 10; b++ {
					j, err := table.Resolve([]int{a, b, a * b})
					So(err, ShouldBeNil)
					So(j, ShouldBeBetweenOrEqual, 0, 1023)
				}
			}
		})

		Convey("Reset empties the table and zeroes the counters", func() {
			_, _ = table.Resolve([]int{1})
			_, _ = table.Resolve([]int{2})
			table.Reset()
			So(table.Stats(), ShouldResemble, Stats{})
			So(table.Size(), ShouldEqual, 1024)
			So(table.Safety(), ShouldEqual, Safe)
		})
	})

	Convey("When distinct vectors share a primary slot", t, func() {
		size := 8
		vectors := collidingVectors(rt, size, size+1)
		So(len(vectors), ShouldEqual, size+1)

		Convey("A safe table gives each its own slot until it is full", func() {
			table, _ := New(size, WithRandomTable(rt))
			indices := map[int]int{}
			for i, coords := range vectors[:size] {
				j, err := table.Resolve(coords)
				So(err, ShouldBeNil)
				So(j, ShouldBeBetweenOrEqual, 0, size-1)
				_, taken := indices[j]
				So(taken, ShouldBeFalse)
				indices[j] = i
				So(table.Usage(), ShouldEqual, i+1)
			}
			So(table.Stats().Collisions, ShouldBeGreaterThan, 0)

			Convey("Re-resolving finds the same slots", func() {
				for j, i := range indices {
					again, err := table.Resolve(vectors[i])
					So(err, ShouldBeNil)
					So(again, ShouldEqual, j)
				}
			})

			Convey("The next distinct vector exhausts the table", func() {
				j, err := table.Resolve(vectors[size])
				So(errors.Is(err, tileerrors.ErrCapacityExhausted), ShouldBeTrue)
				So(j, ShouldBeLessThan, 0)
				So(table.Usage(), ShouldEqual, size)
			})
		})

		Convey("A vector that probed into its slot probes again on every lookup", func() {
			table, _ := New(size, WithRandomTable(rt))
			home, _ := table.Resolve(vectors[0])
			moved, err := table.Resolve(vectors[1])
			So(err, ShouldBeNil)
			So(moved, ShouldNotEqual, home)
			So(table.Stats(), ShouldResemble, Stats{Calls: 2, ClearHits: 1, Collisions: 1, Usage: 2})

			// The lookup retraces the probe past the home slot; only the home vector is a clear hit.
			again, err := table.Resolve(vectors[1])
			So(err, ShouldBeNil)
			So(again, ShouldEqual, moved)
			So(table.Stats(), ShouldResemble, Stats{Calls: 3, ClearHits: 1, Collisions: 2, Usage: 2})

			again, _ = table.Resolve(vectors[0])
			So(again, ShouldEqual, home)
			So(table.Stats(), ShouldResemble, Stats{Calls: 4, ClearHits: 2, Collisions: 2, Usage: 2})
		})

		Convey("A super safe table behaves the same", func() {
			table, _ := New(size, WithRandomTable(rt), WithSafety(SuperSafe))
			seen := map[int]struct{}{}
			for _, coords := range vectors[:size] {
				j, err := table.Resolve(coords)
				So(err, ShouldBeNil)
				seen[j] = struct{}{}
			}
			So(len(seen), ShouldEqual, size)
			_, err := table.Resolve(vectors[size])
			So(errors.Is(err, tileerrors.ErrCapacityExhausted), ShouldBeTrue)
		})

		Convey("An unsafe table lets them alias and counts the collisions", func() {
			table, _ := New(size, WithRandomTable(rt), WithSafety(Unsafe))
			first, err := table.Resolve(vectors[0])
			So(err, ShouldBeNil)
			for _, coords := range vectors[1:] {
				j, err := table.Resolve(coords)
				So(err, ShouldBeNil)
				So(j, ShouldEqual, first)
			}
			So(table.Stats(), ShouldResemble, Stats{
				Calls:      size + 1,
				ClearHits:  1,
				Collisions: size,
				Usage:      1,
			})
		})
	})

	Convey("When a super safe table sees vectors agreeing on both hashes", t, func() {
		// Coordinates a full random table apart hash identically under every increment.
		a := []int{5, 9}
		b := []int{5, 9 + hashing.RandomTableSize}

		table, _ := New(64, WithRandomTable(rt), WithSafety(SuperSafe))
		ja, err := table.Resolve(a)
		So(err, ShouldBeNil)
		jb, err := table.Resolve(b)
		So(err, ShouldBeNil)
		So(jb, ShouldNotEqual, ja)
		So(table.Usage(), ShouldEqual, 2)

		Convey("A safe table cannot tell them apart", func() {
			safe, _ := New(64, WithRandomTable(rt))
			ja, _ := safe.Resolve(a)
			jb, _ := safe.Resolve(b)
			So(jb, ShouldEqual, ja)
			So(safe.Stats().ClearHits, ShouldEqual, 2)
		})
	})
}

func TestConcurrentResolve(t *testing.T) {
	Convey("When many goroutines resolve overlapping vectors", t, func() {
		numWorkers := 16
		numKeys := 500
		table, _ := New(1024, WithSafety(SuperSafe))

		results := make([][]int, numWorkers)
		wg := sync.WaitGroup{}
		wg.Add(numWorkers)
		for w := 0; w < numWorkers; w++ {
			go func(w int) {
				defer wg.Done()
				results[w] = make([]int, numKeys)
				for k := 0; k < numKeys; k++ {
					// Each worker walks the keys in a different order.
					key := (k + w*31) % numKeys
					j, err := table.Resolve([]int{key, key / 7})
					if err != nil {
						j = -1
					}
					results[w][key] = j
				}
			}(w)
		}
		wg.Wait()

		Convey("Every worker sees the same slot per vector, and vectors never share", func() {
			owners := map[int]int{}
			for key := 0; key < numKeys; key++ {
				j := results[0][key]
				So(j, ShouldBeGreaterThanOrEqualTo, 0)
				for w := 1; w < numWorkers; w++ {
					So(results[w][key], ShouldEqual, j)
				}
				_, taken := owners[j]
				So(taken, ShouldBeFalse)
				owners[j] = key
			}
			stats := table.Stats()
			So(stats.Usage, ShouldEqual, numKeys)
			So(stats.Calls, ShouldEqual, numKeys*numWorkers)
			So(stats.ClearHits+stats.Collisions, ShouldBeGreaterThanOrEqualTo, stats.Calls)
		})
	})
}
