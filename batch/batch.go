package batch

/*
Batch encodes many states against one coder. Coordinate generation keeps its scratch
on each call's stack and both kinds of memory tolerate concurrent use, so workers
need no coordination beyond splitting the input: Encode stripes a slice of states
over workers writing disjoint windows of one output buffer, and Stream fans a
channel of states out to workers and merges their results back into one channel.
*/

import (
	"context"
	"fmt"

	"tilecoder/tiling"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

// State is one input to encode: its float and integer variables.
type State struct {
	Floats []float64
	Ints   []int
}

// Result is one encoded state. Seq is the state's position in its input stream.
type Result struct {
	Seq   int
	State State
	Tiles []int
	Err   error
}

// Encode returns the tiles of every state, NumTilings() per state, in input order:
// state i occupies tiles[i*n:(i+1)*n]. The first failing state cancels the rest.
func Encode(
	ctx context.Context,
	coder *tiling.Coder,
	states []State,
	nworkers int,
) ([]int, error) {
	if nworkers < 1 {
		nworkers = 1
	}
	n := coder.NumTilings()
	tiles := make([]int, len(states)*n)

	group, groupCtx := errgroup.WithContext(ctx)
	for w := 0; w < nworkers; w++ {
		w := w
		group.Go(func() error {
			for i := w; i < len(states); i += nworkers {
				// done-guard
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}
				if err := coder.EncodeInto(tiles, i*n, states[i].Floats, states[i].Ints...); err != nil {
					return fmt.Errorf("state %d: %w", i, err)
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return tiles, nil
}

type sequenced struct {
	seq   int
	state State
}

// Stream encodes states as they arrive until the input closes or ctx is done.
// Results come back in completion order; use Seq to restore input order. A failing
// state is reported in its Result and does not stop the stream.
func Stream(
	ctx context.Context,
	coder *tiling.Coder,
	states <-chan State,
	nworkers int,
) <-chan Result {
	if nworkers < 1 {
		nworkers = 1
	}
	done := ctx.Done()

	// Number the states before fanning out so results can be ordered.
	numbered := make(chan sequenced)
	go func() {
		defer close(numbered)
		seq := 0
		for state := range channerics.OrDone(done, states) {
			select {
			case numbered <- sequenced{seq: seq, state: state}:
			case <-done:
				return
			}
			seq++
		}
	}()

	worker := func() <-chan Result {
		results := make(chan Result)
		go func() {
			defer close(results)
			for item := range numbered {
				tiles, err := coder.Encode(item.state.Floats, item.state.Ints...)
				select {
				case results <- Result{Seq: item.seq, State: item.state, Tiles: tiles, Err: err}:
				case <-done:
					return
				}
			}
		}()
		return results
	}

	workers := []<-chan Result{}
	for i := 0; i < nworkers; i++ {
		workers = append(workers, worker())
	}
	return channerics.Merge(done, workers...)
}
