/*
Tilecoder maps continuous and discrete state variables onto sparse, overlapping tiles
hashed into a bounded index space, for use as features by a learning algorithm. This
command is a driver for tuning a tiling: it loads a config, encodes a random sample
of states from the configured input ranges with a few workers, and reports how the
memory held up (usage and collisions for a collision table). A table that comes
close to full, or runs out outright, wants a larger size or fewer tilings.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"runtime"

	"tilecoder/batch"
	"tilecoder/collision"
	"tilecoder/config"
)

var (
	configPath = flag.String("config", "./config.yaml", "path to the tiling config")
	nworkers   = flag.Int("nworkers", runtime.NumCPU(), "number of worker encoding routines")
	dbg        = flag.Bool("debug", false, "print the tiles of the first few states")
)

// sampleStates draws n states uniformly from the configured input ranges.
func sampleStates(cfg *config.TilingConfig, n int) []batch.State {
	rng := rand.New(rand.NewSource(cfg.Seed))
	states := make([]batch.State, n)
	for i := range states {
		floats := make([]float64, len(cfg.Inputs))
		for k, in := range cfg.Inputs {
			floats[k] = in.Min + rng.Float64()*(in.Max-in.Min)
		}
		states[i] = batch.State{Floats: floats}
	}
	return states
}

func runApp() (err error) {
	var cfg *config.TilingConfig
	if cfg, err = config.FromYaml(*configPath); err != nil {
		return
	}

	appCtx, appCancel := context.WithCancel(context.TODO())
	defer appCancel()

	runCtx, runCancel, err := cfg.WithDeadline(appCtx)
	if err != nil {
		return
	}
	defer runCancel()

	coder, err := cfg.NewCoder()
	if err != nil {
		return
	}

	states := sampleStates(cfg, cfg.Samples)
	tiles, err := batch.Encode(runCtx, coder, states, *nworkers)

	// Report the memory even if encoding failed; an exhausted table is the interesting case.
	if table, ok := coder.Memory().(*collision.Table); ok {
		fmt.Println(table)
		stats := table.Stats()
		fmt.Printf("load %.2f%%, %d states x %d tilings\n",
			100*float64(stats.Usage)/float64(table.Size()), len(states), coder.NumTilings())
	} else {
		fmt.Printf("raw memory, %d states x %d tilings\n", len(states), coder.NumTilings())
	}
	if err != nil {
		return
	}

	if *dbg {
		n := coder.NumTilings()
		for i := 0; i < len(states) && i < 5; i++ {
			fmt.Printf("%v -> %v\n", states[i].Floats, tiles[i*n:(i+1)*n])
		}
	}
	return
}

func main() {
	flag.Parse()
	if err := runApp(); err != nil {
		fmt.Println(err)
	}
}
