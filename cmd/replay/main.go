package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "rovercraft.ai/internal/persistence/log"
	"rovercraft.ai/internal/sim/tuning"
	"rovercraft.ai/internal/sim/world"
)

var errStop = errors.New("stop")

func main() {
	var (
		runDir     = flag.String("run", "", "run directory containing tuning.json and ticks/")
		tuningPath = flag.String("tuning", "", "tuning.yaml to use instead of <run>/tuning.json (optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *runDir == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	var (
		tune tuning.Tuning
		err  error
	)
	if tp := strings.TrimSpace(*tuningPath); tp != "" {
		tune, err = tuning.Load(tp)
	} else {
		tune, err = tuning.LoadJSON(filepath.Join(*runDir, "tuning.json"))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	w, err := world.New(tune.WorldConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	checked, err := replay(w, persistlog.TicksDir(*runDir), *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	snap := w.Snapshot()
	fmt.Printf("replay ok: world=%s seed=%d checked=%d ticks score=%d captures=%d chunks=%d\n",
		tune.ID, tune.Seed, checked, snap.Score, snap.Captures, len(snap.Chunks))
}

// replay steps w with every logged input and compares digests. Logs must
// start at the world's current tick.
func replay(w *world.World, ticksDir string, toTick uint64) (uint64, error) {
	var checked uint64
	err := persistlog.ReadTicks(ticksDir, func(entry world.TickLogEntry) error {
		if toTick != 0 && entry.Tick > toTick {
			return errStop
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), entry.Tick)
		}
		tick, gotDigest := w.Step(entry.Input)
		checked++
		if gotDigest != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
		}
		return nil
	})
	if errors.Is(err, errStop) {
		err = nil
	}
	return checked, err
}
