//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"rovercraft.ai/internal/sim/tuning"
	"rovercraft.ai/internal/sim/world"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		seed       = flag.Int64("seed", 0, "override the tuning seed")
		scale      = flag.Float64("scale", 4, "pixels per world unit")
		width      = flag.Int("w", 960, "window width")
		height     = flag.Int("h", 720, "window height")
		verbose    = flag.Bool("v", false, "log chunk creation and culling")
	)
	flag.Parse()

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			tune.Seed = *seed
		}
	})

	w, err := world.New(tune.WorldConfig())
	if err != nil {
		log.Fatalf("world: %v", err)
	}
	if *verbose {
		w.SetLogger(log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds))
	}

	game := newGame(w, tune.Noise.Amplitude, *scale, *width, *height)

	ebiten.SetWindowTitle("rovercraft: " + tune.ID)
	ebiten.SetTPS(tune.TickRateHz)
	ebiten.SetWindowSize(*width, *height)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
