package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/terrain/noise"
)

type memTickLog struct{ entries []TickLogEntry }

func (m *memTickLog) WriteTick(e TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

type memEventLog struct{ events []Event }

func (m *memEventLog) WriteEvent(ev Event) error {
	m.events = append(m.events, ev)
	return nil
}

func flatConfig() Config {
	cfg := DefaultConfig()
	cfg.Primitive = noise.PrimitiveFlat
	cfg.Terrain.MaxObstacles = 0
	cfg.Herd.MaxSpecimens = 0
	cfg.RoverStart = mgl64.Vec3{0, 0, 0}
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"tick rate":  func(c *Config) { c.TickRateHz = 0 },
		"octaves":    func(c *Config) { c.Noise.Octaves = 0 },
		"chunk size": func(c *Config) { c.Terrain.ChunkSize = -32 },
		"mass":       func(c *Config) { c.Rover.Mass = 0 },
		"visibility": func(c *Config) { c.Visibility.FarRadius = 1 },
		"primitive":  func(c *Config) { c.Primitive = "bogus" },
		"herd decay": func(c *Config) { c.Herd.CaptureDecay = 2 },
	}
	for name, mut := range cases {
		cfg := DefaultConfig()
		mut(&cfg)
		w, err := New(cfg)
		if err == nil || w != nil {
			t.Fatalf("%s: expected error", name)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: error %v does not wrap ErrInvalidConfig", name, err)
		}
	}
}

func TestStepWritesLogsAndChunkEvents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Herd.MaxSpecimens = 0
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ticks := &memTickLog{}
	events := &memEventLog{}
	w.SetTickLogger(ticks)
	w.SetEventLogger(events)

	in := Input{Forward: true}
	tick, digest := w.Step(in)
	if tick != 0 || len(digest) != 64 {
		t.Fatalf("tick=%d digest=%q", tick, digest)
	}
	if len(ticks.entries) != 1 || ticks.entries[0].Digest != digest || ticks.entries[0].Input != in {
		t.Fatalf("tick log=%+v", ticks.entries)
	}
	created := 0
	for _, ev := range events.events {
		if ev.Kind == EventChunkCreated {
			created++
		}
	}
	if created == 0 || created != w.Terrain().Len() {
		t.Fatalf("created events=%d resident=%d", created, w.Terrain().Len())
	}

	w.Step(in)
	for _, ev := range w.Events() {
		if ev.Kind == EventChunkCreated {
			t.Fatalf("unexpected chunk creation on the second tick: %+v", ev)
		}
	}
}

func TestSpecimensStayOnResidentTerrain(t *testing.T) {
	w, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 300; i++ {
		w.Step(Input{})
	}
	snap := w.Snapshot()
	if len(snap.Specimens) == 0 {
		t.Fatalf("no specimens after population")
	}
	for _, sp := range snap.Specimens {
		if sp.Capturing {
			continue
		}
		hs, ok := w.Terrain().Sample(sp.Position[0], sp.Position[2])
		if !ok {
			t.Fatalf("specimen %d at %v has no resident terrain", sp.ID, sp.Position)
		}
		if d := sp.Position[1] - hs.Height; d > 1e-9 || d < -1e-9 {
			t.Fatalf("specimen %d y=%v want surface %v", sp.ID, sp.Position[1], hs.Height)
		}
	}
}

func TestCaptureRaisesSingleEvent(t *testing.T) {
	w, err := New(flatConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Step(Input{})
	if n := w.SpawnHerd(20, 0, 5); n != 5 {
		t.Fatalf("spawned %d", n)
	}
	w.Step(Input{})

	specimens := w.herd.Specimens()
	var target int = -1
	for i, sp := range specimens {
		clear := true
		for j, other := range specimens {
			if i != j && other.Position.Sub(sp.Position).Len() < 3 {
				clear = false
			}
		}
		if clear {
			target = i
			break
		}
	}
	if target < 0 {
		t.Fatalf("no isolated specimen")
	}
	sp := specimens[target]
	w.rover.Position = sp.Position
	w.rover.Velocity = mgl64.Vec3{}

	captures := 0
	for i := 0; i < 30; i++ {
		w.Step(Input{})
		for _, ev := range w.Events() {
			if ev.Kind == EventCapture {
				captures++
				if ev.SpecimenID != sp.ID || ev.Value != sp.Value {
					t.Fatalf("capture event %+v for specimen %d", ev, sp.ID)
				}
			}
		}
	}
	if captures != 1 {
		t.Fatalf("captures=%d want 1", captures)
	}
	snap := w.Snapshot()
	if snap.Score != sp.Value || snap.Captures != 1 {
		t.Fatalf("score=%d captures=%d", snap.Score, snap.Captures)
	}
	for _, s := range snap.Specimens {
		if s.ID == sp.ID {
			t.Fatalf("captured specimen still present after decay")
		}
	}
}

func TestSnapshotExposesState(t *testing.T) {
	w, err := New(flatConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Step(Input{})
	snap := w.Snapshot()
	if snap.Tick != 1 {
		t.Fatalf("tick=%d", snap.Tick)
	}
	if !snap.Rover.Grounded || snap.Rover.BoostRemaining != 100 {
		t.Fatalf("rover=%+v", snap.Rover)
	}
	if len(snap.Chunks) == 0 {
		t.Fatalf("no resident chunks")
	}
	for i, ch := range snap.Chunks {
		if ch.Mesh.Resolution != 33 {
			t.Fatalf("chunk %v resolution %d", ch.Key, ch.Mesh.Resolution)
		}
		if i > 0 {
			p := snap.Chunks[i-1].Key
			if p.CX > ch.Key.CX || (p.CX == ch.Key.CX && p.CZ >= ch.Key.CZ) {
				t.Fatalf("chunks not ordered: %v then %v", p, ch.Key)
			}
		}
	}
	if !snap.Camera.Position.ApproxEqualThreshold(mgl64.Vec3{0, 2, 7}, 1e-6) {
		t.Fatalf("camera=%v", snap.Camera.Position)
	}
}

func TestRunStepsUntilCanceled(t *testing.T) {
	cfg := flatConfig()
	cfg.TickRateHz = 200
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	w.Input() <- Input{Forward: true}
	deadline := time.After(5 * time.Second)
	for w.CurrentTick() < 10 {
		select {
		case <-deadline:
			t.Fatalf("world did not advance")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return")
	}
}

func TestMetricsPublishedAfterStep(t *testing.T) {
	w, err := New(flatConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m := w.Metrics(); m.Tick != 0 || m.LoadedChunks != 0 {
		t.Fatalf("metrics before step=%+v", m)
	}
	w.Step(Input{})
	m := w.Metrics()
	if m.Tick != 1 || m.LoadedChunks != w.Terrain().Len() || !m.RoverGrounded || m.StepMS < 0 {
		t.Fatalf("metrics=%+v", m)
	}
}
