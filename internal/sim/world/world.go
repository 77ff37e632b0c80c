package world

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"rovercraft.ai/internal/sim/world/feature/camera"
	"rovercraft.ai/internal/sim/world/feature/herd"
	"rovercraft.ai/internal/sim/world/feature/rover"
	"rovercraft.ai/internal/sim/world/terrain/noise"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

// Input is the key state applied to one tick.
type Input = rover.Input

// World is a single-threaded simulation session.
// All state must be accessed only from the goroutine driving Step or Run.
type World struct {
	cfg Config

	tick atomic.Uint64

	terrain *store.Store
	rover   *rover.State
	physics *rover.Physics
	score   *herd.Score
	herd    *herd.Behavior
	camera  *camera.Rig

	events []Event

	input         chan Input
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	stop          chan struct{}

	observers map[string]*observerClient

	metrics atomic.Value

	// Optional sinks (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	eventLogger EventLogger

	log *log.Logger
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type EventLogger interface {
	WriteEvent(ev Event) error
}

type TickLogEntry struct {
	Tick   uint64 `json:"tick"`
	Input  Input  `json:"input"`
	Digest string `json:"digest"`
}

func New(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()

	prim, err := noise.NewPrimitive(cfg.Primitive, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	field, err := noise.NewField(cfg.Noise, prim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	terrain, err := store.New(cfg.Terrain, field, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	w := &World{
		cfg:           cfg,
		terrain:       terrain,
		score:         &herd.Score{},
		input:         make(chan Input, 64),
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerLeave: make(chan string, 16),
		stop:          make(chan struct{}),
		observers:     map[string]*observerClient{},
		log:           log.New(io.Discard, "", 0),
	}
	st := rover.NewState(cfg.RoverStart, cfg.Rover)
	w.rover = &st
	if w.physics, err = rover.NewPhysics(cfg.Rover, terrain, w.rover); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if w.herd, err = herd.NewBehavior(cfg.Herd, terrain, w.rover, w.score, cfg.Seed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if w.camera, err = camera.NewRig(cfg.Camera, terrain, w.rover); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	w.wireHooks()
	return w, nil
}

func (w *World) wireHooks() {
	w.terrain.OnCreate = func(ch *store.Chunk) {
		w.log.Printf("creating chunk %s at (%.0f,%.0f)", ch.Key, ch.CenterX, ch.CenterZ)
		w.emit(Event{Kind: EventChunkCreated, Chunk: ch.Key.String(), Pos: [3]float64{ch.CenterX, 0, ch.CenterZ}, Obstacles: len(ch.Obstacles)})
	}
	w.terrain.OnEvict = func(ch *store.Chunk) {
		w.log.Printf("culling chunk %s at (%.0f,%.0f)", ch.Key, ch.CenterX, ch.CenterZ)
		w.emit(Event{Kind: EventChunkEvicted, Chunk: ch.Key.String(), Pos: [3]float64{ch.CenterX, 0, ch.CenterZ}})
	}
	w.herd.OnCapture = func(sp *herd.Specimen) {
		w.log.Printf("captured specimen %d (%s) for %d", sp.ID, sp.Kind, sp.Value)
		w.emit(Event{Kind: EventCapture, SpecimenID: sp.ID, SpecimenKind: sp.Kind.String(), Value: sp.Value, Pos: vec3(sp.Position)})
	}
	w.herd.OnDespawn = func(sp *herd.Specimen) {
		w.emit(Event{Kind: EventDespawn, SpecimenID: sp.ID, SpecimenKind: sp.Kind.String(), Pos: vec3(sp.Position)})
	}
}

// SetLogger replaces the world logger. Pass nil to silence it.
func (w *World) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	w.log = l
}

func (w *World) SetTickLogger(l TickLogger)   { w.tickLogger = l }
func (w *World) SetEventLogger(l EventLogger) { w.eventLogger = l }

func (w *World) Config() Config {
	if w == nil {
		return Config{}
	}
	return w.cfg
}

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Terrain exposes the surface query contract. Callers must stay on the world
// goroutine.
func (w *World) Terrain() *store.Store { return w.terrain }

// SpawnHerd places a herd around center outside of the automatic population
// cycle.
func (w *World) SpawnHerd(x, z float64, size int) int {
	center := w.rover.Position
	center[0], center[2] = x, z
	return len(w.herd.SpawnHerd(center, size))
}
