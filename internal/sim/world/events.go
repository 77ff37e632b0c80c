package world

import "github.com/go-gl/mathgl/mgl64"

const (
	EventChunkCreated = "CHUNK_CREATED"
	EventChunkEvicted = "CHUNK_EVICTED"
	EventCapture      = "CAPTURE"
	EventDespawn      = "DESPAWN"
	EventCollision    = "COLLISION"
	EventLanded       = "LANDED"
)

type Event struct {
	Tick         uint64     `json:"tick"`
	Kind         string     `json:"kind"`
	Pos          [3]float64 `json:"pos"`
	Chunk        string     `json:"chunk,omitempty"`
	Obstacles    int        `json:"obstacles,omitempty"`
	SpecimenID   uint64     `json:"specimen_id,omitempty"`
	SpecimenKind string     `json:"specimen_kind,omitempty"`
	Value        int        `json:"value,omitempty"`
}

func (w *World) emit(ev Event) {
	ev.Tick = w.tick.Load()
	w.events = append(w.events, ev)
}

// Events returns the events raised by the most recent Step.
func (w *World) Events() []Event {
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}

func vec3(v mgl64.Vec3) [3]float64 { return [3]float64{v[0], v[1], v[2]} }

func quat(q mgl64.Quat) [4]float64 { return [4]float64{q.W, q.V[0], q.V[1], q.V[2]} }
