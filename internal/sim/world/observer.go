package world

import (
	"encoding/json"

	"rovercraft.ai/internal/observerproto"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

// ObserverJoinRequest registers a read-only observer session that receives:
// - chunk meshes and evictions (DataOut), in order
// - per-tick snapshots (TickOut), latest wins
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte
	DataOut   chan []byte
	Meshes    bool
}

type observerClient struct {
	id      string
	tickOut chan []byte
	dataOut chan []byte
	meshes  bool

	// Chunks whose mesh has been delivered.
	sent map[store.ChunkKey]bool
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string            { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if w == nil || req.SessionID == "" || req.TickOut == nil || req.DataOut == nil {
		return
	}
	if old := w.observers[req.SessionID]; old != nil {
		close(old.tickOut)
		close(old.dataOut)
	}
	w.observers[req.SessionID] = &observerClient{
		id:      req.SessionID,
		tickOut: req.TickOut,
		dataOut: req.DataOut,
		meshes:  req.Meshes,
		sent:    map[store.ChunkKey]bool{},
	}
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.tickOut)
	close(c.dataOut)
}

func (w *World) closeObservers() {
	for id := range w.observers {
		w.handleObserverLeave(id)
	}
}

func (w *World) publishObservers(tick uint64, digest string) {
	if len(w.observers) == 0 {
		return
	}
	chunks := w.terrain.Chunks()
	msg := w.snapshotMsg(tick, digest, chunks)
	b, err := json.Marshal(msg)
	if err != nil {
		w.log.Printf("observer snapshot: %v", err)
		return
	}
	for _, c := range w.observers {
		if c.meshes {
			w.syncObserverChunks(c, chunks)
		}
		sendLatest(c.tickOut, b)
	}
}

// syncObserverChunks sends meshes for chunks the observer has not seen and
// evictions for chunks that left the resident set. A full DataOut buffer
// defers the rest to a later tick.
func (w *World) syncObserverChunks(c *observerClient, chunks []*store.Chunk) {
	resident := make(map[store.ChunkKey]bool, len(chunks))
	for _, ch := range chunks {
		resident[ch.Key] = true
	}
	for k := range c.sent {
		if resident[k] {
			continue
		}
		b, _ := json.Marshal(observerproto.ChunkEvictMsg{
			Type:            observerproto.TypeChunkEvict,
			ProtocolVersion: observerproto.Version,
			CX:              k.CX,
			CZ:              k.CZ,
		})
		select {
		case c.dataOut <- b:
			delete(c.sent, k)
		default:
			return
		}
	}
	for _, ch := range chunks {
		if c.sent[ch.Key] {
			continue
		}
		b, err := json.Marshal(chunkMsg(ch))
		if err != nil {
			w.log.Printf("observer chunk %s: %v", ch.Key, err)
			continue
		}
		select {
		case c.dataOut <- b:
			c.sent[ch.Key] = true
		default:
			return
		}
	}
}

func (w *World) snapshotMsg(tick uint64, digest string, chunks []*store.Chunk) observerproto.SnapshotMsg {
	r := w.rover
	cam := w.camera.State()
	msg := observerproto.SnapshotMsg{
		Type:            observerproto.TypeSnapshot,
		ProtocolVersion: observerproto.Version,
		Tick:            tick,
		Digest:          digest,
		Rover: observerproto.RoverState{
			Pos:             vec3(r.Position),
			Vel:             vec3(r.Velocity),
			Rotation:        quat(r.Rotation),
			SurfaceRotation: quat(r.SurfaceRotation),
			Tilt:            r.Tilt,
			Turning:         r.Turning,
			Boost:           r.Boost,
			BoostRemaining:  r.BoostRemaining,
			Grounded:        r.Grounded(),
		},
		Camera: observerproto.CameraState{
			Pos:   vec3(cam.Position),
			Focal: vec3(cam.FocalPoint),
			Up:    vec3(cam.Up),
		},
		Score: observerproto.ScoreState{Value: w.score.Value, Captures: w.score.Captures},
	}
	for _, sp := range w.herd.Specimens() {
		msg.Specimens = append(msg.Specimens, observerproto.SpecimenState{
			ID:        sp.ID,
			Kind:      sp.Kind.String(),
			Pos:       vec3(sp.Position),
			Rotation:  quat(sp.SurfaceRotation.Mul(sp.Rotation)),
			Size:      sp.Size[0],
			Color:     sp.Color,
			Capturing: sp.Capturing,
		})
	}
	for _, ch := range chunks {
		msg.Chunks = append(msg.Chunks, [2]int{ch.Key.CX, ch.Key.CZ})
	}
	return msg
}

func chunkMsg(ch *store.Chunk) observerproto.ChunkMsg {
	m := ch.Mesh()
	msg := observerproto.ChunkMsg{
		Type:            observerproto.TypeChunk,
		ProtocolVersion: observerproto.Version,
		CX:              ch.Key.CX,
		CZ:              ch.Key.CZ,
		Center:          [2]float64{ch.CenterX, ch.CenterZ},
		Bounds:          [4]float64{ch.Bounds.Top, ch.Bounds.Right, ch.Bounds.Bottom, ch.Bounds.Left},
		Resolution:      m.Resolution,
		Positions:       toFloat32(m.Positions),
		Normals:         toFloat32(m.Normals),
		Indices:         m.Indices,
	}
	for _, o := range ch.Obstacles {
		msg.Obstacles = append(msg.Obstacles, observerproto.ObstacleState{Pos: vec3(o.Position), Radius: o.Radius})
	}
	return msg
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
