package world

import (
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/observerproto"
)

func drainData(t *testing.T, ch chan []byte) (chunks []observerproto.ChunkMsg, evicts []observerproto.ChunkEvictMsg) {
	t.Helper()
	for {
		select {
		case b := <-ch:
			var base struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(b, &base); err != nil {
				t.Fatalf("unmarshal data: %v", err)
			}
			switch base.Type {
			case observerproto.TypeChunk:
				var m observerproto.ChunkMsg
				if err := json.Unmarshal(b, &m); err != nil {
					t.Fatalf("unmarshal chunk: %v", err)
				}
				chunks = append(chunks, m)
			case observerproto.TypeChunkEvict:
				var m observerproto.ChunkEvictMsg
				if err := json.Unmarshal(b, &m); err != nil {
					t.Fatalf("unmarshal evict: %v", err)
				}
				evicts = append(evicts, m)
			default:
				t.Fatalf("unexpected data message type %q", base.Type)
			}
		default:
			return chunks, evicts
		}
	}
}

func TestObserverReceivesSnapshotAndMeshes(t *testing.T) {
	w, err := New(flatConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tickOut := make(chan []byte, 1)
	dataOut := make(chan []byte, 64)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "obs-1", TickOut: tickOut, DataOut: dataOut, Meshes: true})

	_, digest := w.Step(Input{})

	var snap observerproto.SnapshotMsg
	select {
	case b := <-tickOut:
		if err := json.Unmarshal(b, &snap); err != nil {
			t.Fatalf("unmarshal snapshot: %v", err)
		}
	default:
		t.Fatalf("no snapshot published")
	}
	if snap.Type != observerproto.TypeSnapshot || snap.Tick != 0 || snap.Digest != digest {
		t.Fatalf("snapshot=%+v", snap)
	}
	if !snap.Rover.Grounded || snap.Rover.Rotation != [4]float64{1, 0, 0, 0} {
		t.Fatalf("rover=%+v", snap.Rover)
	}

	chunks, evicts := drainData(t, dataOut)
	if len(evicts) != 0 {
		t.Fatalf("unexpected evictions: %+v", evicts)
	}
	if len(chunks) != len(snap.Chunks) || len(chunks) != w.Terrain().Len() {
		t.Fatalf("chunk messages=%d snapshot chunks=%d resident=%d", len(chunks), len(snap.Chunks), w.Terrain().Len())
	}
	for _, m := range chunks {
		if m.Resolution != 33 || len(m.Positions) != 33*33*3 || len(m.Indices) != 32*32*6 {
			t.Fatalf("chunk %d,%d geometry res=%d pos=%d idx=%d", m.CX, m.CZ, m.Resolution, len(m.Positions), len(m.Indices))
		}
	}

	// Meshes are delivered once.
	w.Step(Input{})
	if chunks, _ := drainData(t, dataOut); len(chunks) != 0 {
		t.Fatalf("resent %d chunks", len(chunks))
	}

	w.rover.Position = mgl64.Vec3{1000, 0, 0}
	w.Step(Input{})
	chunks, evicts = drainData(t, dataOut)
	if len(evicts) != len(snap.Chunks) {
		t.Fatalf("evictions=%d want %d", len(evicts), len(snap.Chunks))
	}
	if len(chunks) != w.Terrain().Len() {
		t.Fatalf("new chunks=%d resident=%d", len(chunks), w.Terrain().Len())
	}
}

func TestObserverWithoutMeshesGetsOnlySnapshots(t *testing.T) {
	w, err := New(flatConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tickOut := make(chan []byte, 1)
	dataOut := make(chan []byte, 8)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "obs-1", TickOut: tickOut, DataOut: dataOut})

	for i := 0; i < 3; i++ {
		w.Step(Input{})
	}
	// Latest wins.
	var snap observerproto.SnapshotMsg
	if err := json.Unmarshal(<-tickOut, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Tick != 2 {
		t.Fatalf("tick=%d want 2", snap.Tick)
	}
	if len(dataOut) != 0 {
		t.Fatalf("data messages=%d", len(dataOut))
	}

	w.handleObserverLeave("obs-1")
	if _, ok := <-tickOut; ok {
		t.Fatalf("tickOut not closed")
	}
	if _, ok := <-dataOut; ok {
		t.Fatalf("dataOut not closed")
	}
	w.Step(Input{})
}
