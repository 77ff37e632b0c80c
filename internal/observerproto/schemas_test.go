package observerproto_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"rovercraft.ai/internal/observerproto"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", "observer", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, msg any) {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate %s: %v", b, err)
	}
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate(t, compile(t, "subscribe.schema.json"), observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		Meshes:          true,
	})
	validate(t, compile(t, "input.schema.json"), observerproto.InputMsg{
		Type:            observerproto.TypeInput,
		ProtocolVersion: observerproto.Version,
		Forward:         true,
		Boost:           true,
	})
	validate(t, compile(t, "bootstrap.schema.json"), observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		WorldID:         "MARS",
		Tick:            42,
		WorldParams: observerproto.WorldParams{
			TickRateHz:   60,
			Seed:         1337,
			Primitive:    "simplex",
			ChunkSize:    32,
			Subdivisions: 32,
			NearRadius:   32,
			FarRadius:    128,
		},
	})

	snap := compile(t, "snapshot.schema.json")
	validate(t, snap, observerproto.SnapshotMsg{
		Type:            observerproto.TypeSnapshot,
		ProtocolVersion: observerproto.Version,
		Tick:            7,
		Digest:          "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		Rover: observerproto.RoverState{
			Pos:             [3]float64{1, 2, 3},
			Rotation:        [4]float64{1, 0, 0, 0},
			SurfaceRotation: [4]float64{1, 0, 0, 0},
			Tilt:            -0.1,
			Turning:         1,
			BoostRemaining:  85,
			Grounded:        true,
		},
		Camera: observerproto.CameraState{Up: [3]float64{0, 1, 0}},
		Specimens: []observerproto.SpecimenState{
			{ID: 1, Kind: "SMALL", Size: 1, Rotation: [4]float64{1, 0, 0, 0}, Color: [4]float64{0, 0, 1, 1}},
			{ID: 2, Kind: "LARGE", Size: 0.5, Capturing: true, Color: [4]float64{1, 0, 0, 1}},
		},
		Score:  observerproto.ScoreState{Value: 10, Captures: 1},
		Chunks: [][2]int{{0, 0}, {-1, 2}},
	})

	bad := observerproto.SnapshotMsg{Type: observerproto.TypeSnapshot, ProtocolVersion: observerproto.Version, Digest: "nope"}
	b, _ := json.Marshal(bad)
	var v any
	_ = json.Unmarshal(b, &v)
	if err := snap.Validate(v); err == nil {
		t.Fatalf("expected malformed digest to fail validation")
	}

	chunk := compile(t, "chunk.schema.json")
	validate(t, chunk, observerproto.ChunkMsg{
		Type:            observerproto.TypeChunk,
		ProtocolVersion: observerproto.Version,
		CX:              1,
		CZ:              -1,
		Center:          [2]float64{32, -32},
		Bounds:          [4]float64{-48, 48, -16, 16},
		Resolution:      2,
		Positions:       []float32{16, 0, -48, 48, 0, -48, 16, 0, -16, 48, 0, -16},
		Normals:         []float32{0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0},
		Indices:         []uint32{0, 3, 1, 0, 2, 3},
		Obstacles:       []observerproto.ObstacleState{{Pos: [3]float64{20, 1, -40}, Radius: 1.5}},
	})
	validate(t, chunk, observerproto.ChunkEvictMsg{
		Type:            observerproto.TypeChunkEvict,
		ProtocolVersion: observerproto.Version,
		CX:              3,
		CZ:              4,
	})
}
