package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"rovercraft.ai/internal/sim/tuning"
	"rovercraft.ai/internal/sim/world"
)

func openTemp(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index", "world.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return idx, path
}

func reopen(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteIndex_WritesTicksCapturesAndChunks(t *testing.T) {
	idx, path := openTemp(t)

	if err := idx.RecordTuning("MARS", tuning.Defaults()); err != nil {
		t.Fatalf("RecordTuning: %v", err)
	}
	ticks := []world.TickLogEntry{
		{Tick: 0, Digest: "d0"},
		{Tick: 1, Input: world.Input{Forward: true, Boost: true}, Digest: "d1"},
		{Tick: 2, Input: world.Input{Left: true}, Digest: "d2"},
	}
	for _, e := range ticks {
		if err := idx.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	events := []world.Event{
		{Tick: 0, Kind: world.EventChunkCreated, Chunk: "0,0", Obstacles: 3},
		{Tick: 0, Kind: world.EventChunkCreated, Chunk: "-1,2", Obstacles: 0},
		{Tick: 1, Kind: world.EventCapture, SpecimenID: 7, SpecimenKind: "LARGE", Value: 10, Pos: [3]float64{1, 2, 3}},
		{Tick: 1, Kind: world.EventDespawn, SpecimenID: 8},
		{Tick: 2, Kind: world.EventChunkEvicted, Chunk: "-1,2"},
	}
	for _, ev := range events {
		if err := idx.WriteEvent(ev); err != nil {
			t.Fatalf("WriteEvent: %v", err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	_ = idx.WriteTick(world.TickLogEntry{Tick: 3})

	db := reopen(t, path)

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&n); err != nil || n != 3 {
		t.Fatalf("ticks=%d err=%v", n, err)
	}
	var digest string
	var fwd, boost, left int
	if err := db.QueryRow(`SELECT digest,key_forward,key_boost,key_left FROM ticks WHERE tick=1`).Scan(&digest, &fwd, &boost, &left); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if digest != "d1" || fwd != 1 || boost != 1 || left != 0 {
		t.Fatalf("tick 1: digest=%s fwd=%d boost=%d left=%d", digest, fwd, boost, left)
	}

	var kind string
	var value int
	var x, y, z float64
	if err := db.QueryRow(`SELECT kind,value,x,y,z FROM captures WHERE specimen_id=7`).Scan(&kind, &value, &x, &y, &z); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if kind != "LARGE" || value != 10 || x != 1 || y != 2 || z != 3 {
		t.Fatalf("capture row: %s %d (%v,%v,%v)", kind, value, x, y, z)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM captures`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("captures=%d err=%v", n, err)
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE evicted_tick IS NULL`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("resident chunks=%d err=%v", n, err)
	}
	var evicted sql.NullInt64
	if err := db.QueryRow(`SELECT evicted_tick FROM chunks WHERE cx=-1 AND cz=2`).Scan(&evicted); err != nil {
		t.Fatalf("evicted chunk: %v", err)
	}
	if !evicted.Valid || evicted.Int64 != 2 {
		t.Fatalf("evicted_tick=%v", evicted)
	}
	var obstacles int
	if err := db.QueryRow(`SELECT obstacles FROM chunks WHERE cx=0 AND cz=0`).Scan(&obstacles); err != nil || obstacles != 3 {
		t.Fatalf("obstacles=%d err=%v", obstacles, err)
	}

	var seed, version string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key='seed'`).Scan(&seed); err != nil || seed != "1337" {
		t.Fatalf("seed=%q err=%v", seed, err)
	}
	if err := db.QueryRow(`SELECT value FROM meta WHERE key='schema_version'`).Scan(&version); err != nil || version != schemaVersion {
		t.Fatalf("schema_version=%q err=%v", version, err)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick, tick: world.TickLogEntry{Tick: 1}}

	_ = s.WriteTick(world.TickLogEntry{Tick: 2})
	_ = s.WriteEvent(world.Event{Kind: world.EventCapture})
	_ = s.WriteEvent(world.Event{Kind: world.EventLanded})

	st := s.Stats()
	if st.DropTickTotal != 1 {
		t.Fatalf("DropTickTotal=%d want=1", st.DropTickTotal)
	}
	if st.DropEventTotal != 1 {
		t.Fatalf("DropEventTotal=%d want=1", st.DropEventTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestParseChunkKey(t *testing.T) {
	cx, cz, err := parseChunkKey("-3,12")
	if err != nil || cx != -3 || cz != 12 {
		t.Fatalf("got %d,%d err=%v", cx, cz, err)
	}
	if _, _, err := parseChunkKey("nope"); err == nil {
		t.Fatalf("expected error")
	}
}
