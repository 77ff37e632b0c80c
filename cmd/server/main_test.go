package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rovercraft.ai/internal/persistence/indexdb"
	"rovercraft.ai/internal/sim/world"
)

type countingSink struct {
	ticks  int
	events int
}

func (c *countingSink) WriteTick(world.TickLogEntry) error { c.ticks++; return nil }
func (c *countingSink) WriteEvent(world.Event) error       { c.events++; return nil }

func TestMultiLoggersFanOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	_ = multiTickLogger{a: a, b: b}.WriteTick(world.TickLogEntry{})
	_ = multiEventLogger{a: a, b: b}.WriteEvent(world.Event{})
	_ = multiTickLogger{a: a}.WriteTick(world.TickLogEntry{})
	if a.ticks != 2 || b.ticks != 1 || a.events != 1 || b.events != 1 {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
}

func TestOpenRuntimeIndexBackends(t *testing.T) {
	dir := t.TempDir()

	if idx, err := openRuntimeIndex(dir, true); err != nil || idx != nil {
		t.Fatalf("disabled: idx=%v err=%v", idx, err)
	}

	t.Setenv("RC_INDEX_BACKEND", "none")
	if idx, err := openRuntimeIndex(dir, false); err != nil || idx != nil {
		t.Fatalf("none: idx=%v err=%v", idx, err)
	}

	t.Setenv("RC_INDEX_BACKEND", "postgres")
	if _, err := openRuntimeIndex(dir, false); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}

	t.Setenv("RC_INDEX_BACKEND", "")
	idx, err := openRuntimeIndex(dir, false)
	if err != nil || idx == nil {
		t.Fatalf("sqlite: idx=%v err=%v", idx, err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index", "world.sqlite")); err != nil {
		t.Fatalf("sqlite file: %v", err)
	}
}

func TestWriteMetrics(t *testing.T) {
	var buf bytes.Buffer
	m := world.WorldMetrics{Tick: 42, LoadedChunks: 9, Specimens: 30, Score: 11, Captures: 2}
	writeMetrics(&buf, "MARS", m, &indexdb.Stats{DropTickTotal: 3}, 1)
	out := buf.String()
	for _, want := range []string{
		`rovercraft_world_tick{world="MARS"} 42`,
		`rovercraft_world_loaded_chunks{world="MARS"} 9`,
		`rovercraft_world_specimens{world="MARS"} 30`,
		`rovercraft_world_score{world="MARS"} 11`,
		`rovercraft_world_captures{world="MARS"} 2`,
		`rovercraft_index_drop_total{world="MARS",kind="tick"} 3`,
		`rovercraft_observer_inputs_dropped_total{world="MARS"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	writeMetrics(&buf, "MARS", m, nil, 0)
	if strings.Contains(buf.String(), "rovercraft_index_") {
		t.Fatalf("index metrics written without an index")
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	if !isLoopbackRemote("127.0.0.1:1") || isLoopbackRemote("8.8.8.8:53") {
		t.Fatalf("loopback detection wrong")
	}
}
