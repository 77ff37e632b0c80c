package main

import (
	"strings"
	"testing"

	persistlog "rovercraft.ai/internal/persistence/log"
	"rovercraft.ai/internal/sim/world"
)

type tamperingLogger struct {
	next   world.TickLogger
	atTick uint64
}

func (l tamperingLogger) WriteTick(e world.TickLogEntry) error {
	if e.Tick == l.atTick {
		e.Digest = strings.Repeat("0", 64)
	}
	return l.next.WriteTick(e)
}

func recordRun(t *testing.T, cfg world.Config, ticks int, wrap func(world.TickLogger) world.TickLogger) string {
	t.Helper()
	dir := t.TempDir()
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	logger := persistlog.NewTickLogger(dir)
	var sink world.TickLogger = logger
	if wrap != nil {
		sink = wrap(logger)
	}
	w.SetTickLogger(sink)
	for i := 0; i < ticks; i++ {
		w.Step(world.Input{Forward: i > 20, Right: i > 40 && i < 60, Boost: i > 70})
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return dir
}

func TestReplayMatchesRecordedRun(t *testing.T) {
	cfg := world.DefaultConfig()
	dir := recordRun(t, cfg, 100, nil)

	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	checked, err := replay(w, persistlog.TicksDir(dir), 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 100 || w.CurrentTick() != 100 {
		t.Fatalf("checked=%d tick=%d", checked, w.CurrentTick())
	}
}

func TestReplayStopsAtTick(t *testing.T) {
	cfg := world.DefaultConfig()
	dir := recordRun(t, cfg, 50, nil)

	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	checked, err := replay(w, persistlog.TicksDir(dir), 9)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 10 {
		t.Fatalf("checked=%d want 10", checked)
	}
}

func TestReplayDetectsDivergence(t *testing.T) {
	cfg := world.DefaultConfig()
	dir := recordRun(t, cfg, 30, func(next world.TickLogger) world.TickLogger {
		return tamperingLogger{next: next, atTick: 17}
	})

	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	_, err = replay(w, persistlog.TicksDir(dir), 0)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch at tick 17") {
		t.Fatalf("err=%v", err)
	}

	other := cfg
	other.Seed++
	w2, err := world.New(other)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	if _, err := replay(w2, persistlog.TicksDir(dir), 0); err == nil {
		t.Fatalf("replay with a different seed should diverge")
	}
}
