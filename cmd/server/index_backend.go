package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rovercraft.ai/internal/persistence/indexdb"
	"rovercraft.ai/internal/sim/tuning"
	"rovercraft.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	world.EventLogger
	Close() error
	RecordTuning(worldID string, tune tuning.Tuning) error
	Stats() indexdb.Stats
}

// openRuntimeIndex opens the read-model selected by RC_INDEX_BACKEND
// (sqlite by default). A nil index means indexing is off.
func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("RC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		idx, err := indexdb.OpenSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported RC_INDEX_BACKEND: %s", backend)
	}
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiEventLogger struct {
	a world.EventLogger
	b world.EventLogger
}

func (m multiEventLogger) WriteEvent(ev world.Event) error {
	if m.a != nil {
		_ = m.a.WriteEvent(ev)
	}
	if m.b != nil {
		_ = m.b.WriteEvent(ev)
	}
	return nil
}
