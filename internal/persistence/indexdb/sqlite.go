// Package indexdb keeps a queryable SQLite read-model of a session: ticks,
// captures and the chunk lifecycle. The JSONL logs remain the source of truth.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"rovercraft.ai/internal/sim/tuning"
	"rovercraft.ai/internal/sim/world"
)

const schemaVersion = "1"

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick  atomic.Uint64
	dropEvent atomic.Uint64
}

type Stats struct {
	QueueDepth     int
	QueueCapacity  int
	DropTickTotal  uint64
	DropEventTotal uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEvent
)

type req struct {
	kind reqKind

	tick  world.TickLogEntry
	event world.Event
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			key_forward INTEGER NOT NULL,
			key_back INTEGER NOT NULL,
			key_left INTEGER NOT NULL,
			key_right INTEGER NOT NULL,
			key_boost INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS captures (
			specimen_id INTEGER PRIMARY KEY,
			tick INTEGER NOT NULL,
			kind TEXT NOT NULL,
			value INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_captures_tick ON captures(tick);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			cx INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			created_tick INTEGER NOT NULL,
			evicted_tick INTEGER,
			obstacles INTEGER NOT NULL,
			PRIMARY KEY (cx, cz, created_tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_resident ON chunks(cx, cz, evicted_tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropTickTotal:  s.dropTick.Load(),
		DropEventTotal: s.dropEvent.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropTick.Add(1)
	}
	return nil
}

// WriteEvent indexes captures and chunk lifecycle events; other kinds are
// ignored.
func (s *SQLiteIndex) WriteEvent(ev world.Event) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	switch ev.Kind {
	case world.EventCapture, world.EventChunkCreated, world.EventChunkEvicted:
	default:
		return nil
	}
	select {
	case s.ch <- req{kind: reqEvent, event: ev}:
	default:
		s.dropEvent.Add(1)
	}
	return nil
}

// RecordTuning stores the applied tuning and its digest in meta.
func (s *SQLiteIndex) RecordTuning(worldID string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, kv := range [][2]string{
		{"schema_version", schemaVersion},
		{"world_id", worldID},
		{"seed", strconv.FormatInt(tune.Seed, 10)},
		{"tuning", string(b)},
		{"tuning_digest", hex.EncodeToString(sum[:])},
		{"recorded_at", time.Now().UTC().Format(time.RFC3339Nano)},
	} {
		if _, err := stmt.Exec(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,key_forward,key_back,key_left,key_right,key_boost) VALUES(?,?,?,?,?,?,?)`)
	insertCapture, _ := s.db.Prepare(`INSERT OR REPLACE INTO captures(specimen_id,tick,kind,value,x,y,z) VALUES(?,?,?,?,?,?,?)`)
	insertChunk, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunks(cx,cz,created_tick,evicted_tick,obstacles) VALUES(?,?,?,NULL,?)`)
	evictChunk, _ := s.db.Prepare(`UPDATE chunks SET evicted_tick=? WHERE cx=? AND cz=? AND evicted_tick IS NULL`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertCapture, insertChunk, evictChunk} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			in := r.tick.Input
			exec(insertTick, int64(r.tick.Tick), r.tick.Digest,
				boolInt(in.Forward), boolInt(in.Back), boolInt(in.Left), boolInt(in.Right), boolInt(in.Boost))

		case reqEvent:
			ev := r.event
			switch ev.Kind {
			case world.EventCapture:
				exec(insertCapture, int64(ev.SpecimenID), int64(ev.Tick), ev.SpecimenKind, ev.Value, ev.Pos[0], ev.Pos[1], ev.Pos[2])
			case world.EventChunkCreated, world.EventChunkEvicted:
				cx, cz, err := parseChunkKey(ev.Chunk)
				if err != nil {
					continue
				}
				if ev.Kind == world.EventChunkCreated {
					exec(insertChunk, cx, cz, int64(ev.Tick), ev.Obstacles)
				} else {
					exec(evictChunk, int64(ev.Tick), cx, cz)
				}
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

func parseChunkKey(s string) (cx, cz int, err error) {
	if _, err := fmt.Sscanf(s, "%d,%d", &cx, &cz); err != nil {
		return 0, 0, fmt.Errorf("chunk key %q: %w", s, err)
	}
	return cx, cz, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
