// Package log writes zstd-compressed JSONL streams split into tick-range
// segments and reads them back.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"rovercraft.ai/internal/sim/world"
)

const fileSuffix = ".jsonl.zst"

// DefaultSegmentTicks is one hour of ticks at 60 Hz.
const DefaultSegmentTicks = 60 * 60 * 60

// JSONLZstdWriter appends JSON lines to zstd files split by tick range. A
// segment file is named after the first tick it covers, zero padded, so
// lexical order is tick order.
type JSONLZstdWriter struct {
	baseDir      string
	prefix       string
	segmentTicks uint64

	mu      sync.Mutex
	segment uint64
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewJSONLZstdWriter writes under baseDir. segmentTicks 0 means
// DefaultSegmentTicks.
func NewJSONLZstdWriter(baseDir, prefix string, segmentTicks uint64) *JSONLZstdWriter {
	if segmentTicks == 0 {
		segmentTicks = DefaultSegmentTicks
	}
	return &JSONLZstdWriter{
		baseDir:      baseDir,
		prefix:       prefix,
		segmentTicks: segmentTicks,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Write appends v, recorded at tick, as one JSON line of the tick's segment.
// Lines are flushed through the encoder buffer; the zstd frame is completed
// when the segment changes or on Close.
func (w *JSONLZstdWriter) Write(tick uint64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if seg := tick / w.segmentTicks; w.w == nil || seg != w.segment {
		if err := w.openLocked(seg); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) openLocked(seg uint64) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	path := w.segmentPath(seg)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	w.f, w.enc = f, enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.segment = seg
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	if w.w == nil {
		return nil
	}
	flushErr := w.w.Flush()
	encErr := w.enc.Close()
	fileErr := w.f.Close()
	w.f, w.enc, w.w = nil, nil, nil
	return errors.Join(flushErr, encErr, fileErr)
}

func (w *JSONLZstdWriter) segmentPath(seg uint64) string {
	name := fmt.Sprintf("%s-%012d%s", w.prefix, seg*w.segmentTicks, fileSuffix)
	return filepath.Join(w.baseDir, name)
}

// Files lists the segment files for prefix in dir in tick order.
func Files(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ScanFile calls fn for every line of a compressed JSONL file. Concatenated
// frames from appended sessions are read in order.
func ScanFile(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// TickLogger writes one JSONL entry per tick (compressed).
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(runDir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(TicksDir(runDir), "ticks", 0)}
}

func TicksDir(runDir string) string { return filepath.Join(runDir, "ticks") }

func (l *TickLogger) WriteTick(v world.TickLogEntry) error { return l.w.Write(v.Tick, v) }
func (l *TickLogger) Close() error                         { return l.w.Close() }

// ReadTicks streams the tick entries found under dir in file order.
func ReadTicks(dir string, fn func(world.TickLogEntry) error) error {
	files, err := Files(dir, "ticks")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no tick logs in %s", dir)
	}
	for _, path := range files {
		err := ScanFile(path, func(line []byte) error {
			var entry world.TickLogEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return fmt.Errorf("unmarshal: %w", err)
			}
			return fn(entry)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// EventLogger writes world events (compressed).
type EventLogger struct{ w *JSONLZstdWriter }

func NewEventLogger(runDir string) *EventLogger {
	return &EventLogger{w: NewJSONLZstdWriter(filepath.Join(runDir, "events"), "events", 0)}
}

func (l *EventLogger) WriteEvent(ev world.Event) error { return l.w.Write(ev.Tick, ev) }
func (l *EventLogger) Close() error                    { return l.w.Close() }
