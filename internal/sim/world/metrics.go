package world

import "time"

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	LoadedChunks int `json:"loaded_chunks"`
	Specimens    int `json:"specimens"`
	Observers    int `json:"observers"`
	Score        int `json:"score"`
	Captures     int `json:"captures"`

	RoverSpeed    float64 `json:"rover_speed"`
	RoverGrounded bool    `json:"rover_grounded"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Input int `json:"input"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) storeMetrics(tick uint64, started time.Time) {
	w.metrics.Store(WorldMetrics{
		Tick:          tick,
		LoadedChunks:  w.terrain.Len(),
		Specimens:     w.herd.Len(),
		Observers:     len(w.observers),
		Score:         w.score.Value,
		Captures:      w.score.Captures,
		RoverSpeed:    w.rover.Speed(),
		RoverGrounded: w.rover.Grounded(),
		QueueDepths: QueueDepths{
			Input: len(w.input),
			Join:  len(w.observerJoin),
			Leave: len(w.observerLeave),
		},
		StepMS: float64(time.Since(started).Microseconds()) / 1000,
	})
}
