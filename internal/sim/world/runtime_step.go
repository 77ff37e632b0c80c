package world

import "time"

// Step advances the world by a single tick: rover, then herd, then camera.
// It returns the tick that was simulated and the state digest after it.
func (w *World) Step(in Input) (tick uint64, digest string) {
	started := time.Now()
	tick = w.tick.Load()
	w.events = w.events[:0]
	dt := 1 / float64(w.cfg.TickRateHz)

	contact := w.physics.Simulate(dt, in)
	if contact.Collisions > 0 {
		w.emit(Event{Kind: EventCollision, Pos: vec3(w.rover.Position), Value: contact.Collisions})
	}
	if contact.Landed {
		w.emit(Event{Kind: EventLanded, Pos: vec3(w.rover.Position)})
	}
	w.herd.Simulate(dt)
	w.camera.Simulate(dt)

	digest = w.stateDigest(tick)

	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(TickLogEntry{Tick: tick, Input: in, Digest: digest}); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}
	if w.eventLogger != nil {
		for _, ev := range w.events {
			if err := w.eventLogger.WriteEvent(ev); err != nil {
				w.log.Printf("event log: %v", err)
				break
			}
		}
	}
	w.publishObservers(tick, digest)

	w.tick.Add(1)
	w.storeMetrics(tick+1, started)
	return tick, digest
}
