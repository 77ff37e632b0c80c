package main

import (
	"fmt"
	"io"

	"rovercraft.ai/internal/persistence/indexdb"
	"rovercraft.ai/internal/sim/world"
)

// writeMetrics renders a minimal Prometheus exposition.
func writeMetrics(out io.Writer, worldID string, m world.WorldMetrics, idx *indexdb.Stats, inputsDropped uint64) {
	gauge := func(name, help string) {
		fmt.Fprintf(out, "# HELP %s %s\n", name, help)
		fmt.Fprintf(out, "# TYPE %s gauge\n", name)
	}

	gauge("rovercraft_world_tick", "Current world tick.")
	fmt.Fprintf(out, "rovercraft_world_tick{world=%q} %d\n", worldID, m.Tick)

	gauge("rovercraft_world_loaded_chunks", "Resident chunk count.")
	fmt.Fprintf(out, "rovercraft_world_loaded_chunks{world=%q} %d\n", worldID, m.LoadedChunks)

	gauge("rovercraft_world_specimens", "Live specimen count.")
	fmt.Fprintf(out, "rovercraft_world_specimens{world=%q} %d\n", worldID, m.Specimens)

	gauge("rovercraft_world_observers", "Connected observers.")
	fmt.Fprintf(out, "rovercraft_world_observers{world=%q} %d\n", worldID, m.Observers)

	gauge("rovercraft_world_score", "Session score.")
	fmt.Fprintf(out, "rovercraft_world_score{world=%q} %d\n", worldID, m.Score)

	gauge("rovercraft_world_captures", "Specimens captured this session.")
	fmt.Fprintf(out, "rovercraft_world_captures{world=%q} %d\n", worldID, m.Captures)

	gauge("rovercraft_rover_speed", "Rover speed in units per tick.")
	fmt.Fprintf(out, "rovercraft_rover_speed{world=%q} %.6f\n", worldID, m.RoverSpeed)

	gauge("rovercraft_world_queue_depth", "Channel backlog depth.")
	fmt.Fprintf(out, "rovercraft_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "input", m.QueueDepths.Input)
	fmt.Fprintf(out, "rovercraft_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "join", m.QueueDepths.Join)
	fmt.Fprintf(out, "rovercraft_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "leave", m.QueueDepths.Leave)

	gauge("rovercraft_world_step_ms", "Last tick step duration in milliseconds.")
	fmt.Fprintf(out, "rovercraft_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(out, "# HELP rovercraft_observer_inputs_dropped_total INPUT messages dropped under load.\n")
	fmt.Fprintf(out, "# TYPE rovercraft_observer_inputs_dropped_total counter\n")
	fmt.Fprintf(out, "rovercraft_observer_inputs_dropped_total{world=%q} %d\n", worldID, inputsDropped)

	if idx == nil {
		return
	}
	fmt.Fprintf(out, "# HELP rovercraft_index_drop_total Index writes dropped because the writer fell behind.\n")
	fmt.Fprintf(out, "# TYPE rovercraft_index_drop_total counter\n")
	fmt.Fprintf(out, "rovercraft_index_drop_total{world=%q,kind=%q} %d\n", worldID, "tick", idx.DropTickTotal)
	fmt.Fprintf(out, "rovercraft_index_drop_total{world=%q,kind=%q} %d\n", worldID, "event", idx.DropEventTotal)
	gauge("rovercraft_index_queue_depth", "Index writer backlog.")
	fmt.Fprintf(out, "rovercraft_index_queue_depth{world=%q} %d\n", worldID, idx.QueueDepth)
}
