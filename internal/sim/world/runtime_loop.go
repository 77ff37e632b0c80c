package world

import (
	"context"
	"time"
)

// Run drives Step from a ticker until ctx is done or Stop is called. The most
// recent value received on Input() is held and applied to every tick.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.closeObservers()

	var held Input
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case in := <-w.input:
			held = in
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case <-ticker.C:
			w.Step(held)
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Input accepts key state for the Run loop.
func (w *World) Input() chan<- Input { return w.input }

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
