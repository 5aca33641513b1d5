package scheduler

import (
	"context"

	"github.com/cbegin/tabplay-go/internal/pitch"
)

// Grid plays bars on the sink transport. A bar always spans one whole
// note and its distinct positions divide it evenly.
type Grid struct {
	performer
}

func NewGrid(sink Sink, cfg Config) *Grid {
	return &Grid{performer: newPerformer(sink, cfg)}
}

func (g *Grid) PlayBar(ctx context.Context, bar Bar) error {
	tr := g.sink.Transport()
	if tr.State() == TransportStarted {
		tr.Stop()
		tr.Cancel()
	}
	tr.Reset()
	if err := g.resume(ctx); err != nil {
		return err
	}
	total := pitch.DurationToTime("1/1", bar.Tempo)
	slots := groupSlots(bar.Notes)
	step := total / float64(max(len(slots), 1))
	gate := step * g.timings.GateRatio

	for i, s := range slots {
		for _, n := range s.notes {
			if _, ok := Resolve(n, bar.Instrument); !ok {
				continue
			}
			tr.Schedule(float64(i)*step, func(now float64) {
				g.trigger(n, bar.Instrument, now, gate)
			})
		}
	}
	done := make(chan struct{})
	tr.Schedule(total, func(float64) {
		tr.Stop()
		tr.Cancel()
		close(done)
	})
	tr.Start()

	if err := Await(ctx, g.sink, done); err != nil {
		tr.Stop()
		tr.Cancel()
		return err
	}
	return nil
}
