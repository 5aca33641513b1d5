package scheduler

import (
	"context"

	"github.com/cbegin/tabplay-go/internal/pitch"
)

// Direct plays bars against the sink clock without the transport. Slots
// are spaced by a fraction of the block's note value from the moment the
// bar is requested.
type Direct struct {
	performer
}

func NewDirect(sink Sink, cfg Config) *Direct {
	return &Direct{performer: newPerformer(sink, cfg)}
}

func (d *Direct) PlayBar(ctx context.Context, bar Bar) error {
	if err := d.resume(ctx); err != nil {
		return err
	}
	if len(bar.Notes) == 0 {
		return nil
	}
	spacing := pitch.DurationToTime(bar.Duration, bar.Tempo) * d.timings.DirectSpacing
	start := d.sink.Now()
	offset := 0.0
	for _, s := range groupSlots(bar.Notes) {
		for _, n := range s.notes {
			d.trigger(n, bar.Instrument, start+offset, spacing)
		}
		offset += spacing
	}
	return d.wait(ctx, start+offset+d.timings.DirectTail)
}
