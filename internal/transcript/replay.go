package transcript

import (
	"context"
	"time"

	"github.com/qslice/pipedeck/internal/domain"
)

// Replay feeds recorded events to fn, sleeping out the original
// inter-arrival gaps scaled by speed (2.0 plays twice as fast). Gaps
// are capped so a transcript spanning a long idle demo doesn't stall
// the replay.
func Replay(ctx context.Context, events []domain.PipelineEvent, speed float64, fn func(domain.PipelineEvent)) error {
	if speed <= 0 {
		speed = 1
	}
	const maxGap = 3 * time.Second

	var prev int64
	for i, ev := range events {
		if i > 0 && ev.Timestamp > prev {
			gap := time.Duration(float64(ev.Timestamp-prev)/speed) * time.Millisecond
			if gap > maxGap {
				gap = maxGap
			}
			t := time.NewTimer(gap)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
		prev = ev.Timestamp
		fn(ev)
	}
	return nil
}
