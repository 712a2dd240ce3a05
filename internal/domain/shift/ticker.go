package shift

import (
	"context"
	"time"
)

// Ticker calls fn with the time elapsed since start once immediately and then
// on every interval until ctx is done. Elapsed is recomputed from clock on
// each tick, so a delayed or skipped tick never causes drift.
func Ticker(ctx context.Context, interval time.Duration, start time.Time, clock func() time.Time, fn func(time.Duration)) {
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	emit := func() {
		elapsed := clock().Sub(start)
		if elapsed < 0 {
			elapsed = 0
		}
		fn(elapsed)
	}

	if ctx.Err() != nil {
		return
	}
	emit()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit()
		}
	}
}
