package effects

import (
	"context"
	"fmt"
	"time"
)

const (
	// FrameRef is the ref of the animation frame counter.
	FrameRef = "extern.frame"
	// ClockRef is the ref of the wall clock source.
	ClockRef = "extern.time"
)

// Frame returns the animation frame counter. It starts at 1 and adds one per
// tick; with fps > 0 it ticks on its own at that rate.
func Frame(fps int) Source {
	src := Source{
		Name:    FrameRef,
		Initial: func() any { return 1 },
		Advance: func(current any) any { return current.(int) + 1 },
	}
	if fps > 0 {
		src.Schedule = every(time.Second / time.Duration(fps))
	}
	return src
}

// Clock returns a source holding the seconds elapsed since it was
// registered, read from now. With interval > 0 it refreshes on its own.
func Clock(now func() time.Time, interval time.Duration) Source {
	if now == nil {
		now = time.Now
	}
	var start time.Time
	src := Source{
		Name: ClockRef,
		Initial: func() any {
			start = now()
			return 0.0
		},
		Advance: func(any) any { return now().Sub(start).Seconds() },
	}
	if interval > 0 {
		src.Schedule = every(interval)
	}
	return src
}

// every schedules a tick on a time.Ticker until ctx is done.
func every(d time.Duration) func(ctx context.Context, tick func()) error {
	return func(ctx context.Context, tick func()) error {
		if d <= 0 {
			return fmt.Errorf("invalid tick interval %s", d)
		}
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				tick()
			}
		}
	}
}
