// Package clock provides helpers for time-related operations.
package clock

import (
	"context"
	"time"
)

// SleepWithContext waits for the duration or returns early if the context is canceled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	return SleepOrSignal(ctx, d, nil)
}

// SleepOrSignal waits for the duration, a value on signal, or context cancellation,
// whichever comes first. A nil signal channel never fires.
func SleepOrSignal(ctx context.Context, d time.Duration, signal <-chan struct{}) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-signal:
		return nil
	case <-timer.C:
		return nil
	}
}
