package utils

import (
	"context"
	"time"
)

// WaitUntil polls cond every interval until it reports true, the timeout
// elapses, or ctx is done. It returns whether the condition was met. A cond
// error is treated as "not yet"; only ctx cancellation is returned as an error.
//
// A non-positive timeout checks cond exactly once.
func WaitUntil(ctx context.Context, interval, timeout time.Duration, cond func(ctx context.Context) (bool, error)) (bool, error) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if ok, err := cond(ctx); err == nil && ok {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		wait := interval
		if remaining < wait {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}
