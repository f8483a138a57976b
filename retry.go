package toolbelt

import (
	"context"
	"encoding/json"
	"time"
)

const (
	retryBase         = 100 * time.Millisecond
	defaultMaxTimeout = 60 * time.Second
	defaultMaxBackoff = 10 * time.Second
)

// backoffDelay returns the pause after failed attempt n (1-indexed):
// min(retryBase * 2^(n-1), maxBackoff).
func backoffDelay(attempt int, maxBackoff time.Duration) time.Duration {
	if attempt > 30 {
		return maxBackoff
	}
	d := retryBase << (attempt - 1)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// runWithRetry drives the bounded retry loop around one target invocation.
// The first attempt runs immediately; each failure schedules the next attempt
// after an exponentially growing delay. The loop keeps no global deadline:
// before sleeping it checks whether elapsed time plus the upcoming delay would
// cross maxTimeout and, if so, stops with a RetryError wrapping the last
// failure. An attempt already in flight is never cut short.
func runWithRetry(ctx context.Context, maxTimeout, maxBackoff time.Duration, invoke func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	start := time.Now()
	for attempt := 1; ; attempt++ {
		res, err := invoke(ctx)
		if err == nil {
			return res, nil
		}
		delay := backoffDelay(attempt, maxBackoff)
		elapsed := time.Since(start)
		if elapsed+delay > maxTimeout {
			return nil, &RetryError{Attempts: attempt, Elapsed: elapsed, Err: err}
		}
		if serr := sleepCtx(ctx, delay); serr != nil {
			return nil, serr
		}
	}
}

// sleepCtx sleeps for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
