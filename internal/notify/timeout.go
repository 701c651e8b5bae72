package notify

import (
	"context"
	"time"
)

// requestTimeout bounds a provider call by the configured timeout and, when
// the context carries a deadline, by the time left until it. The Fiber agent
// takes no context, so cancellation without a deadline is only observed
// before the request is sent.
func requestTimeout(ctx context.Context, fallback time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback, nil
	}
	left := time.Until(deadline)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	if fallback <= 0 || left < fallback {
		return left, nil
	}
	return fallback, nil
}
