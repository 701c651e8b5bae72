package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrRateLimited = errors.New("too many requests")

// Limiter throttles challenge requests per channel and recipient: a cooldown
// between consecutive requests, a cap per window, and a block of three windows
// once the cap is exceeded.
type Limiter struct {
	rdb         *redis.Client
	prefix      string
	cooldown    time.Duration
	window      time.Duration
	maxInWindow int64
}

func NewLimiter(rdb *redis.Client, cooldown, window time.Duration, maxInWindow int) *Limiter {
	return &Limiter{
		rdb:         rdb,
		prefix:      "otp_rate",
		cooldown:    cooldown,
		window:      window,
		maxInWindow: int64(maxInWindow),
	}
}

// Allow records a request. It returns an error wrapping ErrRateLimited when
// the caller must wait, or a plain error when Redis is unreachable.
func (l *Limiter) Allow(ctx context.Context, ch models.Channel, recipient string) error {
	blockKey := l.key("block", ch, recipient)
	lastKey := l.key("last", ch, recipient)
	countKey := l.key("count", ch, recipient)

	ttl, err := l.rdb.TTL(ctx, blockKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read block key: %w", err)
	}
	if ttl > 0 {
		return fmt.Errorf("%w: blocked for %d seconds", ErrRateLimited, int(ttl.Seconds()))
	}

	ttl, err = l.rdb.TTL(ctx, lastKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read cooldown key: %w", err)
	}
	if ttl > 0 {
		return fmt.Errorf("%w: wait %d seconds", ErrRateLimited, int(ttl.Seconds()))
	}

	count, err := l.rdb.Incr(ctx, countKey).Result()
	if err != nil {
		return fmt.Errorf("failed to count request: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, countKey, l.window).Err(); err != nil {
			return fmt.Errorf("failed to expire counter: %w", err)
		}
	}

	if count > l.maxInWindow {
		block := l.window * 3
		if err := l.rdb.Set(ctx, blockKey, "1", block).Err(); err != nil {
			return fmt.Errorf("failed to set block key: %w", err)
		}
		return fmt.Errorf("%w: blocked for %d seconds", ErrRateLimited, int(block.Seconds()))
	}

	if err := l.rdb.Set(ctx, lastKey, "1", l.cooldown).Err(); err != nil {
		return fmt.Errorf("failed to set cooldown key: %w", err)
	}
	return nil
}

func (l *Limiter) key(kind string, ch models.Channel, recipient string) string {
	return fmt.Sprintf("%s:%s:%s:%s", l.prefix, kind, ch, recipient)
}
