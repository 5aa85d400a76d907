/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
)

// sharedBucketKey is the only key stored when all clients share one bucket.
const sharedBucketKey = ""

// LeakyBucketLimiter lets requests drain out of a bucket at a constant rate (GCRA).
// The bucket absorbs up to maxBurst requests on top of the one allowed by the rate.
type LeakyBucketLimiter struct {
	gcra   *throttled.GCRARateLimiterCtx
	shared bool
}

// NewLeakyBucketLimiter creates a new leaky bucket limiter.
// With maxKeys > 0, every key gets its own bucket and the least recently used buckets are dropped
// when there are more than maxKeys of them. Otherwise all keys share one bucket.
func NewLeakyBucketLimiter(maxRate Rate, maxBurst, maxKeys int) (*LeakyBucketLimiter, error) {
	storeSize := maxKeys
	if maxKeys == 0 {
		storeSize = 1
	}
	store, err := memstore.NewCtx(storeSize)
	if err != nil {
		return nil, fmt.Errorf("create store for rate limiting keys: %w", err)
	}
	gcra, err := throttled.NewGCRARateLimiterCtx(store, throttled.RateQuota{
		MaxRate:  throttled.PerDuration(maxRate.Count, maxRate.Duration),
		MaxBurst: maxBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("create GCRA limiter: %w", err)
	}
	return &LeakyBucketLimiter{gcra: gcra, shared: maxKeys == 0}, nil
}

// Allow puts one request for the key into its bucket.
// A rejected request may be retried after the returned duration.
func (l *LeakyBucketLimiter) Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	if l.shared {
		key = sharedBucketKey
	}
	limited, res, err := l.gcra.RateLimitCtx(ctx, key, 1)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit key %q: %w", key, err)
	}
	if !limited {
		return true, 0, nil
	}
	return false, res.RetryAfter, nil
}
