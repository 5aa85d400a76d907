/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Rate describes the frequency of requests.
type Rate struct {
	Count    int
	Duration time.Duration
}

// Limiter interface defines the rate limiting contract.
type Limiter interface {
	Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error)
}

// Alg represents a rate-limiting algorithm.
type Alg int

// Supported rate-limiting algorithms.
const (
	AlgLeakyBucket Alg = iota
	AlgSlidingWindow
)

// ParseAlg parses the algorithm name as it's written in configuration.
func ParseAlg(s string) (Alg, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "leaky_bucket":
		return AlgLeakyBucket, nil
	case "sliding_window":
		return AlgSlidingWindow, nil
	}
	return 0, fmt.Errorf("unknown rate limit algorithm %q, should be one of [leaky_bucket, sliding_window]", s)
}

// String returns the algorithm name.
func (a Alg) String() string {
	if a == AlgSlidingWindow {
		return "sliding_window"
	}
	return "leaky_bucket"
}

// NewLimiter creates a limiter implementing the given algorithm.
// If maxKeys is zero, one limit is shared by all keys. maxBurst is used only by the leaky bucket.
func NewLimiter(alg Alg, maxRate Rate, maxBurst, maxKeys int) (Limiter, error) {
	if maxRate.Count <= 0 || maxRate.Duration <= 0 {
		return nil, fmt.Errorf("rate should be positive, got %d per %s", maxRate.Count, maxRate.Duration)
	}
	if maxBurst < 0 || maxKeys < 0 {
		return nil, fmt.Errorf("max burst and max keys should not be negative")
	}
	switch alg {
	case AlgLeakyBucket:
		return NewLeakyBucketLimiter(maxRate, maxBurst, maxKeys)
	case AlgSlidingWindow:
		return NewSlidingWindowLimiter(maxRate, maxKeys)
	}
	return nil, fmt.Errorf("unknown rate limit algorithm %d", alg)
}
