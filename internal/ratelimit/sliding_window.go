/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/RussellLuo/slidingwindow"

	"github.com/pdffacil/pdfgate/lrucache"
)

// SlidingWindowLimiter counts requests in the current and the previous fixed windows
// and weights the previous one by the part of it that still overlaps the sliding window.
type SlidingWindowLimiter struct {
	maxRate Rate
	limiter func(key string) *slidingwindow.Limiter
}

// NewSlidingWindowLimiter creates a new sliding window limiter.
// With maxKeys > 0, every key gets its own window and the least recently used keys are dropped
// when there are more than maxKeys of them. Otherwise all keys share one window.
func NewSlidingWindowLimiter(maxRate Rate, maxKeys int) (*SlidingWindowLimiter, error) {
	newWindow := func() *slidingwindow.Limiter {
		lim, _ := slidingwindow.NewLimiter(maxRate.Duration, int64(maxRate.Count),
			func() (slidingwindow.Window, slidingwindow.StopFunc) { return slidingwindow.NewLocalWindow() })
		return lim
	}

	l := &SlidingWindowLimiter{maxRate: maxRate}
	if maxKeys == 0 {
		shared := newWindow()
		l.limiter = func(string) *slidingwindow.Limiter { return shared }
		return l, nil
	}

	windows, err := lrucache.New[string, *slidingwindow.Limiter](maxKeys, nil)
	if err != nil {
		return nil, fmt.Errorf("create store for rate limiting keys: %w", err)
	}
	l.limiter = func(key string) *slidingwindow.Limiter {
		lim, _ := windows.GetOrAdd(key, newWindow)
		return lim
	}
	return l, nil
}

// Allow consumes one request for the key. Rejected requests may be retried when the current fixed window ends.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	if l.limiter(key).Allow() {
		return true, 0, nil
	}
	now := time.Now()
	windowEnd := now.Truncate(l.maxRate.Duration).Add(l.maxRate.Duration)
	return false, windowEnd.Sub(now), nil
}
