/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry repeats calls to a pdfgate server that failed with a temporary error.
package retry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pdffacil/pdfgate/restapi"
)

// Default parameters of the policy used by the command-line client.
const (
	DefaultInitialInterval  = 200 * time.Millisecond
	DefaultMaxRetryAttempts = 4
)

// IsRetryable defines a func that can tell if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry executes fn with retry according to policy p and with respect to context ctx.
// isRetryable defines which errors lead to retry attempt (can be nil for any error).
// notify receives every failed attempt with the delay before the next one (can be nil).
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	op := func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, notify)
}

// ExponentialBackoffPolicy means repeat up to max times with exponentially growing delays.
type ExponentialBackoffPolicy struct {
	initialInterval time.Duration
	maxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy with given initial interval and max retry attempt count.
// Zero maxRetryAttempts means no limit, the elapsed time is limited by the backoff defaults and the context.
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{initialInterval, maxRetryAttempts}
}

// NewDefaultPolicy returns the policy used for calls to a pdfgate server.
func NewDefaultPolicy() ExponentialBackoffPolicy {
	return NewExponentialBackoffPolicy(DefaultInitialInterval, DefaultMaxRetryAttempts)
}

// NewBackOff implements retry.Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialInterval
	var bf backoff.BackOff = eb
	if p.maxAttempts > 0 {
		bf = backoff.WithMaxRetries(eb, uint64(p.maxAttempts))
	}
	bf.Reset()
	return bf
}

// IsTemporaryClientError reports whether the error returned by restapi.DoRequestAndUnmarshalJSON
// is worth retrying: the request could not be sent, the server is overloaded (429, 503)
// or failed with another 5xx status. Errors caused by the request itself are permanent.
func IsTemporaryClientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var clientErr *restapi.ClientError
	if !errors.As(err, &clientErr) {
		return true
	}
	return clientErr.StatusCode == http.StatusTooManyRequests || clientErr.StatusCode >= http.StatusInternalServerError
}
