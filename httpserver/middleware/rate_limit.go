/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/pdffacil/pdfgate/internal/ratelimit"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/restapi"
)

// DefaultRateLimitMaxKeys bounds the number of tracked keys when requests are limited per key.
const DefaultRateLimitMaxKeys = 10000

// RateLimitErrCode is the error code of responses to requests rejected by RateLimit.
const RateLimitErrCode = "tooManyRequests"

// RateLimitLogFieldKey is the log field holding the rate limiting key.
const RateLimitLogFieldKey = "rate_limit_key"

// Rate describes the frequency of requests.
type Rate = ratelimit.Rate

// RateLimitAlg is a rate limiting algorithm.
type RateLimitAlg = ratelimit.Alg

// Supported rate limiting algorithms.
const (
	RateLimitAlgLeakyBucket   = ratelimit.AlgLeakyBucket
	RateLimitAlgSlidingWindow = ratelimit.AlgSlidingWindow
)

// RateLimitGetKeyFunc returns the key requests are limited by.
// Requests with bypass set to true are not limited at all.
type RateLimitGetKeyFunc func(r *http.Request) (key string, bypass bool, err error)

// RateLimitOpts configures RateLimitWithOpts.
type RateLimitOpts struct {
	Alg      RateLimitAlg
	MaxBurst int

	// GetKey makes every key limited separately. All requests share one limit if it's nil.
	GetKey  RateLimitGetKeyFunc
	MaxKeys int

	// ResponseStatusCode is used for rejected requests, 429 by default.
	ResponseStatusCode int

	// DryRun makes the middleware only log requests that exceed the limit.
	DryRun bool
}

// RateLimit limits the rate of all requests together.
func RateLimit(maxRate Rate, errDomain string) (func(next http.Handler) http.Handler, error) {
	return RateLimitWithOpts(maxRate, errDomain, RateLimitOpts{})
}

// RateLimitByClient limits the rate of requests of every client separately.
// Clients are identified the same way as for the daily quota.
func RateLimitByClient(maxRate Rate, errDomain string, opts RateLimitOpts) (func(next http.Handler) http.Handler, error) {
	opts.GetKey = func(r *http.Request) (string, bool, error) {
		return GetClientID(r), false, nil
	}
	return RateLimitWithOpts(maxRate, errDomain, opts)
}

// RateLimitWithOpts is RateLimit with options.
func RateLimitWithOpts(maxRate Rate, errDomain string, opts RateLimitOpts) (func(next http.Handler) http.Handler, error) {
	maxKeys := 0
	if opts.GetKey != nil {
		maxKeys = opts.MaxKeys
		if maxKeys == 0 {
			maxKeys = DefaultRateLimitMaxKeys
		}
	}
	limiter, err := ratelimit.NewLimiter(opts.Alg, maxRate, opts.MaxBurst, maxKeys)
	if err != nil {
		return nil, fmt.Errorf("new rate limiter: %w", err)
	}
	rejectStatus := opts.ResponseStatusCode
	if rejectStatus == 0 {
		rejectStatus = http.StatusTooManyRequests
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			logger := GetLoggerFromContext(r.Context())
			var key string
			if opts.GetKey != nil {
				var bypass bool
				var keyErr error
				if key, bypass, keyErr = opts.GetKey(r); keyErr != nil {
					if logger != nil {
						logger.Error("get rate limit key failed", log.Error(keyErr))
					}
					restapi.RespondInternalError(rw, errDomain, logger)
					return
				}
				if bypass {
					next.ServeHTTP(rw, r)
					return
				}
			}

			allow, retryAfter, allowErr := limiter.Allow(r.Context(), key)
			if allowErr != nil {
				if logger != nil {
					logger.Error("rate limiting failed", log.Error(allowErr), log.String(RateLimitLogFieldKey, key))
				}
				restapi.RespondInternalError(rw, errDomain, logger)
				return
			}
			if allow {
				next.ServeHTTP(rw, r)
				return
			}

			if opts.DryRun {
				if logger != nil {
					logger.Warn("rate limit exceeded, request is served in dry run mode",
						log.String(RateLimitLogFieldKey, key))
				}
				next.ServeHTTP(rw, r)
				return
			}
			if logger != nil {
				logger = logger.With(log.String(RateLimitLogFieldKey, key))
			}
			rw.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			restapi.RespondError(rw, rejectStatus, restapi.NewError(errDomain, RateLimitErrCode, "Too many requests."), logger)
		})
	}, nil
}
