/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides short-window rate limiters used to absorb bursts of requests
// before they reach the daily quota accounting.
//
// Two algorithms are available: leaky bucket (GCRA) and sliding window.
// Limits may be applied per key, keys are kept in a bounded LRU store.
package ratelimit
