/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a generic in-memory cache with LRU eviction, optional entry expiration,
// duplicate suppression of concurrent loads, and Prometheus metrics.
package lrucache
