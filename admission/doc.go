/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package admission decides whether a conversion request may proceed.
//
// A Controller keeps, for every client, the timestamps of admitted requests per operation
// and rejects a request when the client already used its quota inside the trailing window
// (24 hours by default). The upload size ceiling is checked before the quota, so oversized
// payloads never consume a slot.
//
// Usage state lives in memory only: quotas reset when the process restarts.
// Expired timestamps are purged lazily on every check for the same client, and
// SweepWorker may be run periodically to purge clients that never come back.
package admission
