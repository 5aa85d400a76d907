/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers for tests: HTTP response assertions, Prometheus metric assertions,
// network helpers and builders of test PDF documents and upload requests.
package testutil

type tHelper interface {
	Helper()
}
