/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides a log.FieldLogger that keeps logged entries in memory, so tests can assert on them.
package logtest
