/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

// Unit is a component of the process with its own lifecycle.
type Unit interface {
	// Start runs the unit. It may block until the unit is stopped.
	// A failure that makes the unit unusable is sent to fatalErr exactly once, and then Start returns.
	// Nothing is sent on a normal stop.
	Start(fatalErr chan<- error)

	// Stop halts the unit. It may be called even if Start has failed or was never called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is implemented by units that own Prometheus collectors.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
