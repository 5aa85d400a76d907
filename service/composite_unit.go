/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"errors"
	"strings"
	"sync"
)

// CompositeUnit runs several units as one.
type CompositeUnit struct {
	Units []Unit
}

var _ Unit = (*CompositeUnit)(nil)
var _ MetricsRegisterer = (*CompositeUnit)(nil)

// NewCompositeUnit creates a new composite unit.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{units}
}

// Start starts every unit in its own goroutine and waits until all of them return.
// The first failure stops the remaining units non-gracefully. All failures and stop errors
// are then reported as a single *CompositeUnitError.
func (cu *CompositeUnit) Start(fatalError chan<- error) {
	var (
		mu       sync.Mutex
		errs     []error
		stopOnce sync.Once
		wg       sync.WaitGroup
	)
	addErrs := func(e ...error) {
		mu.Lock()
		errs = append(errs, e...)
		mu.Unlock()
	}

	wg.Add(len(cu.Units))
	for _, u := range cu.Units {
		go func(u Unit) {
			defer wg.Done()
			unitErr := make(chan error, 1)
			u.Start(unitErr)
			select {
			case err := <-unitErr:
				addErrs(err)
			default:
				return
			}
			stopOnce.Do(func() {
				var stopErr *CompositeUnitError
				if errors.As(cu.Stop(false), &stopErr) {
					addErrs(stopErr.UnitErrors...)
				}
			})
		}(u)
	}
	wg.Wait()

	if len(errs) != 0 {
		fatalError <- &CompositeUnitError{UnitErrors: errs}
	}
}

// Stop stops all units concurrently and returns a *CompositeUnitError if any of them failed to stop.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	stopErrs := make([]error, len(cu.Units))
	var wg sync.WaitGroup
	wg.Add(len(cu.Units))
	for i, u := range cu.Units {
		go func(i int, u Unit) {
			defer wg.Done()
			stopErrs[i] = u.Stop(gracefully)
		}(i, u)
	}
	wg.Wait()

	var errs []error
	for _, err := range stopErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &CompositeUnitError{UnitErrors: errs}
}

// MustRegisterMetrics registers metrics of all units that implement MetricsRegisterer.
func (cu *CompositeUnit) MustRegisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.MustRegisterMetrics()
		}
	}
}

// UnregisterMetrics unregisters metrics of all units that implement MetricsRegisterer.
func (cu *CompositeUnit) UnregisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.UnregisterMetrics()
		}
	}
}

// CompositeUnitError holds the errors of the units of a CompositeUnit.
type CompositeUnitError struct {
	UnitErrors []error
}

func (e *CompositeUnitError) Error() string {
	msgs := make([]string, len(e.UnitErrors))
	for i, err := range e.UnitErrors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap allows errors.Is and errors.As to inspect the errors of the units.
func (e *CompositeUnitError) Unwrap() []error {
	return e.UnitErrors
}
