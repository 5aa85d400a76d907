/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"time"

	"github.com/ssgreg/logf"

	"github.com/pdffacil/pdfgate/log"
)

// timeSlots accumulates named durations in milliseconds.
type timeSlots map[string]int64

func (ts timeSlots) EncodeLogfObject(e logf.FieldEncoder) error {
	for name, ms := range ts {
		e.EncodeFieldInt64(name, ms)
	}
	return nil
}

// LoggingParams is put into the request context by Logging.
// Handlers down the chain use it to enrich the "response completed" line.
type LoggingParams struct {
	fields    []log.Field
	timeSlots timeSlots
}

// ExtendFields adds fields to the "response completed" line.
func (lp *LoggingParams) ExtendFields(fields ...log.Field) {
	lp.fields = append(lp.fields, fields...)
}

// AddTimeSlotInt adds value to the named slot of the "time_slots" group.
func (lp *LoggingParams) AddTimeSlotInt(name string, value int64) {
	if lp.timeSlots == nil {
		lp.timeSlots = timeSlots{}
	}
	lp.timeSlots[name] += value
}

// AddTimeSlotDurationInMs is AddTimeSlotInt for durations.
func (lp *LoggingParams) AddTimeSlotDurationInMs(name string, dur time.Duration) {
	lp.AddTimeSlotInt(name, dur.Milliseconds())
}
