/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// RequireSamplesCountInHistogram requires the histogram to have exactly wantSamplesCount observations.
func RequireSamplesCountInHistogram(t require.TestingT, hist prometheus.Histogram, wantSamplesCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(hist))
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.EqualValues(t, wantSamplesCount, families[0].GetMetric()[0].GetHistogram().GetSampleCount())
}

// RequireSamplesCountInCounter requires the counter value to be wantCount.
func RequireSamplesCountInCounter(t require.TestingT, counter prometheus.Counter, wantCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.EqualValues(t, wantCount, promtestutil.ToFloat64(counter))
}
