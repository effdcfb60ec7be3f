package metrics_test

import (
	"testing"

	"github.com/myrjola/unsolved/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestGameMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := metrics.NewGameMetrics(reg)

	m.ObserveSaveWritten("manual", false)
	m.ObserveSaveWritten("manual", false)
	m.ObserveSaveWritten("autosave", true)
	m.ObserveLoad("corrupted")
	m.ObserveRepair(true)
	m.ObserveScumDecision("continued")
	m.ObserveSanityTransition("overall", "enteredCritical")
	m.SetCorruptionChance(0.02)

	count, err := testutil.GatherAndCount(reg, "unsolved_saves_written_total")
	require.NoError(t, err)
	require.Equal(t, 2, count, "two label combinations")

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	require.InDelta(t, 3, values["unsolved_saves_written_total"], 0)
	require.InDelta(t, 1, values["unsolved_saves_repairs_total"], 0)
	require.InDelta(t, 0.02, values["unsolved_saves_corruption_chance"], 1e-9)
}

func TestGameMetricsNilSafe(t *testing.T) {
	t.Parallel()
	var m *metrics.GameMetrics
	m.ObserveSaveWritten("manual", true)
	m.ObserveLoad("ok")
	m.ObserveRepair(false)
	m.ObserveScumDecision("warned")
	m.ObserveSanityTransition("overall", "recovered")
	m.SetCorruptionChance(1)
}
