package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerCountsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("stock:low_scan").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("stock:low_scan").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stock:low_scan", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stock:low_scan", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("stock:low_scan")))
}

func TestSetLowStockResetsStaleLabels(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetLowStock(map[string]int{"raw": 2, "finished": 1})
	m.SetLowStock(map[string]int{"finished": 3})

	require.Equal(t, 1, testutil.CollectAndCount(m.lowStock))
	require.Equal(t, 3.0, testutil.ToFloat64(m.lowStock.WithLabelValues("finished")))
}

func TestNilMetricsIsInert(t *testing.T) {
	var m *Metrics
	m.SetLowStock(map[string]int{"raw": 1})
	m.AddPurged(3)
	require.NoError(t, m.Track("x").End(nil))
}
