package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue metrics
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestTrackerRecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("assignments:apply").End(StatusSuccess, nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("assignments:apply").End(StatusFailure, boom), boom)

	assert.Equal(t, 1.0, counterValue(t, reg, "rbac_console_jobs_total", map[string]string{"job": "assignments:apply", "status": StatusSuccess}))
	assert.Equal(t, 1.0, counterValue(t, reg, "rbac_console_jobs_total", map[string]string{"job": "assignments:apply", "status": StatusFailure}))
}

func TestAddOperationsIgnoresEmptyBatches(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.AddOperations("user-role", 3)
	m.AddOperations("user-role", 0)

	assert.Equal(t, 3.0, counterValue(t, reg, "rbac_console_job_assignment_operations_total", map[string]string{"kind": "user-role"}))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")

	assert.ErrorIs(t, m.Track("x").End(StatusFailure, boom), boom)
	assert.NotPanics(t, func() { m.AddOperations("user-role", 1) })
}
