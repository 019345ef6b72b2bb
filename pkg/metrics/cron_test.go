package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("outbox-retention", 250*time.Millisecond, nil)
	m.ObserveRun("outbox-retention", time.Second, errors.New("boom"))
	m.ObserveRun("notification-cleanup", time.Second, errors.New("boom"))
	m.ObserveRun("", time.Millisecond, nil)
	m.IncSkipped()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := findMetricFamily(mfs, "cron_job_runs_total")
	require.NotNil(t, runs)
	got := map[string]float64{}
	for _, series := range runs.GetMetric() {
		var job, outcome string
		for _, pair := range series.GetLabel() {
			switch pair.GetName() {
			case "job":
				job = pair.GetValue()
			case "outcome":
				outcome = pair.GetValue()
			}
		}
		got[job+"/"+outcome] = series.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"outbox-retention/success":     1,
		"outbox-retention/failure":     1,
		"notification-cleanup/failure": 1,
		"unknown/success":              1,
	}, got)

	sum, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", "outbox-retention")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, sum, 1e-9)

	last, err := findSeries(mfs, "cron_job_last_success_timestamp_seconds", "job", "outbox-retention")
	require.NoError(t, err)
	assert.Greater(t, last.GetGauge().GetValue(), 0.0)
	_, err = findSeries(mfs, "cron_job_last_success_timestamp_seconds", "job", "notification-cleanup")
	assert.Error(t, err, "a job that never succeeded has no timestamp")

	skipped := findMetricFamily(mfs, "cron_cycles_skipped_total")
	require.NotNil(t, skipped)
	assert.Equal(t, 1.0, skipped.GetMetric()[0].GetCounter().GetValue())
}

func TestNilCronJobMetrics(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", time.Second, nil)
	m.IncSkipped()
	NewCronJobMetrics(nil).IncSkipped()
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "unknown", normalizeLabel(""))
	assert.Equal(t, "listing_hidden", normalizeLabel("listing_hidden"))
}
