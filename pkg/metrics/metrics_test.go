package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RunStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.activeRuns))
	r.Progress(40)
	assert.Equal(t, 40.0, testutil.ToFloat64(r.progress))

	r.RunFinished("completed", 3, 1, 0.2)
	r.RunFinished("canceled", 1, 0, 0.1)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.activeRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("completed")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.masks.WithLabelValues("contributed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.masks.WithLabelValues("skipped")))

	n, err := testutil.GatherAndCount(reg, "maskheatmap_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RunStarted()
		r.Progress(10)
		r.RunFinished("failed", 0, 0, 0)
	})
}
