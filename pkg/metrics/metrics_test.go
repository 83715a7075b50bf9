package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("test")
	b := NewCollector("test")

	a.RecordPrediction("Good", 7)
	a.RecordPrediction("Good", 3)
	b.RecordPrediction("Moderate", 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.PredictionsTotal.WithLabelValues("Good")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PredictionsTotal.WithLabelValues("Good")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.PredictionsTotal.WithLabelValues("Moderate")))
}

func TestCollector_RecordRequestAndErrors(t *testing.T) {
	c := NewCollector("test")

	c.RecordRequest("/api/v1/forecast", "GET", "200", 15*time.Millisecond)
	c.RecordPredictionError("invalid_date")
	c.RecordTemperatureSource("override")
	c.RecordDBError("select_error")
	c.UpdateDBConnectionPool(1, 2, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.RequestsTotal.WithLabelValues("/api/v1/forecast", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PredictionErrors.WithLabelValues("invalid_date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TemperatureSources.WithLabelValues("override")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DBErrorsTotal.WithLabelValues("select_error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("total")))

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewCollector("test")

	timer := NewTimer(c.PredictDuration)
	d := timer.ObserveDuration()

	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.PredictDuration))
}
