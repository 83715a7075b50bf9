package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every application metric, registered on one registry.
type Collector struct {
	registry *prometheus.Registry

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Forecasting
	PredictionsTotal   *prometheus.CounterVec
	PredictionErrors   *prometheus.CounterVec
	PredictDuration    prometheus.Histogram
	ForecastHorizon    prometheus.Histogram
	TemperatureSources *prometheus.CounterVec

	// Database
	DBQueryDuration  *prometheus.HistogramVec
	DBErrorsTotal    *prometheus.CounterVec
	DBConnectionPool *prometheus.GaugeVec
}

// NewCollector registers the metrics on a fresh registry, so that several
// collectors (one per test) can coexist in a process.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
			},
			[]string{"route"},
		),

		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total number of AQI predictions by category",
			},
			[]string{"category"},
		),

		PredictionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_errors_total",
				Help:      "Total number of failed predictions by kind",
			},
			[]string{"kind"},
		),

		PredictDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_predict_duration_seconds",
				Help:      "Duration of a model predict call in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),

		ForecastHorizon: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "forecast_horizon_days",
				Help:      "Requested forecast horizon in days",
				Buckets:   []float64{1, 3, 7, 14, 30, 90, 180, 365},
			},
		),

		TemperatureSources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "target_temperature_source_total",
				Help:      "Where the target date temperature came from",
			},
			[]string{"source"},
		),

		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds by query type",
				Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
			},
			[]string{"query_type"},
		),

		DBErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Total number of database errors by type",
			},
			[]string{"error_type"},
		),

		DBConnectionPool: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"state"}, // "in_use", "idle", "total"
		),
	}

	reg.MustRegister(
		c.RequestsTotal,
		c.RequestDuration,
		c.PredictionsTotal,
		c.PredictionErrors,
		c.PredictDuration,
		c.ForecastHorizon,
		c.TemperatureSources,
		c.DBQueryDuration,
		c.DBErrorsTotal,
		c.DBConnectionPool,
	)

	return c
}

// Registry exposes the registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordRequest(route, method, status string, d time.Duration) {
	c.RequestsTotal.WithLabelValues(route, method, status).Inc()
	c.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (c *Collector) RecordPrediction(category string, horizonDays int) {
	c.PredictionsTotal.WithLabelValues(category).Inc()
	c.ForecastHorizon.Observe(float64(horizonDays))
}

func (c *Collector) RecordPredictionError(kind string) {
	c.PredictionErrors.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordTemperatureSource(source string) {
	c.TemperatureSources.WithLabelValues(source).Inc()
}

func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

func (c *Collector) UpdateDBConnectionPool(inUse, idle, total int) {
	c.DBConnectionPool.WithLabelValues("in_use").Set(float64(inUse))
	c.DBConnectionPool.WithLabelValues("idle").Set(float64(idle))
	c.DBConnectionPool.WithLabelValues("total").Set(float64(total))
}

// Timer observes elapsed time into a histogram.
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

func NewTimer(observer prometheus.Observer) *Timer {
	return &Timer{start: time.Now(), observer: observer}
}

func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(d.Seconds())
	}
	return d
}
