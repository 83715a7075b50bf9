package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"aqi-forecast/internal/climatology"
	"aqi-forecast/internal/forecaster"
	"aqi-forecast/internal/models"
	"aqi-forecast/pkg/metrics"
	"aqi-forecast/pkg/observe"
)

// SourceOverride marks a temperature supplied by the caller.
const SourceOverride = "override"

var (
	ErrModelUnavailable      = errors.New("forecasting model is not available")
	ErrPredictionMissing     = errors.New("target date is missing from the model output")
	ErrTemperatureOutOfRange = errors.New("temperature override is out of range")
)

// Config bounds the temperature override and names the last-resort default.
type Config struct {
	DefaultTemperature float64
	MinTemperature     float64
	MaxTemperature     float64
}

// Info describes what the loaded model can forecast.
type Info struct {
	ModelName          string
	LastDate           time.Time
	MinDate            time.Time
	MaxDate            time.Time
	MinTemperature     float64
	MaxTemperature     float64
	DefaultTemperature float64
	Observations       int
}

// ResolvedTemperature is the default temperature offered for a date.
type ResolvedTemperature struct {
	Date        time.Time
	Temperature float64
	Source      string
}

// Forecast is the outcome of one prediction request.
type Forecast struct {
	Target            models.PredictionResult
	Category          models.Category
	Temperature       float64
	TemperatureSource string
	HorizonDays       int
	Trend             []models.PredictionResult
	Chart             models.Chart
}

// ForecastService answers prediction requests against one loaded model.
// The model and climatology are read-only, so one service serves
// concurrent requests.
type ForecastService struct {
	model   forecaster.Model
	climate *climatology.Climatology
	cfg     Config
	l       *observe.Logger
	metrics *metrics.Collector
}

// NewForecastService accepts a nil model; prediction calls then fail with
// ErrModelUnavailable while temperature lookups keep working.
func NewForecastService(
	model forecaster.Model,
	climate *climatology.Climatology,
	cfg Config,
	l *observe.Logger,
	m *metrics.Collector,
) *ForecastService {
	return &ForecastService{
		model:   model,
		climate: climate,
		cfg:     cfg,
		l:       l,
		metrics: m,
	}
}

func (s *ForecastService) Available() bool {
	return s.model != nil
}

func (s *ForecastService) Info() (Info, error) {
	if s.model == nil {
		return Info{}, ErrModelUnavailable
	}

	lastDate := models.Day(s.model.LastDate())
	minDate, maxDate := forecaster.DateBounds(lastDate)

	return Info{
		ModelName:          s.model.Name(),
		LastDate:           lastDate,
		MinDate:            minDate,
		MaxDate:            maxDate,
		MinTemperature:     s.cfg.MinTemperature,
		MaxTemperature:     s.cfg.MaxTemperature,
		DefaultTemperature: s.cfg.DefaultTemperature,
		Observations:       s.climate.Observations(),
	}, nil
}

// DefaultTemperature resolves the temperature that is used for date when the
// caller gives none.
func (s *ForecastService) DefaultTemperature(date time.Time) ResolvedTemperature {
	temp, source := s.climate.Resolve(date, s.cfg.DefaultTemperature)

	return ResolvedTemperature{
		Date:        models.Day(date),
		Temperature: temp,
		Source:      string(source),
	}
}

// CheckOverride validates a caller supplied temperature.
func (s *ForecastService) CheckOverride(temperature float64) error {
	if math.IsNaN(temperature) || temperature < s.cfg.MinTemperature || temperature > s.cfg.MaxTemperature {
		return errors.Wrapf(ErrTemperatureOutOfRange, "%v not within [%v, %v]",
			temperature, s.cfg.MinTemperature, s.cfg.MaxTemperature)
	}
	return nil
}

// Predict forecasts the AQI of target. Without an override the target's
// temperature is resolved from history; the rows between the model's last
// date and target are always resolved from history.
func (s *ForecastService) Predict(ctx context.Context, target time.Time, override *float64) (*Forecast, error) {
	if s.model == nil {
		s.metrics.RecordPredictionError("model_unavailable")
		return nil, ErrModelUnavailable
	}

	target = models.Day(target)
	lastDate := models.Day(s.model.LastDate())

	var temperature float64
	var source string
	if override != nil {
		if err := s.CheckOverride(*override); err != nil {
			s.metrics.RecordPredictionError("temperature_out_of_range")
			return nil, err
		}
		temperature, source = *override, SourceOverride
	} else {
		resolved := s.DefaultTemperature(target)
		temperature, source = resolved.Temperature, resolved.Source
	}

	rows, err := forecaster.BuildWindow(target, lastDate, s.climate, temperature, s.cfg.DefaultTemperature)
	if err != nil {
		s.metrics.RecordPredictionError("invalid_date")
		return nil, errors.Wrap(err, "failed to build forecast window")
	}

	timer := metrics.NewTimer(s.metrics.PredictDuration)
	results, err := s.model.Predict(ctx, rows)
	elapsed := timer.ObserveDuration()
	if err != nil {
		s.metrics.RecordPredictionError("model_failure")
		return nil, errors.Wrap(err, "model prediction failed")
	}
	if len(results) != len(rows) {
		s.metrics.RecordPredictionError("row_count")
		return nil, errors.Wrapf(forecaster.ErrRowCount, "got %d results for %d rows", len(results), len(rows))
	}

	idx := models.FilterByDate(results, target)
	if idx < 0 {
		s.metrics.RecordPredictionError("prediction_missing")
		return nil, errors.Wrap(ErrPredictionMissing, target.Format(models.DateLayout))
	}

	headline := results[idx]
	category := models.Classify(headline.Estimate)
	trend := forecaster.TrendWindow(results, target, forecaster.TrendRadiusDays)

	horizon := models.DaysBetween(lastDate, target)
	s.metrics.RecordPrediction(string(category), horizon)
	s.metrics.RecordTemperatureSource(source)

	s.l.Info("forecast computed", map[string]any{
		"target":             target.Format(models.DateLayout),
		"horizon_days":       horizon,
		"temperature":        temperature,
		"temperature_source": source,
		"estimate":           headline.Estimate,
		"category":           string(category),
		"predict_ms":         elapsed.Milliseconds(),
	})

	return &Forecast{
		Target:            headline,
		Category:          category,
		Temperature:       temperature,
		TemperatureSource: source,
		HorizonDays:       horizon,
		Trend:             trend,
		Chart:             models.NewTrendChart(trend, headline),
	}, nil
}

// Describe renders the headline the way the dashboard printed it.
func (f *Forecast) Describe() string {
	return fmt.Sprintf("Predicted AQI on %s: %.2f (%.2f - %.2f), %s",
		f.Target.Date.Format(models.DateLayout), f.Target.Estimate, f.Target.Lower, f.Target.Upper, f.Category)
}
