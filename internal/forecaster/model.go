package forecaster

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"aqi-forecast/internal/models"
)

const (
	yearlyPeriodDays = 365.25
	weeklyPeriodDays = 7.0
)

// Model predicts AQI for every row of a regressor timeline. Results are
// returned in row order, one per row.
type Model interface {
	Name() string
	LastDate() time.Time
	Predict(ctx context.Context, rows []models.ForecastRow) ([]models.PredictionResult, error)
}

// Artifact is the persisted form of a fitted model together with the
// history it was fitted on.
type Artifact struct {
	Name     string         `json:"name"`
	Epoch    string         `json:"epoch"`
	LastDate string         `json:"last_date"`
	Params   Params         `json:"params"`
	History  []HistoryPoint `json:"history,omitempty"`
}

// Params are the coefficients of an additive trend + seasonality + regressor model.
type Params struct {
	Intercept       float64   `json:"intercept"`
	Slope           float64   `json:"slope"`
	Yearly          []Fourier `json:"yearly,omitempty"`
	Weekly          []Fourier `json:"weekly,omitempty"`
	TemperatureCoef float64   `json:"temperature_coef"`
	TemperatureMean float64   `json:"temperature_mean"`
	IntervalWidth   float64   `json:"interval_width"`
	IntervalGrowth  float64   `json:"interval_growth"`
}

// Fourier holds the coefficients of the k-th harmonic, k being its 1-based position.
type Fourier struct {
	Sin float64 `json:"sin"`
	Cos float64 `json:"cos"`
}

type HistoryPoint struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
}

// LoadArtifact reads and validates a model artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return &a, nil
}

func (a *Artifact) Validate() error {
	if a.LastDate == "" {
		return fmt.Errorf("%w: last_date is required", ErrCorruptArtifact)
	}
	if _, err := models.ParseDay(a.LastDate); err != nil {
		return fmt.Errorf("%w: last_date: %v", ErrCorruptArtifact, err)
	}
	if _, err := models.ParseDay(a.Epoch); err != nil {
		return fmt.Errorf("%w: epoch: %v", ErrCorruptArtifact, err)
	}
	if a.Params.IntervalWidth < 0 || a.Params.IntervalGrowth < 0 {
		return fmt.Errorf("%w: interval parameters must be non-negative", ErrCorruptArtifact)
	}

	for _, v := range a.Params.values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite parameter", ErrCorruptArtifact)
		}
	}

	for i, h := range a.History {
		if _, err := models.ParseDay(h.Date); err != nil {
			return fmt.Errorf("%w: history[%d].date: %v", ErrCorruptArtifact, i, err)
		}
	}

	return nil
}

// Observations converts the embedded history.
func (a *Artifact) Observations() []models.Observation {
	out := make([]models.Observation, 0, len(a.History))
	for _, h := range a.History {
		d, err := models.ParseDay(h.Date)
		if err != nil {
			continue
		}
		out = append(out, models.Observation{Date: d, Temperature: h.Temperature})
	}
	return out
}

// Model validates the artifact and builds its predictor.
func (a *Artifact) Model() (*AdditiveModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	epoch, _ := models.ParseDay(a.Epoch)
	lastDate, _ := models.ParseDay(a.LastDate)

	name := a.Name
	if name == "" {
		name = "additive"
	}

	return &AdditiveModel{
		name:     name,
		epoch:    epoch,
		lastDate: lastDate,
		params:   a.Params,
	}, nil
}

func (p Params) values() []float64 {
	vals := []float64{
		p.Intercept, p.Slope, p.TemperatureCoef, p.TemperatureMean, p.IntervalWidth, p.IntervalGrowth,
	}
	for _, f := range p.Yearly {
		vals = append(vals, f.Sin, f.Cos)
	}
	for _, f := range p.Weekly {
		vals = append(vals, f.Sin, f.Cos)
	}
	return vals
}

// AdditiveModel is a linear trend plus Fourier seasonality with a
// linear temperature regressor. Safe for concurrent use.
type AdditiveModel struct {
	name     string
	epoch    time.Time
	lastDate time.Time
	params   Params
}

func (m *AdditiveModel) Name() string {
	return m.name
}

func (m *AdditiveModel) LastDate() time.Time {
	return m.lastDate
}

func (m *AdditiveModel) Predict(ctx context.Context, rows []models.ForecastRow) ([]models.PredictionResult, error) {
	out := make([]models.PredictionResult, 0, len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if math.IsNaN(row.Temperature) || math.IsInf(row.Temperature, 0) {
			return nil, fmt.Errorf("row %s: temperature is not a finite number", row.Date.Format(models.DateLayout))
		}

		day := models.Day(row.Date)
		estimate := m.estimate(day, row.Temperature)
		halfWidth := m.halfWidth(day)

		out = append(out, models.PredictionResult{
			Date:     day,
			Estimate: estimate,
			Lower:    estimate - halfWidth,
			Upper:    estimate + halfWidth,
		})
	}

	return out, nil
}

func (m *AdditiveModel) estimate(day time.Time, temperature float64) float64 {
	t := float64(models.DaysBetween(m.epoch, day))
	p := m.params

	y := p.Intercept + p.Slope*t
	y += seasonality(p.Yearly, t, yearlyPeriodDays)
	y += seasonality(p.Weekly, t, weeklyPeriodDays)
	y += p.TemperatureCoef * (temperature - p.TemperatureMean)

	return y
}

// halfWidth widens linearly with the distance past the last fitted day.
func (m *AdditiveModel) halfWidth(day time.Time) float64 {
	ahead := models.DaysBetween(m.lastDate, day)
	if ahead < 0 {
		ahead = 0
	}
	return m.params.IntervalWidth * (1 + m.params.IntervalGrowth*float64(ahead))
}

func seasonality(terms []Fourier, t, period float64) float64 {
	var s float64
	for i, f := range terms {
		x := 2 * math.Pi * float64(i+1) * t / period
		s += f.Sin*math.Sin(x) + f.Cos*math.Cos(x)
	}
	return s
}
