package forecaster

import (
	"time"

	"aqi-forecast/internal/models"
)

const (
	MinHorizonDays  = 1
	MaxHorizonDays  = 365
	TrendRadiusDays = 3
)

// TemperatureResolver fills in the temperature for a day with no explicit value.
type TemperatureResolver interface {
	Temperature(date time.Time, fallback float64) float64
}

// BuildWindow returns the dense daily regressor timeline from the day after
// lastDate through target, inclusive and ascending. The target row carries
// targetTemp verbatim; every other row is resolved from its own date.
func BuildWindow(
	target, lastDate time.Time,
	resolver TemperatureResolver,
	targetTemp, fallback float64,
) ([]models.ForecastRow, error) {
	target = models.Day(target)
	lastDate = models.Day(lastDate)

	if err := CheckHorizon(target, lastDate); err != nil {
		return nil, err
	}

	horizon := models.DaysBetween(lastDate, target)
	rows := make([]models.ForecastRow, 0, horizon)
	for i := 1; i <= horizon; i++ {
		day := lastDate.AddDate(0, 0, i)

		temp := targetTemp
		if !day.Equal(target) {
			temp = resolver.Temperature(day, fallback)
		}

		rows = append(rows, models.ForecastRow{Date: day, Temperature: temp})
	}

	return rows, nil
}

// CheckHorizon reports whether target lies within [lastDate+1, lastDate+365].
func CheckHorizon(target, lastDate time.Time) error {
	horizon := models.DaysBetween(lastDate, target)

	switch {
	case horizon < MinHorizonDays:
		return &InvalidDateError{
			Target:   models.Day(target),
			LastDate: models.Day(lastDate),
			Horizon:  horizon,
			Reason:   "target date must be after the last known date",
		}
	case horizon > MaxHorizonDays:
		return &InvalidDateError{
			Target:   models.Day(target),
			LastDate: models.Day(lastDate),
			Horizon:  horizon,
			Reason:   "target date must be at most one year ahead",
		}
	}

	return nil
}

// DateBounds is the selectable target range for a model's last known date.
func DateBounds(lastDate time.Time) (minDate, maxDate time.Time) {
	lastDate = models.Day(lastDate)
	return lastDate.AddDate(0, 0, MinHorizonDays), lastDate.AddDate(0, 0, MaxHorizonDays)
}

// TrendWindow returns the contiguous results dated within radius days of
// target. The window is clipped to what is available, never padded.
func TrendWindow(results []models.PredictionResult, target time.Time, radius int) []models.PredictionResult {
	target = models.Day(target)
	from := target.AddDate(0, 0, -radius)
	to := target.AddDate(0, 0, radius)

	start, end := -1, -1
	for i, r := range results {
		d := models.Day(r.Date)
		if d.Before(from) || d.After(to) {
			if start >= 0 {
				break
			}
			continue
		}
		if start < 0 {
			start = i
		}
		end = i + 1
	}

	if start < 0 {
		return []models.PredictionResult{}
	}

	out := make([]models.PredictionResult, end-start)
	copy(out, results[start:end])
	return out
}
