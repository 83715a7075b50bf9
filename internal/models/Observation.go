package models

import "time"

// Observation is one historical daily temperature record.
type Observation struct {
	Date        time.Time `json:"date" db:"date" example:"2024-03-15"`
	Temperature float64   `json:"temperature" db:"temperature" example:"27.4"`
}

// ForecastRow is one day of the regressor timeline handed to the forecasting model.
type ForecastRow struct {
	Date        time.Time `json:"date" example:"2025-03-08"`
	Temperature float64   `json:"temperature" example:"28.1"`
}
