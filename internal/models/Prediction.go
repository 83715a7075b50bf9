package models

import "time"

// PredictionResult is the model output for one ForecastRow.
type PredictionResult struct {
	Date     time.Time `json:"date" example:"2025-03-08"`
	Estimate float64   `json:"estimate" example:"63.2"`
	Lower    float64   `json:"lower" example:"41.0"`
	Upper    float64   `json:"upper" example:"85.4"`
}

// FilterByDate returns the index of the result dated on the same calendar day, or -1 if not found
func FilterByDate(data []PredictionResult, date time.Time) int {
	day := Day(date)
	for i, r := range data {
		if Day(r.Date).Equal(day) {
			return i
		}
	}
	return -1
}
