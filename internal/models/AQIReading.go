package models

// AQIReading is one row of the recorded AQI table.
type AQIReading struct {
	ID   int64  `json:"id" db:"id" example:"1"`
	City string `json:"city" db:"city" example:"Penang"`
	Date string `json:"date" db:"date" example:"2025-03-14"`
	AQI  int    `json:"aqi" db:"aqi" example:"87"`
}

func (r AQIReading) Category() Category {
	return Classify(float64(r.AQI))
}
