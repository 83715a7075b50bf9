package models

import "time"

// Chart describes a trend plot: a predicted series, a shaded confidence band
// between two boundary series, and one highlighted point.
type Chart struct {
	Title     string        `json:"title" example:"AQI Forecast Trend"`
	XAxis     string        `json:"x_axis" example:"Date"`
	YAxis     string        `json:"y_axis" example:"AQI Value"`
	Series    []ChartSeries `json:"series"`
	Band      ChartBand     `json:"band"`
	Highlight ChartPoint    `json:"highlight"`
}

type ChartSeries struct {
	Name   string       `json:"name" example:"Predicted AQI"`
	Color  string       `json:"color" example:"blue"`
	Points []ChartPoint `json:"points"`
}

// ChartBand is filled between Lower and Upper.
type ChartBand struct {
	Name      string       `json:"name" example:"95% Confidence Interval"`
	FillColor string       `json:"fill_color" example:"rgba(0, 0, 255, 0.2)"`
	Lower     []ChartPoint `json:"lower"`
	Upper     []ChartPoint `json:"upper"`
}

type ChartPoint struct {
	X time.Time `json:"x" example:"2025-03-08"`
	Y float64   `json:"y" example:"63.2"`
}

// NewTrendChart lays out a trend window with the target day highlighted.
func NewTrendChart(trend []PredictionResult, target PredictionResult) Chart {
	predicted := make([]ChartPoint, len(trend))
	lower := make([]ChartPoint, len(trend))
	upper := make([]ChartPoint, len(trend))
	for i, r := range trend {
		predicted[i] = ChartPoint{X: r.Date, Y: r.Estimate}
		lower[i] = ChartPoint{X: r.Date, Y: r.Lower}
		upper[i] = ChartPoint{X: r.Date, Y: r.Upper}
	}

	return Chart{
		Title: "AQI Forecast Trend",
		XAxis: "Date",
		YAxis: "AQI Value",
		Series: []ChartSeries{
			{Name: "Predicted AQI", Color: "blue", Points: predicted},
		},
		Band: ChartBand{
			Name:      "95% Confidence Interval",
			FillColor: "rgba(0, 0, 255, 0.2)",
			Lower:     lower,
			Upper:     upper,
		},
		Highlight: ChartPoint{X: target.Date, Y: target.Estimate},
	}
}
