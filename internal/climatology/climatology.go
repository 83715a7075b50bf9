// Package climatology resolves a plausible temperature for any calendar date
// from historical daily observations.
//
// Resolution tries the mean of every observation sharing the date's month and
// day, then the mean of every observation in that month, then a caller
// supplied constant. It never fails.
package climatology

import (
	"math"
	"sort"
	"time"

	"aqi-forecast/internal/models"
)

// Source names the tier that produced a resolved temperature.
type Source string

const (
	SourceMonthDay Source = "month_day_average"
	SourceMonth    Source = "month_average"
	SourceDefault  Source = "default"
)

// Climatology holds month/day and month means. It is immutable once built.
type Climatology struct {
	byMonthDay map[models.MonthDay]float64
	byMonth    map[time.Month]float64
	count      int
}

// New aggregates observations. Non-finite temperatures are skipped.
func New(observations []models.Observation) *Climatology {
	dayValues := make(map[models.MonthDay][]float64)
	monthValues := make(map[time.Month][]float64)

	count := 0
	for _, o := range observations {
		if math.IsNaN(o.Temperature) || math.IsInf(o.Temperature, 0) {
			continue
		}
		md := models.MonthDayOf(o.Date)
		dayValues[md] = append(dayValues[md], o.Temperature)
		monthValues[md.Month] = append(monthValues[md.Month], o.Temperature)
		count++
	}

	c := &Climatology{
		byMonthDay: make(map[models.MonthDay]float64, len(dayValues)),
		byMonth:    make(map[time.Month]float64, len(monthValues)),
		count:      count,
	}
	for k, v := range dayValues {
		c.byMonthDay[k] = mean(v)
	}
	for k, v := range monthValues {
		c.byMonth[k] = mean(v)
	}

	return c
}

// Resolve returns the temperature for date and the tier it came from.
func (c *Climatology) Resolve(date time.Time, fallback float64) (float64, Source) {
	md := models.MonthDayOf(date)

	if v, ok := c.MonthDayAverage(md.Month, md.Day); ok {
		return v, SourceMonthDay
	}
	if c != nil {
		if v, ok := c.byMonth[md.Month]; ok {
			return v, SourceMonth
		}
	}

	return fallback, SourceDefault
}

// Temperature is Resolve without the source.
func (c *Climatology) Temperature(date time.Time, fallback float64) float64 {
	v, _ := c.Resolve(date, fallback)
	return v
}

// MonthDayAverage reports the precomputed mean for one (month, day).
func (c *Climatology) MonthDayAverage(month time.Month, day int) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.byMonthDay[models.MonthDay{Month: month, Day: day}]
	return v, ok
}

// Observations is the number of finite observations aggregated.
func (c *Climatology) Observations() int {
	if c == nil {
		return 0
	}
	return c.count
}

// mean sorts its input so that the result does not depend on insertion order.
func mean(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}
