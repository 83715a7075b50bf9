package http

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"aqi-forecast/internal/forecaster"
	"aqi-forecast/internal/models"
	"aqi-forecast/internal/services/forecast"
	"aqi-forecast/internal/services/readings"
)

var validate = validator.New()

// InfoResponse describes the loaded model and the accepted inputs
type InfoResponse struct {
	Model              string  `json:"model" example:"port-dickson-aqi"`
	LastDate           string  `json:"last_date" example:"2025-03-01"`
	MinDate            string  `json:"min_date" example:"2025-03-02"`
	MaxDate            string  `json:"max_date" example:"2026-03-01"`
	MinTemperature     float64 `json:"min_temperature" example:"15"`
	MaxTemperature     float64 `json:"max_temperature" example:"40"`
	DefaultTemperature float64 `json:"default_temperature" example:"28"`
	Observations       int     `json:"observations" example:"1826"`
}

// TemperatureResponse is the temperature used for a date when none is given
type TemperatureResponse struct {
	Date        string  `json:"date" example:"2025-03-15"`
	Temperature float64 `json:"temperature" example:"29.4"`
	Source      string  `json:"source" example:"month_day_average"`
}

// PredictionData is one forecast day
type PredictionData struct {
	Date     string  `json:"date" example:"2025-03-08"`
	Estimate float64 `json:"estimate" example:"63.2"`
	Lower    float64 `json:"lower" example:"41.0"`
	Upper    float64 `json:"upper" example:"85.4"`
}

// ForecastResponse represents the AQI forecast for one date
type ForecastResponse struct {
	Prediction        PredictionData   `json:"prediction"`
	Category          string           `json:"category" example:"Moderate"`
	Color             string           `json:"color" example:"yellow"`
	Summary           string           `json:"summary" example:"Predicted AQI on 2025-03-08: 63.20 (41.00 - 85.40), Moderate"`
	Temperature       float64          `json:"temperature" example:"29.4"`
	TemperatureSource string           `json:"temperature_source" example:"override"`
	HorizonDays       int              `json:"horizon_days" example:"7"`
	Trend             []PredictionData `json:"trend"`
	Chart             models.Chart     `json:"chart"`
}

// ReadingData is one recorded AQI value
type ReadingData struct {
	ID       int64  `json:"id" example:"1"`
	City     string `json:"city" example:"Penang"`
	Date     string `json:"date" example:"2025-03-14"`
	AQI      int    `json:"aqi" example:"87"`
	Category string `json:"category" example:"Moderate"`
	Color    string `json:"color" example:"yellow"`
}

// ReadingsResponse represents the AQI table filtered by city
type ReadingsResponse struct {
	City     string        `json:"city" example:"All"`
	Cities   []string      `json:"cities"`
	Readings []ReadingData `json:"readings"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string `json:"error" example:"Invalid date"`
	Detail string `json:"detail,omitempty" example:"target date must be at most one year ahead"`
}

type dateQuery struct {
	Date string `validate:"required,datetime=2006-01-02"`
}

type forecastQuery struct {
	Date        string `validate:"required,datetime=2006-01-02"`
	Temperature string `validate:"omitempty,numeric"`
}

// GetForecastInfo godoc
// @Summary Get model information
// @Description Returns the loaded model, its last known date and the accepted date and temperature ranges
// @Tags Forecast
// @Produce json
// @Success 200 {object} InfoResponse "Successful response"
// @Failure 503 {object} ErrorResponse "Model not available"
// @Router /api/v1/forecast/info [get]
func (r *routes) handleForecastInfo(c *fiber.Ctx) error {
	info, err := r.forecasts.Info()
	if err != nil {
		return r.fail(c, err, nil)
	}

	return c.JSON(InfoResponse{
		Model:              info.ModelName,
		LastDate:           info.LastDate.Format(models.DateLayout),
		MinDate:            info.MinDate.Format(models.DateLayout),
		MaxDate:            info.MaxDate.Format(models.DateLayout),
		MinTemperature:     info.MinTemperature,
		MaxTemperature:     info.MaxTemperature,
		DefaultTemperature: info.DefaultTemperature,
		Observations:       info.Observations,
	})
}

// GetDefaultTemperature godoc
// @Summary Get the default temperature for a date
// @Description Resolves the temperature from the historical average of the same day, then of the month, then the configured default
// @Tags Forecast
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)" example(2025-03-15)
// @Success 200 {object} TemperatureResponse "Successful response"
// @Failure 400 {object} ErrorResponse "Bad request - invalid parameters"
// @Router /api/v1/forecast/temperature [get]
func (r *routes) handleDefaultTemperature(c *fiber.Ctx) error {
	q := dateQuery{Date: c.Query("date")}
	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:  "Invalid parameters",
			Detail: err.Error(),
		})
	}

	date, _ := models.ParseDay(q.Date)
	resolved := r.forecasts.DefaultTemperature(date)

	return c.JSON(TemperatureResponse{
		Date:        resolved.Date.Format(models.DateLayout),
		Temperature: resolved.Temperature,
		Source:      resolved.Source,
	})
}

// GetForecast godoc
// @Summary Get AQI forecast
// @Description Predicts the AQI of a date within one year after the model's last known date, with its category and a trend of the surrounding days
// @Tags Forecast
// @Produce json
// @Param date query string true "Target date (YYYY-MM-DD)" example(2025-03-08)
// @Param temperature query number false "Temperature override in Celsius (15-40)" minimum(15) maximum(40) example(31.5)
// @Success 200 {object} ForecastResponse "Successful response"
// @Failure 400 {object} ErrorResponse "Bad request - invalid parameters"
// @Failure 422 {object} ErrorResponse "Target date outside the forecast horizon"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Failure 503 {object} ErrorResponse "Model not available"
// @Router /api/v1/forecast [get]
// @Example {curl} Example usage:
//
//	curl -X GET "http://localhost:8080/api/v1/forecast?date=2025-03-08&temperature=31.5"
func (r *routes) handleForecast(c *fiber.Ctx) error {
	q := forecastQuery{
		Date:        c.Query("date"),
		Temperature: c.Query("temperature"),
	}
	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:  "Invalid parameters",
			Detail: err.Error(),
		})
	}

	info, err := r.forecasts.Info()
	if err != nil {
		return r.fail(c, err, map[string]any{"date": q.Date})
	}

	target, _ := models.ParseDay(q.Date)
	if target.Before(info.MinDate) || target.After(info.MaxDate) {
		detail := fmt.Sprintf("date must be between %s and %s",
			info.MinDate.Format(models.DateLayout), info.MaxDate.Format(models.DateLayout))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:  "Date out of range",
			Detail: detail,
		})
	}

	var override *float64
	if q.Temperature != "" {
		v, err := strconv.ParseFloat(q.Temperature, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:  "Invalid temperature format",
				Detail: err.Error(),
			})
		}
		override = &v
	}

	result, err := r.forecasts.Predict(c.UserContext(), target, override)
	if err != nil {
		return r.fail(c, err, map[string]any{
			"date":        q.Date,
			"temperature": q.Temperature,
		})
	}

	trend := make([]PredictionData, len(result.Trend))
	for i, p := range result.Trend {
		trend[i] = toPredictionData(p)
	}

	return c.JSON(ForecastResponse{
		Prediction:        toPredictionData(result.Target),
		Category:          string(result.Category),
		Color:             result.Category.Color(),
		Summary:           result.Describe(),
		Temperature:       result.Temperature,
		TemperatureSource: result.TemperatureSource,
		HorizonDays:       result.HorizonDays,
		Trend:             trend,
		Chart:             result.Chart,
	})
}

// GetReadings godoc
// @Summary Get recorded AQI readings
// @Description Lists recorded AQI readings, optionally filtered by city
// @Tags Readings
// @Produce json
// @Param city query string false "City name, or All" example(Penang)
// @Success 200 {object} ReadingsResponse "Successful response"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Failure 503 {object} ErrorResponse "Readings database not configured or unreachable"
// @Router /api/v1/readings [get]
func (r *routes) handleReadings(c *fiber.Ctx) error {
	if r.readings == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "AQI readings are not available",
		})
	}

	city := c.Query("city")

	view, err := r.readings.View(c.UserContext(), city)
	if err != nil {
		r.l.Error(err, map[string]any{
			"city":       city,
			"request_id": c.Locals("requestid"),
		})

		if errors.Is(err, readings.ErrStoreUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
				Error:  "AQI readings store is unreachable",
				Detail: err.Error(),
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:  "Failed to read AQI data",
			Detail: err.Error(),
		})
	}

	out := ReadingsResponse{
		City:     view.City,
		Cities:   view.Cities,
		Readings: make([]ReadingData, len(view.Readings)),
	}
	for i, rd := range view.Readings {
		out.Readings[i] = ReadingData{
			ID:       rd.ID,
			City:     rd.City,
			Date:     rd.Date,
			AQI:      rd.AQI,
			Category: string(rd.Category),
			Color:    rd.Color,
		}
	}

	return c.JSON(out)
}

func toPredictionData(p models.PredictionResult) PredictionData {
	return PredictionData{
		Date:     p.Date.Format(models.DateLayout),
		Estimate: p.Estimate,
		Lower:    p.Lower,
		Upper:    p.Upper,
	}
}

// fail logs err and answers with the status its kind maps to.
func (r *routes) fail(c *fiber.Ctx, err error, fields map[string]any) error {
	status, message := errorStatus(err)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["status"] = status
	fields["request_id"] = c.Locals("requestid")

	if status >= fiber.StatusInternalServerError {
		r.l.Error(err, fields)
	} else {
		r.l.Warning(message, fields)
	}

	return c.Status(status).JSON(ErrorResponse{
		Error:  message,
		Detail: err.Error(),
	})
}

func errorStatus(err error) (int, string) {
	var invalidDate *forecaster.InvalidDateError

	switch {
	case errors.Is(err, forecast.ErrTemperatureOutOfRange):
		return fiber.StatusBadRequest, "Temperature out of range"
	case errors.As(err, &invalidDate):
		return fiber.StatusUnprocessableEntity, "Invalid date"
	case errors.Is(err, forecast.ErrModelUnavailable):
		return fiber.StatusServiceUnavailable, "Forecasting model not available"
	}

	return fiber.StatusInternalServerError, "Failed to compute forecast"
}
