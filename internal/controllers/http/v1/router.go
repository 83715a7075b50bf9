package http

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aqi-forecast/internal/services/forecast"
	"aqi-forecast/internal/services/readings"
	"aqi-forecast/pkg/metrics"
	"aqi-forecast/pkg/observe"
)

const swaggerDocPath = "docs/swagger.json"

type routes struct {
	forecasts *forecast.ForecastService
	readings  *readings.ReadingService
	l         *observe.Logger
}

// NewRouter registers the API. readingService may be nil when no database is
// configured; the readings route then answers 503. /metrics is only served
// when m is not nil.
func NewRouter(
	app *fiber.App,
	forecastService *forecast.ForecastService,
	readingService *readings.ReadingService,
	m *metrics.Collector,
	l *observe.Logger,
) {
	r := &routes{
		forecasts: forecastService,
		readings:  readingService,
		l:         l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		swaggerData, err := os.ReadFile(swaggerDocPath)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to read Swagger documentation"})
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(swaggerData)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	}

	// API routes
	v1 := app.Group("/api/v1")
	v1.Get("/forecast/info", r.handleForecastInfo)
	v1.Get("/forecast/temperature", r.handleDefaultTemperature)
	v1.Get("/forecast", r.handleForecast)
	v1.Get("/readings", r.handleReadings)
}
