package httpserver

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"aqi-forecast/pkg/metrics"
)

type Config struct {
	AppName      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// RequestTimeout bounds the context handlers get from c.UserContext().
	RequestTimeout time.Duration
	// Debug adds stack traces to recovered panics.
	Debug bool
}

// InitFiberServer builds the app with the shared middleware stack. ready
// backs the readiness probe; nil means always ready.
func InitFiberServer(cfg Config, m *metrics.Collector, ready func() bool) *fiber.App {
	s := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	})

	s.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))
	s.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if cfg.RequestTimeout > 0 {
		s.Use(requestDeadline(cfg.RequestTimeout))
	}
	s.Use(cors.New())
	s.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  "/manage/health",
		ReadinessEndpoint: "/manage/ready",
		ReadinessProbe: func(*fiber.Ctx) bool {
			return ready == nil || ready()
		},
	}))
	if m != nil {
		s.Use(requestMetrics(m))
	}

	return s
}

func requestDeadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// requestMetrics records every request under its route pattern, so that
// path parameters do not explode label cardinality.
func requestMetrics(m *metrics.Collector) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		m.RecordRequest(c.Route().Path, c.Method(), strconv.Itoa(status), time.Since(start))

		return err
	}
}
