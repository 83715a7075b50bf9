package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqi-forecast/pkg/metrics"
)

func TestInitFiberServer(t *testing.T) {
	m := metrics.NewCollector("test")
	ready := false

	app := InitFiberServer(Config{AppName: "test-app"}, m, func() bool { return ready })
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendString(c.Params("id"))
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/manage/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/manage/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready = true
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/manage/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, id := range []string{"1", "2"} {
		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/items/:id", http.MethodGet, "200")))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestInitFiberServer_RequestDeadline(t *testing.T) {
	deadlineIn := func(app *fiber.App) time.Duration {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/deadline", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		d, err := time.ParseDuration(resp.Header.Get("X-Deadline-In"))
		require.NoError(t, err)
		return d
	}
	handler := func(c *fiber.Ctx) error {
		var left time.Duration
		if deadline, ok := c.UserContext().Deadline(); ok {
			left = time.Until(deadline)
		}
		c.Set("X-Deadline-In", left.String())
		return c.SendStatus(http.StatusNoContent)
	}

	bounded := InitFiberServer(Config{AppName: "test-app", RequestTimeout: 10 * time.Second}, nil, nil)
	bounded.Get("/deadline", handler)
	left := deadlineIn(bounded)
	assert.Greater(t, left, time.Duration(0))
	assert.LessOrEqual(t, left, 10*time.Second)

	unbounded := InitFiberServer(Config{AppName: "test-app"}, nil, nil)
	unbounded.Get("/deadline", handler)
	assert.Equal(t, time.Duration(0), deadlineIn(unbounded))
}
