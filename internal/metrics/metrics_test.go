package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/ping", "200")))

	m.PointsConverted.WithLabelValues("convert").Add(3)
	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `geoproj_engine_points_total{operation="convert"} 3`)
	require.Contains(t, string(body), "geoproj_http_requests_total")
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.EnginesBuilt.WithLabelValues("ok").Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(a.EnginesBuilt.WithLabelValues("ok")))
	require.Equal(t, 0.0, testutil.ToFloat64(b.EnginesBuilt.WithLabelValues("ok")))
}
