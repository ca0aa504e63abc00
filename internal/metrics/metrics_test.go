package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGateway("receipts.pay", "ok", time.Millisecond)
	m.ObserveCheckout("paid")
}

func TestGatewayAndCheckoutCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveGateway("receipts.create", "ok", 20*time.Millisecond)
	m.ObserveGateway("receipts.create", "unavailable", time.Second)
	m.ObserveCheckout("paid")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateway.WithLabelValues("receipts.create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateway.WithLabelValues("receipts.create", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("paid")))
}

func TestMiddlewareRecordsErrorStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/missing/:id", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nope")
	})
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/missing/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/missing/:id", "404")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "vitrina_http_requests_total")
}
