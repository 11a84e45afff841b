package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/products/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	for _, path := range []string{"/products/a", "/products/b", "/missing"} {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/products/:id", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/missing", "404")))
	require.Equal(t, 2, testutil.CollectAndCount(m.durations))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.BidTransition("confirmed", "ok")
	m.BidTransition("confirmed", "conflict")
	m.BidTransition("confirmed", "conflict")
	m.ProductCreated()
	m.BidCreated()
	m.BidCreated()

	require.Equal(t, 2.0, testutil.ToFloat64(m.bidTransitions.WithLabelValues("confirmed", "conflict")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.productsCreated))
	require.Equal(t, 2.0, testutil.ToFloat64(m.bidsCreated))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ProductCreated()
	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	n, err := testutil.GatherAndCount(m.Registry(), "products_created_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
