package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg             *prometheus.Registry
	requests        *prometheus.CounterVec
	durations       *prometheus.HistogramVec
	bidTransitions  *prometheus.CounterVec
	productsCreated prometheus.Counter
	bidsCreated     prometheus.Counter
}

// New registers the service collectors (plus Go/process collectors) on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by route and status.",
			},
			[]string{"method", "route", "status"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		bidTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bid_transitions_total",
				Help: "Bid status change attempts by target status and outcome.",
			},
			[]string{"to", "outcome"},
		),
		productsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "products_created_total",
			Help: "Products listed.",
		}),
		bidsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bids_created_total",
			Help: "Bids placed.",
		}),
	}
	reg.MustRegister(
		m.requests, m.durations, m.bidTransitions, m.productsCreated, m.bidsCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Middleware records request counts and latency by matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.durations.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg}))
}

func (m *Metrics) BidTransition(to, outcome string) {
	m.bidTransitions.WithLabelValues(to, outcome).Inc()
}

func (m *Metrics) ProductCreated() { m.productsCreated.Inc() }
func (m *Metrics) BidCreated()     { m.bidsCreated.Inc() }
