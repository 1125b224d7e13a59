package metrics

import (
	"net/http"
	"strconv"
	"time"

	"go-order-ws/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orders"

type Metrics struct {
	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	OrderOps       *prometheus.CounterVec
	OrderLatencyMS *prometheus.HistogramVec
	StockUnits     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		OrderOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "operations_total",
			Help:      "Order workflow operations by outcome.",
		}, []string{"operation", "outcome"}),
		OrderLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "operation_duration_ms",
			Help:      "Order workflow latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"operation"}),
		StockUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "units_total",
			Help:      "Stock units moved by the ledger.",
		}, []string{"type", "reason"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.OrderOps, m.OrderLatencyMS, m.StockUnits)
	return m
}

// Outcome maps a workflow error to a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := apperror.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

// ObserveOrder is safe on a nil receiver so callers can run without metrics.
func (m *Metrics) ObserveOrder(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.OrderOps.WithLabelValues(operation, Outcome(err)).Inc()
	m.OrderLatencyMS.WithLabelValues(operation).Observe(float64(time.Since(started).Milliseconds()))
}

func (m *Metrics) ObserveStock(movementType, reason string, quantity int) {
	if m == nil {
		return
	}
	m.StockUnits.WithLabelValues(movementType, reason).Add(float64(quantity))
}

// Middleware records one sample per request, labelled by the matched route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
