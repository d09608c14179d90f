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

var (
	// Registry holds the service's collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aura",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	LessonsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aura",
		Name:      "lessons_completed_total",
		Help:      "Lessons completed with a passing score.",
	})

	BattlesFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura",
		Name:      "battles_finished_total",
		Help:      "Battles leaving the pending or active state, by outcome.",
	}, []string{"outcome"})

	PaymentsVerified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura",
		Name:      "payments_verified_total",
		Help:      "On-chain payment verifications, by kind and result.",
	}, []string{"kind", "status"})

	SecurityBlocks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura",
		Subsystem: "security",
		Name:      "blocked_requests_total",
		Help:      "Requests rejected by the security middleware, by rule.",
	}, []string{"rule"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		LessonsCompleted,
		BattlesFinished,
		PaymentsVerified,
		SecurityBlocks,
	)
}

// Middleware records request counts and latency per matched route.
func Middleware() fiber.Handler {
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

		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
