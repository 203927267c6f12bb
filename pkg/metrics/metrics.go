// Package metrics holds the Prometheus collectors of the migration service.
//
// The HTTP metrics have the labels method, path and code. To keep the cardinality low the path
// label is the route pattern with every parameter replaced by "-", for example
// /pulp/api/v3/tasks/-/, and requests that match no route are accumulated under "/-".
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pulp2to3"

type Metrics struct {
	gatherer           prometheus.Gatherer
	tasks              *prometheus.CounterVec
	contentMigrated    *prometheus.CounterVec
	contentPremigrated *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New registers the collectors with the registry. Tests pass their own registry so they
// don't interfere with each other.
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		gatherer: registry,
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Number of tasks that reached a final state.",
		}, []string{"name", "state"}),
		contentMigrated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_migrated_total",
			Help:      "Number of Pulp 2 units linked to Pulp 3 content.",
		}, []string{"type"}),
		contentPremigrated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_premigrated_total",
			Help:      "Number of Pulp 2 units staged for migration.",
		}, []string{"type"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time to process API requests, in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"method", "path", "code"}),
	}
}

func (m *Metrics) TaskFinished(name, state string) {
	if m == nil {
		return
	}

	m.tasks.WithLabelValues(name, state).Inc()
}

func (m *Metrics) ContentMigrated(typeID string, count int) {
	if m == nil {
		return
	}

	m.contentMigrated.WithLabelValues(typeID).Add(float64(count))
}

func (m *Metrics) ContentPremigrated(typeID string, count int) {
	if m == nil {
		return
	}

	m.contentPremigrated.WithLabelValues(typeID).Add(float64(count))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func collapsePath(route string) string {
	if route == "" || route == "/" {
		return "/-"
	}

	segments := strings.Split(route, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
			segments[i] = "-"
		}
	}

	return strings.Join(segments, "/")
}

// Middleware observes the duration of every request.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		code := c.Response().StatusCode()

		if err != nil {
			// The error handler has not written the response yet.
			code = fiber.StatusInternalServerError

			var coded interface{ StatusCode() int }

			var fiberError *fiber.Error

			switch {
			case errors.As(err, &coded):
				code = coded.StatusCode()
			case errors.As(err, &fiberError):
				code = fiberError.Code
			}
		}

		m.requestDuration.WithLabelValues(
			c.Method(),
			collapsePath(c.Route().Path),
			strconv.Itoa(code),
		).Observe(time.Since(start).Seconds())

		return err
	}
}
