package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosemania/pulp-2to3-migrate/pkg/metrics"
)

func TestCounters(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	m.TaskFinished("migrate_from_pulp2", "completed")
	m.ContentMigrated("rpm", 3)
	m.ContentPremigrated("rpm", 5)

	expected := `
# HELP pulp2to3_content_migrated_total Number of Pulp 2 units linked to Pulp 3 content.
# TYPE pulp2to3_content_migrated_total counter
pulp2to3_content_migrated_total{type="rpm"} 3
`
	require.NoError(t, testutil.GatherAndCompare(
		registry, strings.NewReader(expected), "pulp2to3_content_migrated_total",
	))

	var nilMetrics *metrics.Metrics
	nilMetrics.TaskFinished("migrate_from_pulp2", "failed")
}

func TestMiddlewareCollapsesRouteParameters(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/tasks/:id/", func(c *fiber.Ctx) error {
		return c.SendString(c.Params("id"))
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		recorder := httptest.NewRecorder()
		m.Handler().ServeHTTP(recorder, httptest.NewRequest(fiber.MethodGet, "/metrics", nil))

		return c.Send(recorder.Body.Bytes())
	})

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/tasks/"+id+"/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body),
		`pulp2to3_http_request_duration_seconds_count{code="200",method="GET",path="/tasks/-/"} 2`)
}
