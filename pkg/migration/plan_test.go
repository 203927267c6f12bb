package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosemania/pulp-2to3-migrate/pkg/migration"
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin/rpm"
)

func newRegistry(t *testing.T) *plugin.Registry {
	t.Helper()

	registry := plugin.NewRegistry()
	require.NoError(t, rpm.Register(registry))

	return registry
}

func TestParsePlan(t *testing.T) {
	t.Parallel()

	plan, err := migration.ParsePlan([]byte(`{"plugins": [{"type": "rpm"}]}`), newRegistry(t))
	require.NoError(t, err)
	require.Len(t, plan.Plugins, 1)
	assert.Equal(t, "rpm", plan.Plugins[0].Type)
	assert.Equal(t, "rpm", plan.Plugins[0].Migrator.Name())
}

func TestParseInvalidPlans(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		name    string
		plan    string
		message string
	}{
		{name: "not json", plan: `{"plugins": [`, message: "not valid JSON"},
		{name: "not an object", plan: `["rpm"]`, message: "must be a JSON object"},
		{name: "no plugins", plan: `{}`, message: "'plugins' must be a non-empty list"},
		{name: "empty plugins", plan: `{"plugins": []}`, message: "'plugins' must be a non-empty list"},
		{name: "plugin without type", plan: `{"plugins": [{}]}`, message: "plugins[0] must be an object"},
		{name: "numeric type", plan: `{"plugins": [{"type": 1}]}`, message: "plugins[0] must be an object"},
		{
			name:    "duplicate plugin",
			plan:    `{"plugins": [{"type": "rpm"}, {"type": "rpm"}]}`,
			message: `plugin "rpm" is listed more than once`,
		},
		{
			name:    "unknown plugin",
			plan:    `{"plugins": [{"type": "iso"}]}`,
			message: `plugin "iso" is not supported, supported plugins are [rpm]`,
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			t.Parallel()

			_, err := migration.ParsePlan([]byte(scenario.plan), newRegistry(t))
			require.ErrorIs(t, err, migration.ErrInvalidPlan)
			assert.Contains(t, err.Error(), scenario.message)
		})
	}
}
