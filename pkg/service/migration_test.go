package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/migration"
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin/rpm"
	"github.com/goosemania/pulp-2to3-migrate/pkg/service"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/sqltest"
	"github.com/goosemania/pulp-2to3-migrate/pkg/tasking"
)

const apiRoot = "/pulp/api/v3"

func newService(t *testing.T) (*service.MigrationService, *sql.Store) {
	t.Helper()

	registry := plugin.NewRegistry()
	require.NoError(t, rpm.Register(registry))

	st := sqltest.NewStore(t, 10)
	// The queue is never run, enqueued tasks stay waiting.
	queue := tasking.NewQueue(st, 1, nil)

	return service.NewMigrationService(&config.Config{APIRoot: apiRoot}, st, queue, registry), st
}

func TestCreateMigrationPlan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	plan, err := svc.CreateMigrationPlan(ctx, &contract.CreateMigrationPlan{
		Plan: json.RawMessage(`{"plugins": [{"type": "rpm"}]}`),
	})
	require.Nil(t, err)
	assert.Regexp(t, `^/pulp/api/v3/migration-plans/[0-9a-f-]{36}/$`, plan.PulpHref)
	assert.JSONEq(t, `{"plugins": [{"type": "rpm"}]}`, string(plan.Plan))

	fetched, err := svc.GetMigrationPlan(ctx, contract.IDFromHref(plan.PulpHref))
	require.Nil(t, err)
	assert.Equal(t, plan.PulpHref, fetched.PulpHref)

	_, err = svc.CreateMigrationPlan(ctx, &contract.CreateMigrationPlan{
		Plan: json.RawMessage(`{"plugins": [{"type": "docker"}]}`),
	})
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, err.Code)
	assert.Contains(t, err.Message, `plugin "docker" is not supported`)
}

func TestRunMigrationPlan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, st := newService(t)

	plan, err := svc.CreateMigrationPlan(ctx, &contract.CreateMigrationPlan{
		Plan: json.RawMessage(`{"plugins": [{"type": "rpm"}]}`),
	})
	require.Nil(t, err)

	planID := contract.IDFromHref(plan.PulpHref)
	dryRun := true

	response, err := svc.RunMigrationPlan(ctx, planID, &contract.RunMigrationPlan{DryRun: &dryRun})
	require.Nil(t, err)
	assert.Regexp(t, `^/pulp/api/v3/tasks/[0-9a-f-]{36}/$`, response.Task)

	stored, err := st.GetTask(ctx, contract.IDFromHref(response.Task))
	require.Nil(t, err)
	assert.Equal(t, migration.TaskName, stored.Name)
	assert.Equal(t, contract.TaskStateWaiting, stored.State)
	assert.Equal(t, []string{migration.ReservedResource}, stored.ReservedResources)
	assert.Equal(t, planID, stored.Kwargs[migration.KwargMigrationPlan])
	assert.Equal(t, true, stored.Kwargs[migration.KwargDryRun])

	// Plans are found through the href of a task they ran.
	plans, err := svc.ListMigrationPlans(ctx, &contract.ListMigrationPlans{Tasks: response.Task})
	require.Nil(t, err)
	require.Len(t, plans.Results, 1)
	assert.Equal(t, plan.PulpHref, plans.Results[0].PulpHref)

	_, err = svc.RunMigrationPlan(ctx, "00000000-0000-0000-0000-000000000000", &contract.RunMigrationPlan{})
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, err.Code)
}

// unlinkableStore fails to link tasks to their plan.
type unlinkableStore struct {
	*sql.Store
}

func (unlinkableStore) AddMigrationPlanTask(_ context.Context, _, _ string) *contract.Error {
	return contract.NewError(contract.ErrorCodeInternalError, "failed to link task")
}

func TestRunMigrationPlanCancelsUnlinkedTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	registry := plugin.NewRegistry()
	require.NoError(t, rpm.Register(registry))

	st := sqltest.NewStore(t, 10)
	queue := tasking.NewQueue(st, 1, nil)
	svc := service.NewMigrationService(&config.Config{APIRoot: apiRoot}, unlinkableStore{st}, queue, registry)

	plan, err := svc.CreateMigrationPlan(ctx, &contract.CreateMigrationPlan{
		Plan: json.RawMessage(`{"plugins": [{"type": "rpm"}]}`),
	})
	require.Nil(t, err)

	_, err = svc.RunMigrationPlan(ctx, contract.IDFromHref(plan.PulpHref), &contract.RunMigrationPlan{})
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeInternalError, err.Code)

	waiting, err := svc.ListTasks(ctx, &contract.ListTasks{State: contract.TaskStateWaiting})
	require.Nil(t, err)
	assert.Empty(t, waiting.Results)

	canceled, err := svc.ListTasks(ctx, &contract.ListTasks{State: contract.TaskStateCanceled})
	require.Nil(t, err)
	require.Len(t, canceled.Results, 1)
}

func TestCancelTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	plan, err := svc.CreateMigrationPlan(ctx, &contract.CreateMigrationPlan{
		Plan: json.RawMessage(`{"plugins": [{"type": "rpm"}]}`),
	})
	require.Nil(t, err)

	response, err := svc.RunMigrationPlan(ctx, contract.IDFromHref(plan.PulpHref), &contract.RunMigrationPlan{})
	require.Nil(t, err)

	taskID := contract.IDFromHref(response.Task)

	_, err = svc.UpdateTask(ctx, taskID, &contract.UpdateTask{State: contract.TaskStateCompleted})
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, err.Code)

	task, err := svc.UpdateTask(ctx, taskID, &contract.UpdateTask{State: contract.TaskStateCanceled})
	require.Nil(t, err)
	assert.Equal(t, contract.TaskStateCanceled, task.State)
	assert.NotNil(t, task.FinishedAt)

	_, err = svc.UpdateTask(ctx, taskID, &contract.UpdateTask{State: contract.TaskStateCanceled})
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeResourceConflict, err.Code)

	tasks, err := svc.ListTasks(ctx, &contract.ListTasks{State: contract.TaskStateCanceled})
	require.Nil(t, err)
	require.Len(t, tasks.Results, 1)
	assert.Equal(t, response.Task, tasks.Results[0].PulpHref)
}

func TestDeleteMigrationPlan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	plan, err := svc.CreateMigrationPlan(ctx, &contract.CreateMigrationPlan{
		Plan: json.RawMessage(`{"plugins": [{"type": "rpm"}]}`),
	})
	require.Nil(t, err)

	planID := contract.IDFromHref(plan.PulpHref)
	require.Nil(t, svc.DeleteMigrationPlan(ctx, planID))

	_, err = svc.GetMigrationPlan(ctx, planID)
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, err.Code)
}

func TestSearchPulp2Content(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	page, err := svc.SearchPulp2Content(ctx, &contract.SearchPulp2Content{Filter: "pulp2_content_type_id = 'rpm'"})
	require.Nil(t, err)
	assert.Empty(t, page.Results)
	assert.Nil(t, page.NextPageToken)

	_, err = svc.SearchPulp2Content(ctx, &contract.SearchPulp2Content{Filter: "size = 'big'"})
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, err.Code)
}
