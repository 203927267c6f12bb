package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/metrics"
	"github.com/goosemania/pulp-2to3-migrate/pkg/server"
)

const planID = "0b7c4e0e-3f0a-4a55-9d2b-2f8f6d1f1c11"

type FakeService struct {
	runInput  *contract.RunMigrationPlan
	listInput *contract.SearchPulp2Content
}

func (f *FakeService) CreateMigrationPlan(
	_ context.Context, input *contract.CreateMigrationPlan,
) (*contract.MigrationPlan, *contract.Error) {
	return &contract.MigrationPlan{PulpHref: "/pulp/api/v3/migration-plans/" + planID + "/", Plan: input.Plan}, nil
}

func (f *FakeService) GetMigrationPlan(_ context.Context, id string) (*contract.MigrationPlan, *contract.Error) {
	if id != planID {
		return nil, contract.NewError(contract.ErrorCodeResourceDoesNotExist, "migration plan not found")
	}

	return &contract.MigrationPlan{PulpHref: "/pulp/api/v3/migration-plans/" + planID + "/"}, nil
}

func (f *FakeService) ListMigrationPlans(
	_ context.Context, _ *contract.ListMigrationPlans,
) (*contract.PagedList[*contract.MigrationPlan], *contract.Error) {
	return &contract.PagedList[*contract.MigrationPlan]{Results: []*contract.MigrationPlan{}}, nil
}

func (f *FakeService) DeleteMigrationPlan(_ context.Context, _ string) *contract.Error {
	return nil
}

func (f *FakeService) RunMigrationPlan(
	_ context.Context, id string, input *contract.RunMigrationPlan,
) (*contract.AsyncOperationResponse, *contract.Error) {
	f.runInput = input

	if id != planID {
		return nil, contract.NewError(contract.ErrorCodeResourceDoesNotExist, "migration plan not found")
	}

	return &contract.AsyncOperationResponse{Task: "/pulp/api/v3/tasks/1/"}, nil
}

func (f *FakeService) GetTask(_ context.Context, _ string) (*contract.Task, *contract.Error) {
	return &contract.Task{PulpHref: "/pulp/api/v3/tasks/1/", State: contract.TaskStateRunning}, nil
}

func (f *FakeService) ListTasks(
	_ context.Context, _ *contract.ListTasks,
) (*contract.PagedList[*contract.Task], *contract.Error) {
	return &contract.PagedList[*contract.Task]{Results: []*contract.Task{}}, nil
}

func (f *FakeService) UpdateTask(_ context.Context, _ string, _ *contract.UpdateTask) (*contract.Task, *contract.Error) {
	return nil, contract.NewError(contract.ErrorCodeResourceConflict, "task is already completed")
}

func (f *FakeService) SearchPulp2Content(
	_ context.Context, input *contract.SearchPulp2Content,
) (*contract.PagedList[*contract.Pulp2Content], *contract.Error) {
	f.listInput = input

	return &contract.PagedList[*contract.Pulp2Content]{Results: []*contract.Pulp2Content{}}, nil
}

func newApp(t *testing.T) (*fiber.App, *FakeService) {
	t.Helper()

	service := &FakeService{}
	cfg := &config.Config{APIRoot: "/pulp/api/v3", Version: "1.2.3"}

	app, err := server.NewApp(cfg, service, metrics.New(prometheus.NewRegistry()))
	require.NoError(t, err)

	return app, service
}

func send(t *testing.T, app *fiber.App, method, target, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	request := httptest.NewRequest(method, target, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := app.Test(request, -1)
	require.NoError(t, err)

	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	require.NoError(t, err)

	return response.StatusCode, string(payload)
}

func errorCode(t *testing.T, body string) contract.ErrorCode {
	t.Helper()

	var e contract.Error
	require.NoError(t, json.Unmarshal([]byte(body), &e))

	return e.Code
}

func TestMigrationPlanRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newApp(t)

	status, body := send(t, app, http.MethodPost, "/pulp/api/v3/migration-plans/", `{"plan": {"plugins": [{"type": "rpm"}]}}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.JSONEq(t, `{"plugins": [{"type": "rpm"}]}`, gjsonPlan(t, body))

	status, body = send(t, app, http.MethodPost, "/pulp/api/v3/migration-plans/", `{}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "Missing value for required parameter 'plan'")

	status, body = send(t, app, http.MethodPost, "/pulp/api/v3/migration-plans/", `{"plan": ["rpm"]}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, errorCode(t, body))

	status, _ = send(t, app, http.MethodGet, "/pulp/api/v3/migration-plans/"+planID+"/", "")
	assert.Equal(t, http.StatusOK, status)

	status, body = send(t, app, http.MethodGet, "/pulp/api/v3/migration-plans/unknown/", "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, errorCode(t, body))

	status, _ = send(t, app, http.MethodDelete, "/pulp/api/v3/migration-plans/"+planID+"/", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = send(t, app, http.MethodGet, "/pulp/api/v3/migration-plans/?limit=-1", "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, errorCode(t, body))
}

func gjsonPlan(t *testing.T, body string) string {
	t.Helper()

	var plan contract.MigrationPlan
	require.NoError(t, json.Unmarshal([]byte(body), &plan))

	return string(plan.Plan)
}

func TestRunMigrationPlanRoute(t *testing.T) {
	t.Parallel()

	app, service := newApp(t)
	runURL := "/pulp/api/v3/migration-plans/" + planID + "/run/"

	status, body := send(t, app, http.MethodPost, runURL, `{"dry_run": true}`)
	require.Equal(t, http.StatusAccepted, status, body)
	assert.JSONEq(t, `{"task": "/pulp/api/v3/tasks/1/"}`, body)
	require.NotNil(t, service.runInput.DryRun)
	assert.True(t, *service.runInput.DryRun)

	status, _ = send(t, app, http.MethodPost, runURL, "")
	require.Equal(t, http.StatusAccepted, status)
	assert.Nil(t, service.runInput.DryRun)

	status, body = send(t, app, http.MethodPost, runURL, `{"dry_run": "yes"}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "Invalid value yes for parameter 'dry_run'")

	status, body = send(t, app, http.MethodPost, runURL, `{"dry_run":`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, contract.ErrorCodeBadRequest, errorCode(t, body))

	status, body = send(t, app, http.MethodPost, "/pulp/api/v3/migration-plans/unknown/run/", `{"dry_run": false}`)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, errorCode(t, body))
}

func TestTaskRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newApp(t)

	status, body := send(t, app, http.MethodGet, "/pulp/api/v3/tasks/1/", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"state":"running"`)

	status, body = send(t, app, http.MethodPatch, "/pulp/api/v3/tasks/1/", `{"state": "canceled"}`)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, contract.ErrorCodeResourceConflict, errorCode(t, body))

	status, _ = send(t, app, http.MethodPatch, "/pulp/api/v3/tasks/1/", `{"state": "completed"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = send(t, app, http.MethodGet, "/pulp/api/v3/tasks/?state=waiting", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestPulp2ContentRoute(t *testing.T) {
	t.Parallel()

	app, service := newApp(t)

	status, body := send(
		t, app, http.MethodGet,
		"/pulp/api/v3/pulp2content/?filter=rpm.name%20%3D%20%27bear%27&order_by=pulp2_id&order_by=downloaded%20DESC&limit=5",
		"",
	)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"results": [], "next_page_token": null}`, body)

	assert.Equal(t, "rpm.name = 'bear'", service.listInput.Filter)
	assert.Equal(t, []string{"pulp2_id", "downloaded DESC"}, service.listInput.OrderBy)
	assert.Equal(t, 5, service.listInput.Limit)
}

func TestAuxiliaryRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newApp(t)

	status, body := send(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, body = send(t, app, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1.2.3", body)

	status, body = send(t, app, http.MethodGet, "/pulp/api/v3/repositories/", "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, contract.ErrorCodeEndpointNotFound, errorCode(t, body))

	status, body = send(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `pulp2to3_http_request_duration_seconds_count{code="200",method="GET",path="/health"} 1`)
}
