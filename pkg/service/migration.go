package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/migration"
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

// TaskQueue is the part of the task queue the API needs.
type TaskQueue interface {
	Enqueue(ctx context.Context, name string, resources []string, kwargs map[string]any) (*model.Task, *contract.Error)
	Cancel(ctx context.Context, id string) *contract.Error
}

type MigrationService struct {
	config   *config.Config
	Store    store.MigrationStore
	queue    TaskQueue
	registry *plugin.Registry
}

func NewMigrationService(
	cfg *config.Config, st store.MigrationStore, queue TaskQueue, registry *plugin.Registry,
) *MigrationService {
	return &MigrationService{
		config:   cfg,
		Store:    st,
		queue:    queue,
		registry: registry,
	}
}

var _ contract.MigrationService = (*MigrationService)(nil)

// CreateMigrationPlan implements MigrationService.
func (m MigrationService) CreateMigrationPlan(
	ctx context.Context, input *contract.CreateMigrationPlan,
) (*contract.MigrationPlan, *contract.Error) {
	if _, err := migration.ParsePlan(input.Plan, m.registry); err != nil {
		return nil, contract.NewError(contract.ErrorCodeInvalidParameterValue, err.Error())
	}

	plan := model.MigrationPlan{Plan: string(input.Plan)}
	if err := m.Store.CreateMigrationPlan(ctx, &plan); err != nil {
		return nil, err
	}

	return plan.ToContract(m.config.APIRoot), nil
}

// GetMigrationPlan implements MigrationService.
func (m MigrationService) GetMigrationPlan(ctx context.Context, id string) (*contract.MigrationPlan, *contract.Error) {
	plan, err := m.Store.GetMigrationPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	return plan.ToContract(m.config.APIRoot), nil
}

// ListMigrationPlans implements MigrationService. Plans are filtered by a task href or id.
func (m MigrationService) ListMigrationPlans(
	ctx context.Context, input *contract.ListMigrationPlans,
) (*contract.PagedList[*contract.MigrationPlan], *contract.Error) {
	var taskID string
	if input.Tasks != "" {
		taskID = contract.IDFromHref(input.Tasks)
	}

	page, err := m.Store.ListMigrationPlans(ctx, taskID, input.Limit, input.PageToken)
	if err != nil {
		return nil, err
	}

	results := make([]*contract.MigrationPlan, 0, len(page.Items))
	for _, plan := range page.Items {
		results = append(results, plan.ToContract(m.config.APIRoot))
	}

	return &contract.PagedList[*contract.MigrationPlan]{
		Results:       results,
		NextPageToken: page.NextPageToken,
	}, nil
}

func (m MigrationService) DeleteMigrationPlan(ctx context.Context, id string) *contract.Error {
	return m.Store.DeleteMigrationPlan(ctx, id)
}

// RunMigrationPlan enqueues a migrate_from_pulp2 task for the plan and returns its href.
func (m MigrationService) RunMigrationPlan(
	ctx context.Context, id string, input *contract.RunMigrationPlan,
) (*contract.AsyncOperationResponse, *contract.Error) {
	plan, err := m.Store.GetMigrationPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	dryRun := input.DryRun != nil && *input.DryRun

	task, err := m.queue.Enqueue(
		ctx,
		migration.TaskName,
		[]string{migration.ReservedResource},
		map[string]any{
			migration.KwargMigrationPlan: plan.ID,
			migration.KwargDryRun:        dryRun,
		},
	)
	if err != nil {
		return nil, err
	}

	if err := m.Store.AddMigrationPlanTask(ctx, plan.ID, task.ID); err != nil {
		// Don't leave a task running that its plan doesn't list.
		if cancelErr := m.queue.Cancel(context.WithoutCancel(ctx), task.ID); cancelErr != nil {
			logrus.WithError(cancelErr).WithField("task", task.ID).Error("Failed to cancel unlinked task")
		}

		return nil, err
	}

	return &contract.AsyncOperationResponse{
		Task: contract.Href(m.config.APIRoot, contract.TasksEndpoint, task.ID),
	}, nil
}

// GetTask implements MigrationService.
func (m MigrationService) GetTask(ctx context.Context, id string) (*contract.Task, *contract.Error) {
	task, err := m.Store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	return task.ToContract(m.config.APIRoot), nil
}

// ListTasks implements MigrationService.
func (m MigrationService) ListTasks(
	ctx context.Context, input *contract.ListTasks,
) (*contract.PagedList[*contract.Task], *contract.Error) {
	page, err := m.Store.ListTasks(ctx, input.State, input.Name, input.Limit, input.PageToken)
	if err != nil {
		return nil, err
	}

	results := make([]*contract.Task, 0, len(page.Items))
	for _, task := range page.Items {
		results = append(results, task.ToContract(m.config.APIRoot))
	}

	return &contract.PagedList[*contract.Task]{
		Results:       results,
		NextPageToken: page.NextPageToken,
	}, nil
}

// UpdateTask cancels a task. Only the canceled state can be requested.
func (m MigrationService) UpdateTask(
	ctx context.Context, id string, input *contract.UpdateTask,
) (*contract.Task, *contract.Error) {
	if input.State != contract.TaskStateCanceled {
		return nil, contract.NewError(
			contract.ErrorCodeInvalidParameterValue, "tasks can only be updated to the canceled state",
		)
	}

	if err := m.queue.Cancel(ctx, id); err != nil {
		return nil, err
	}

	return m.GetTask(ctx, id)
}

// SearchPulp2Content implements MigrationService.
func (m MigrationService) SearchPulp2Content(
	ctx context.Context, input *contract.SearchPulp2Content,
) (*contract.PagedList[*contract.Pulp2Content], *contract.Error) {
	page, err := m.Store.SearchPulp2Content(ctx, input.Filter, input.OrderBy, input.Limit, input.PageToken)
	if err != nil {
		return nil, err
	}

	results := make([]*contract.Pulp2Content, 0, len(page.Items))
	for _, content := range page.Items {
		results = append(results, content.ToContract(m.config.APIRoot))
	}

	return &contract.PagedList[*contract.Pulp2Content]{
		Results:       results,
		NextPageToken: page.NextPageToken,
	}, nil
}
