package store

import (
	"context"
	"time"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

type MigrationPlanStore interface {
	CreateMigrationPlan(ctx context.Context, plan *model.MigrationPlan) *contract.Error
	// Get a migration plan by its ID.
	GetMigrationPlan(ctx context.Context, id string) (*model.MigrationPlan, *contract.Error)
	// List migration plans, optionally only those a task was run for.
	ListMigrationPlans(
		ctx context.Context, taskID string, maxResults int, pageToken string,
	) (*PagedList[model.MigrationPlan], *contract.Error)
	DeleteMigrationPlan(ctx context.Context, id string) *contract.Error
	AddMigrationPlanTask(ctx context.Context, planID, taskID string) *contract.Error
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) *contract.Error
	// Get a task by its ID. The task contains its progress reports.
	GetTask(ctx context.Context, id string) (*model.Task, *contract.Error)
	ListTasks(
		ctx context.Context, state, name string, maxResults int, pageToken string,
	) (*PagedList[model.Task], *contract.Error)
	// Transition a task from one of the states in from to the state to.
	// It returns RESOURCE_CONFLICT when the task is not in any of the from states.
	TransitionTask(ctx context.Context, id string, from []string, to string, at time.Time, reason *string) *contract.Error
	// Fail every task that is waiting or running, left behind by a previous process.
	FailUnfinishedTasks(ctx context.Context, reason string) (int64, *contract.Error)
	SaveProgressReport(ctx context.Context, taskID string, report model.ProgressReport) *contract.Error
}

type ContentStore interface {
	// Run fn against a content store bound to one transaction, committed when fn returns nil.
	InTransaction(ctx context.Context, fn func(ContentStore) error) error
	// Latest Pulp 2 last-updated timestamp staged for a content type, 0 when none.
	LastUpdated(ctx context.Context, typeID string) (int64, error)
	// Stage Pulp 2 content, ignoring units staged before, and return the staged rows of the batch.
	CreatePulp2Content(ctx context.Context, batch []model.Pulp2Content) ([]model.Pulp2Content, error)
	// Bulk create detail models, ignoring conflicts. details is a slice of detail models.
	CreateDetails(ctx context.Context, details any) error
	// Staged content of a type without Pulp 3 content, after the given staging ID.
	UnmigratedContent(ctx context.Context, typeID, after string, limit int) ([]model.Pulp2Content, error)
	CountUnmigratedContent(ctx context.Context, typeID string) (int64, error)
	Pulp2Rpms(ctx context.Context, contentIDs []string) ([]model.Pulp2Rpm, error)
	Pulp2Errata(ctx context.Context, contentIDs []string) ([]model.Pulp2Erratum, error)
	// Save Pulp 3 content with its content artifacts and link the staged content to it.
	// Content with the same natural key is reused.
	SavePulp3Content(
		ctx context.Context, staged model.Pulp2Content, content model.Pulp3Content, artifacts []model.ContentArtifact,
	) (string, error)
	SearchPulp2Content(
		ctx context.Context, filter string, orderBy []string, maxResults int, pageToken string,
	) (*PagedList[model.Pulp2Content], *contract.Error)
}

type MigrationStore interface {
	MigrationPlanStore
	TaskStore
	ContentStore
}

type PagedList[T any] struct {
	Items         []T
	NextPageToken *string
}
