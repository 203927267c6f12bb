package contract

import "context"

type MigrationService interface {
	CreateMigrationPlan(ctx context.Context, input *CreateMigrationPlan) (*MigrationPlan, *Error)
	GetMigrationPlan(ctx context.Context, id string) (*MigrationPlan, *Error)
	ListMigrationPlans(ctx context.Context, input *ListMigrationPlans) (*PagedList[*MigrationPlan], *Error)
	DeleteMigrationPlan(ctx context.Context, id string) *Error
	RunMigrationPlan(ctx context.Context, id string, input *RunMigrationPlan) (*AsyncOperationResponse, *Error)

	GetTask(ctx context.Context, id string) (*Task, *Error)
	ListTasks(ctx context.Context, input *ListTasks) (*PagedList[*Task], *Error)
	UpdateTask(ctx context.Context, id string, input *UpdateTask) (*Task, *Error)

	SearchPulp2Content(ctx context.Context, input *SearchPulp2Content) (*PagedList[*Pulp2Content], *Error)
}
