package sql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

func (s Store) CreateMigrationPlan(ctx context.Context, plan *model.MigrationPlan) *contract.Error {
	if err := s.db.WithContext(ctx).Omit("Tasks").Create(plan).Error; err != nil {
		return contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to create migration plan", err)
	}

	return nil
}

func (s Store) GetMigrationPlan(ctx context.Context, id string) (*model.MigrationPlan, *contract.Error) {
	var plan model.MigrationPlan
	if err := s.db.WithContext(ctx).Where("pulp_id = ?", id).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.NewError(
				contract.ErrorCodeResourceDoesNotExist,
				fmt.Sprintf("migration plan with id=%s not found", id),
			)
		}

		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to get migration plan with id=%s", id),
			err,
		)
	}

	return &plan, nil
}

func (s Store) ListMigrationPlans(
	ctx context.Context, taskID string, maxResults int, pageToken string,
) (*store.PagedList[model.MigrationPlan], *contract.Error) {
	maxResults = getMaxResults(maxResults)

	offset, contractError := getOffset(pageToken)
	if contractError != nil {
		return nil, contractError
	}

	transaction := s.db.WithContext(ctx).Model(&model.MigrationPlan{})

	if taskID != "" {
		transaction = transaction.
			Joins("JOIN migration_plan_tasks ON migration_plan_tasks.migration_plan_id = migration_plans.pulp_id").
			Where("migration_plan_tasks.task_id = ?", taskID)
	}

	var plans []model.MigrationPlan
	if err := transaction.
		Order("migration_plans.pulp_created").
		Order("migration_plans.pulp_id").
		Limit(maxResults).
		Offset(offset).
		Find(&plans).Error; err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to list migration plans", err)
	}

	nextPageToken, contractError := mkNextPageToken(len(plans), maxResults, offset)
	if contractError != nil {
		return nil, contractError
	}

	return &store.PagedList[model.MigrationPlan]{
		Items:         plans,
		NextPageToken: nextPageToken,
	}, nil
}

func (s Store) DeleteMigrationPlan(ctx context.Context, id string) *contract.Error {
	var deleted int64

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM migration_plan_tasks WHERE migration_plan_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete migration plan tasks: %w", err)
		}

		result := tx.Where("pulp_id = ?", id).Delete(&model.MigrationPlan{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete migration plan: %w", result.Error)
		}

		deleted = result.RowsAffected

		return nil
	}); err != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to delete migration plan with id=%s", id),
			err,
		)
	}

	if deleted == 0 {
		return contract.NewError(
			contract.ErrorCodeResourceDoesNotExist,
			fmt.Sprintf("migration plan with id=%s not found", id),
		)
	}

	return nil
}

// AddMigrationPlanTask records that a task was dispatched to run the plan.
func (s Store) AddMigrationPlanTask(ctx context.Context, planID, taskID string) *contract.Error {
	if err := s.db.WithContext(ctx).Exec(
		"INSERT INTO migration_plan_tasks (migration_plan_id, task_id) VALUES (?, ?)", planID, taskID,
	).Error; err != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to link task %s to migration plan %s", taskID, planID),
			err,
		)
	}

	return nil
}
