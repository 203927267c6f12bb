package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

func (s Store) CreateTask(ctx context.Context, task *model.Task) *contract.Error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to create task", err)
	}

	return nil
}

func preloadProgressReports(db *gorm.DB) *gorm.DB {
	return db.Order("progress_reports.id")
}

func (s Store) GetTask(ctx context.Context, id string) (*model.Task, *contract.Error) {
	var task model.Task
	if err := s.db.WithContext(ctx).
		Preload("ProgressReports", preloadProgressReports).
		Where("pulp_id = ?", id).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.NewError(
				contract.ErrorCodeResourceDoesNotExist,
				fmt.Sprintf("task with id=%s not found", id),
			)
		}

		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to get task with id=%s", id),
			err,
		)
	}

	return &task, nil
}

func (s Store) ListTasks(
	ctx context.Context, state, name string, maxResults int, pageToken string,
) (*store.PagedList[model.Task], *contract.Error) {
	maxResults = getMaxResults(maxResults)

	offset, contractError := getOffset(pageToken)
	if contractError != nil {
		return nil, contractError
	}

	transaction := s.db.WithContext(ctx).Model(&model.Task{})
	if state != "" {
		transaction = transaction.Where("state = ?", state)
	}

	if name != "" {
		transaction = transaction.Where("name = ?", name)
	}

	var tasks []model.Task
	if err := transaction.
		Preload("ProgressReports", preloadProgressReports).
		Order("pulp_created DESC").
		Order("pulp_id").
		Limit(maxResults).
		Offset(offset).
		Find(&tasks).Error; err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to list tasks", err)
	}

	nextPageToken, contractError := mkNextPageToken(len(tasks), maxResults, offset)
	if contractError != nil {
		return nil, contractError
	}

	return &store.PagedList[model.Task]{
		Items:         tasks,
		NextPageToken: nextPageToken,
	}, nil
}

func (s Store) TransitionTask(
	ctx context.Context, id string, from []string, to string, at time.Time, reason *string,
) *contract.Error {
	updates := map[string]any{"state": to}

	switch to {
	case contract.TaskStateRunning:
		updates["started_at"] = at
	case contract.TaskStateCompleted, contract.TaskStateFailed, contract.TaskStateCanceled:
		updates["finished_at"] = at
	}

	if reason != nil {
		updates["error"] = *reason
	}

	result := s.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("pulp_id = ? AND state IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to move task %s to %s", id, to),
			result.Error,
		)
	}

	if result.RowsAffected > 0 {
		return nil
	}

	task, contractError := s.GetTask(ctx, id)
	if contractError != nil {
		return contractError
	}

	return contract.NewError(
		contract.ErrorCodeResourceConflict,
		fmt.Sprintf("task %s is %s and cannot move to %s", id, task.State, to),
	)
}

func (s Store) FailUnfinishedTasks(ctx context.Context, reason string) (int64, *contract.Error) {
	result := s.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("state IN ?", []string{contract.TaskStateWaiting, contract.TaskStateRunning}).
		Updates(map[string]any{
			"state":       contract.TaskStateFailed,
			"finished_at": time.Now().UTC(),
			"error":       reason,
		})
	if result.Error != nil {
		return 0, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to fail unfinished tasks", result.Error)
	}

	return result.RowsAffected, nil
}

// SaveProgressReport creates the report or updates the one with the same code.
func (s Store) SaveProgressReport(ctx context.Context, taskID string, report model.ProgressReport) *contract.Error {
	report.ID = 0
	report.TaskID = taskID

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"message", "state", "total", "done"}),
	}).Create(&report).Error; err != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			fmt.Sprintf("failed to save progress report %s of task %s", report.Code, taskID),
			err,
		)
	}

	return nil
}
