package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
)

// Task mapped from table <tasks>.
type Task struct {
	ID                string           `gorm:"column:pulp_id;primaryKey;size:36"`
	CreatedAt         time.Time        `gorm:"column:pulp_created;not null;index"`
	Name              string           `gorm:"column:name;size:255;not null;index"`
	State             string           `gorm:"column:state;size:32;not null;index"`
	Kwargs            map[string]any   `gorm:"column:kwargs;type:text;serializer:json"`
	ReservedResources []string         `gorm:"column:reserved_resources_record;type:text;serializer:json"`
	StartedAt         *time.Time       `gorm:"column:started_at"`
	FinishedAt        *time.Time       `gorm:"column:finished_at"`
	Error             *string          `gorm:"column:error;type:text"`
	ProgressReports   []ProgressReport `gorm:"foreignKey:TaskID"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(_ *gorm.DB) error {
	newID(&t.ID)
	return nil
}

// IsFinal reports whether the task reached a state it never leaves.
func (t Task) IsFinal() bool {
	switch t.State {
	case contract.TaskStateCompleted, contract.TaskStateFailed, contract.TaskStateCanceled:
		return true
	default:
		return false
	}
}

func (t Task) ToContract(apiRoot string) *contract.Task {
	reports := make([]contract.ProgressReport, 0, len(t.ProgressReports))
	for _, report := range t.ProgressReports {
		reports = append(reports, report.ToContract())
	}

	var taskError *contract.TaskError
	if t.Error != nil {
		taskError = &contract.TaskError{Description: *t.Error}
	}

	resources := t.ReservedResources
	if resources == nil {
		resources = []string{}
	}

	return &contract.Task{
		PulpHref:                contract.Href(apiRoot, contract.TasksEndpoint, t.ID),
		PulpCreated:             t.CreatedAt,
		Name:                    t.Name,
		State:                   t.State,
		StartedAt:               t.StartedAt,
		FinishedAt:              t.FinishedAt,
		Error:                   taskError,
		ReservedResourcesRecord: resources,
		ProgressReports:         reports,
	}
}

// ProgressReport mapped from table <progress_reports>.
type ProgressReport struct {
	ID      uint   `gorm:"column:id;primaryKey;autoIncrement"`
	TaskID  string `gorm:"column:task_id;size:36;not null;uniqueIndex:idx_progress_report_code"`
	Code    string `gorm:"column:code;size:255;not null;uniqueIndex:idx_progress_report_code"`
	Message string `gorm:"column:message;type:text"`
	State   string `gorm:"column:state;size:32;not null"`
	Total   *int64 `gorm:"column:total"`
	Done    int64  `gorm:"column:done;not null"`
}

func (ProgressReport) TableName() string {
	return "progress_reports"
}

func (r ProgressReport) ToContract() contract.ProgressReport {
	return contract.ProgressReport{
		Message: r.Message,
		Code:    r.Code,
		State:   r.State,
		Total:   r.Total,
		Done:    r.Done,
	}
}
