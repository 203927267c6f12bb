package contract

import (
	"encoding/json"
	"time"
)

const (
	TaskStateWaiting   = "waiting"
	TaskStateRunning   = "running"
	TaskStateCompleted = "completed"
	TaskStateFailed    = "failed"
	TaskStateCanceled  = "canceled"
)

type MigrationPlan struct {
	PulpHref    string          `json:"pulp_href"`
	PulpCreated time.Time       `json:"pulp_created"`
	Plan        json.RawMessage `json:"plan"`
}

type CreateMigrationPlan struct {
	Plan json.RawMessage `json:"plan" validate:"required,jsonObject"`
}

type ListMigrationPlans struct {
	Tasks     string `query:"tasks"`
	Limit     int    `query:"limit"      validate:"gte=0,lte=1000"`
	PageToken string `query:"page_token"`
}

type RunMigrationPlan struct {
	DryRun *bool `json:"dry_run"`
}

// AsyncOperationResponse is returned by endpoints that defer their work to a task.
type AsyncOperationResponse struct {
	Task string `json:"task"`
}

type TaskError struct {
	Description string `json:"description"`
}

type ProgressReport struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	State   string `json:"state"`
	Total   *int64 `json:"total"`
	Done    int64  `json:"done"`
}

type Task struct {
	PulpHref                string           `json:"pulp_href"`
	PulpCreated             time.Time        `json:"pulp_created"`
	Name                    string           `json:"name"`
	State                   string           `json:"state"`
	StartedAt               *time.Time       `json:"started_at"`
	FinishedAt              *time.Time       `json:"finished_at"`
	Error                   *TaskError       `json:"error"`
	ReservedResourcesRecord []string         `json:"reserved_resources_record"`
	ProgressReports         []ProgressReport `json:"progress_reports"`
}

type ListTasks struct {
	State     string `query:"state"      validate:"omitempty,oneof=waiting running completed failed canceled"`
	Name      string `query:"name"`
	Limit     int    `query:"limit"      validate:"gte=0,lte=1000"`
	PageToken string `query:"page_token"`
}

type UpdateTask struct {
	State string `json:"state" validate:"required,oneof=canceled"`
}

type Pulp2Content struct {
	PulpHref           string    `json:"pulp_href"`
	PulpCreated        time.Time `json:"pulp_created"`
	Pulp2ID            string    `json:"pulp2_id"`
	Pulp2ContentTypeID string    `json:"pulp2_content_type_id"`
	Pulp2LastUpdated   int64     `json:"pulp2_last_updated"`
	Pulp2StoragePath   *string   `json:"pulp2_storage_path"`
	Downloaded         bool      `json:"downloaded"`
	Pulp3Content       *string   `json:"pulp3_content"`
}

type SearchPulp2Content struct {
	Filter    string   `query:"filter"`
	OrderBy   []string `query:"order_by"`
	Limit     int      `query:"limit"      validate:"gte=0,lte=1000"`
	PageToken string   `query:"page_token"`
}

type PagedList[T any] struct {
	Results       []T     `json:"results"`
	NextPageToken *string `json:"next_page_token"`
}
