package tasking

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

// Task is the handle a task function receives while it runs.
type Task struct {
	ID     string
	Name   string
	Kwargs map[string]any

	store  store.TaskStore
	logger *logrus.Entry
}

func (t *Task) Logger() *logrus.Entry {
	return t.logger
}

// Progress is a progress report of a running task, saved on every change.
type Progress struct {
	mu     sync.Mutex
	task   *Task
	report model.ProgressReport
}

// NewProgress starts a running progress report. A negative total means the total is unknown.
func (t *Task) NewProgress(ctx context.Context, code, message string, total int64) (*Progress, error) {
	progress := &Progress{
		task: t,
		report: model.ProgressReport{
			Code:    code,
			Message: message,
			State:   contract.TaskStateRunning,
		},
	}

	if total >= 0 {
		progress.report.Total = &total
	}

	return progress, progress.saveLocked(ctx)
}

func (p *Progress) saveLocked(ctx context.Context) error {
	if err := p.task.store.SaveProgressReport(ctx, p.task.ID, p.report); err != nil {
		return err
	}

	return nil
}

func (p *Progress) Increment(ctx context.Context, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report.Done += int64(n)

	return p.saveLocked(ctx)
}

// Finish moves the report to a final state.
func (p *Progress) Finish(ctx context.Context, state string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report.State = state

	return p.saveLocked(ctx)
}
