// Package tasking runs named tasks in the background, one at a time per reserved resource.
package tasking

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/metrics"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

// Func is the body of a task. A task fails when it returns an error.
type Func func(ctx context.Context, task *Task) error

var ErrUnknownTask = errors.New("unknown task")

const orphanedReason = "task was interrupted by a restart of the worker"

type queued struct {
	task     *model.Task
	cancel   context.CancelFunc
	canceled bool
}

type Queue struct {
	store   store.TaskStore
	metrics *metrics.Metrics
	workers int
	funcs   map[string]Func

	mu      sync.Mutex
	pending []*queued
	running map[string]*queued
	locks   map[string]string
	done    map[string]chan struct{}
	signal  chan struct{}
}

func NewQueue(taskStore store.TaskStore, workers int, m *metrics.Metrics) *Queue {
	if workers < 1 {
		workers = 1
	}

	return &Queue{
		store:   taskStore,
		metrics: m,
		workers: workers,
		funcs:   make(map[string]Func),
		running: make(map[string]*queued),
		locks:   make(map[string]string),
		done:    make(map[string]chan struct{}),
		signal:  make(chan struct{}),
	}
}

// Register makes a task function available under a name. Call it before Run.
func (q *Queue) Register(name string, fn Func) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.funcs[name] = fn
}

// broadcastLocked wakes every idle worker.
func (q *Queue) broadcastLocked() {
	close(q.signal)
	q.signal = make(chan struct{})
}

// Enqueue persists a waiting task and schedules it.
func (q *Queue) Enqueue(
	ctx context.Context, name string, resources []string, kwargs map[string]any,
) (*model.Task, *contract.Error) {
	reserved := slices.Clone(resources)
	slices.Sort(reserved)
	reserved = slices.Compact(reserved)

	task := &model.Task{
		Name:              name,
		State:             contract.TaskStateWaiting,
		Kwargs:            kwargs,
		ReservedResources: reserved,
	}

	if err := q.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	q.mu.Lock()
	q.pending = append(q.pending, &queued{task: task})
	q.done[task.ID] = make(chan struct{})
	q.broadcastLocked()
	q.mu.Unlock()

	logrus.WithFields(logrus.Fields{"task": task.ID, "name": name}).Info("Task enqueued")

	return task, nil
}

// takeRunnableLocked removes the oldest pending task whose resources are all free
// and reserves them for it.
func (q *Queue) takeRunnableLocked() *queued {
	for i, item := range q.pending {
		free := true

		for _, resource := range item.task.ReservedResources {
			if _, held := q.locks[resource]; held {
				free = false

				break
			}
		}

		if !free {
			continue
		}

		for _, resource := range item.task.ReservedResources {
			q.locks[resource] = item.task.ID
		}

		q.pending = slices.Delete(q.pending, i, i+1)
		q.running[item.task.ID] = item

		return item
	}

	return nil
}

func (q *Queue) next(ctx context.Context) (*queued, error) {
	for {
		q.mu.Lock()
		item := q.takeRunnableLocked()
		signal := q.signal
		q.mu.Unlock()

		if item != nil {
			return item, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-signal:
		}
	}
}

// FailOrphaned fails the tasks a previous process left waiting or running.
// Call it once at startup, before anything is enqueued.
func (q *Queue) FailOrphaned(ctx context.Context) error {
	failed, err := q.store.FailUnfinishedTasks(ctx, orphanedReason)
	if err != nil {
		return err
	}

	if failed > 0 {
		logrus.Warnf("Marked %d unfinished task(s) of a previous run as failed", failed)
	}

	return nil
}

// Run runs the workers until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for worker := 0; worker < q.workers; worker++ {
		worker := worker
		group.Go(func() error {
			logrus.Debugf("Task worker %d started", worker)

			for {
				item, err := q.next(groupCtx)
				if err != nil {
					logrus.Debugf("Task worker %d stopped", worker)

					return nil //nolint:nilerr
				}

				q.execute(groupCtx, item)
			}
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("task workers failed: %w", err)
	}

	return nil
}

func (q *Queue) release(item *queued) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, resource := range item.task.ReservedResources {
		if q.locks[resource] == item.task.ID {
			delete(q.locks, resource)
		}
	}

	delete(q.running, item.task.ID)

	if done, ok := q.done[item.task.ID]; ok {
		close(done)
		delete(q.done, item.task.ID)
	}

	q.broadcastLocked()
}

func (q *Queue) call(ctx context.Context, fn Func, task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			task.Logger().WithField("stack", string(debug.Stack())).Errorf("Task panicked: %v", r)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return fn(ctx, task)
}

//nolint:funlen
func (q *Queue) execute(ctx context.Context, item *queued) {
	defer q.release(item)

	logger := logrus.WithFields(logrus.Fields{"task": item.task.ID, "name": item.task.Name})
	// Final states are recorded even when the workers are shutting down.
	recordCtx := context.WithoutCancel(ctx)

	if err := q.store.TransitionTask(
		recordCtx, item.task.ID, []string{contract.TaskStateWaiting}, contract.TaskStateRunning, time.Now().UTC(), nil,
	); err != nil {
		logger.WithError(err).Info("Task was not started")

		return
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q.mu.Lock()
	item.cancel = cancel
	canceledEarly := item.canceled
	fn, known := q.funcs[item.task.Name]
	q.mu.Unlock()

	if canceledEarly {
		cancel()
	}

	logger.Info("Task started")

	var err error
	if known {
		err = q.call(taskCtx, fn, &Task{
			ID:     item.task.ID,
			Name:   item.task.Name,
			Kwargs: item.task.Kwargs,
			store:  q.store,
			logger: logger,
		})
	} else {
		err = fmt.Errorf("%w: %q", ErrUnknownTask, item.task.Name)
	}

	q.mu.Lock()
	canceled := item.canceled
	q.mu.Unlock()

	state := contract.TaskStateCompleted

	var reason *string

	switch {
	case canceled:
		state = contract.TaskStateCanceled
	case err != nil:
		state = contract.TaskStateFailed
		description := err.Error()
		reason = &description
	}

	if transitionErr := q.store.TransitionTask(
		recordCtx, item.task.ID, []string{contract.TaskStateRunning}, state, time.Now().UTC(), reason,
	); transitionErr != nil {
		logger.WithError(transitionErr).Error("Failed to record the final state of the task")
	}

	q.metrics.TaskFinished(item.task.Name, state)

	entry := logger.WithField("state", state)
	if err != nil && !canceled {
		entry.WithError(err).Error("Task failed")
	} else {
		entry.Info("Task finished")
	}
}

// Cancel cancels a waiting or running task. A running task reaches the canceled state
// once its function returns.
func (q *Queue) Cancel(ctx context.Context, id string) *contract.Error {
	q.mu.Lock()

	for i, item := range q.pending {
		if item.task.ID != id {
			continue
		}

		q.pending = slices.Delete(q.pending, i, i+1)
		q.mu.Unlock()

		err := q.store.TransitionTask(
			ctx, id, []string{contract.TaskStateWaiting}, contract.TaskStateCanceled, time.Now().UTC(), nil,
		)

		q.mu.Lock()
		if done, ok := q.done[id]; ok {
			close(done)
			delete(q.done, id)
		}
		q.mu.Unlock()

		if err != nil {
			return err
		}

		q.metrics.TaskFinished(item.task.Name, contract.TaskStateCanceled)

		return nil
	}

	if item, ok := q.running[id]; ok {
		item.canceled = true
		if item.cancel != nil {
			item.cancel()
		}

		q.mu.Unlock()

		return nil
	}

	q.mu.Unlock()

	// Not scheduled by this queue, like tasks of another process.
	return q.store.TransitionTask(
		ctx, id, []string{contract.TaskStateWaiting, contract.TaskStateRunning},
		contract.TaskStateCanceled, time.Now().UTC(), nil,
	)
}

// Wait blocks until the task reaches a final state and returns it.
func (q *Queue) Wait(ctx context.Context, id string) (*model.Task, *contract.Error) {
	q.mu.Lock()
	done, ok := q.done[id]
	q.mu.Unlock()

	if ok {
		select {
		case <-ctx.Done():
			return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "stopped waiting for task", ctx.Err())
		case <-done:
		}
	}

	return q.store.GetTask(context.WithoutCancel(ctx), id)
}
