// Package board holds the in-memory task collection shown to the user.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harrisonrobin/tasklist/pkg/model"
	"github.com/harrisonrobin/tasklist/pkg/ordering"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// Fetcher loads the full task list.
type Fetcher interface {
	FetchTasks(ctx context.Context) ([]model.Task, error)
}

// Updater sets a task's completion state remotely.
type Updater interface {
	SetComplete(ctx context.Context, id string, isComplete bool) error
}

// Board owns the task collection. Every read hands out copies.
type Board struct {
	mu     sync.RWMutex
	tasks  []model.Task
	logger *log.Logger
}

// New creates an empty board. A nil logger uses the default charm logger.
func New(logger *log.Logger) *Board {
	if logger == nil {
		logger = log.Default()
	}
	return &Board{logger: logger}
}

// Replace swaps the whole collection, as after a successful fetch.
func (b *Board) Replace(tasks []model.Task) {
	next := make([]model.Task, len(tasks))
	copy(next, tasks)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = next
}

// Tasks returns the collection in fetch order.
func (b *Board) Tasks() []model.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Sorted returns the collection ordered for display at now.
func (b *Board) Sorted(now time.Time) []model.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ordering.Sort(b.tasks, now)
}

// Get returns the task with id.
func (b *Board) Get(id string) (model.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.indexOf(id); i >= 0 {
		return b.tasks[i], true
	}
	return model.Task{}, false
}

// Apply sets isComplete on the one task with id. It reports false when the
// task is no longer in the collection, e.g. a fetch replaced it meanwhile.
func (b *Board) Apply(id string, isComplete bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i < 0 {
		return false
	}
	b.tasks[i].IsComplete = isComplete
	return true
}

func (b *Board) indexOf(id string) int {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Refresh replaces the collection with a fresh fetch. On failure the
// collection is left as it was and the error is logged and returned.
func (b *Board) Refresh(ctx context.Context, f Fetcher) error {
	tasks, err := f.FetchTasks(ctx)
	if err != nil {
		b.logger.Error("Error fetching tasks", "err", err)
		return err
	}
	b.Replace(tasks)
	b.logger.Debug("Fetched tasks", "count", len(tasks))
	return nil
}

// Toggle flips the completion state of the task with id by sending the
// negation of its current local value. The local record changes only after
// the update succeeds, so calling Toggle twice flips it back.
func (b *Board) Toggle(ctx context.Context, u Updater, id string) (model.Task, error) {
	task, ok := b.Get(id)
	if !ok {
		b.logger.Error("Error updating task", "task_id", id, "err", ErrNotFound)
		return model.Task{}, ErrNotFound
	}

	desired := !task.IsComplete
	if err := u.SetComplete(ctx, id, desired); err != nil {
		b.logger.Error("Error updating task", "task_id", id, "err", err)
		return task, err
	}

	if !b.Apply(id, desired) {
		b.logger.Warn("Task disappeared during update", "task_id", id)
		return task, ErrNotFound
	}
	task.IsComplete = desired
	b.logger.Info("Updated task", "task_id", id, "is_complete", desired)
	return task, nil
}
