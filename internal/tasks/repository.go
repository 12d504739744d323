// Package tasks holds the in-memory task collection and keeps it in step with
// the persistent store: every mutation is saved before it becomes visible.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Store persists the whole collection under one key.
type Store interface {
	Load(ctx context.Context) model.Collection
	Save(ctx context.Context, tasks model.Collection) error
}

type Repository struct {
	mu    sync.Mutex
	store Store
	log   *zap.Logger
	tasks model.Collection

	now   func() time.Time
	newID func() string
}

// New loads the stored collection and returns a repository over it.
func New(ctx context.Context, store Store, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Repository{
		store: store,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	r.tasks = store.Load(ctx)
	return r
}

// Tasks returns a copy of the collection, newest first.
func (r *Repository) Tasks() model.Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks.Clone()
}

func (r *Repository) Get(id string) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := r.tasks.Index(id)
	if index < 0 {
		return model.Task{}, false
	}
	return r.tasks.Clone()[index], true
}

// Reload replaces the in-memory collection with whatever the store holds.
func (r *Repository) Reload(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = r.store.Load(ctx)
}

// Add creates a task from rawName and inserts it at the front.
func (r *Repository) Add(ctx context.Context, rawName string) (model.Task, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return model.Task{}, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	task := model.Task{
		ID:        r.newID(),
		Name:      name,
		CreatedAt: r.stamp(),
	}
	next := make(model.Collection, 0, len(r.tasks)+1)
	next = append(next, task)
	next = append(next, r.tasks.Clone()...)

	if err := r.commit(ctx, next); err != nil {
		return model.Task{}, err
	}
	r.log.Debug("task added", zap.String("id", task.ID))
	return task, nil
}

func (r *Repository) ToggleDone(ctx context.Context, id string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.tasks.Index(id)
	if index < 0 {
		return model.Task{}, ErrNotFound
	}
	next := r.tasks.Clone()
	next[index].Done = !next[index].Done

	if err := r.commit(ctx, next); err != nil {
		return model.Task{}, err
	}
	r.log.Debug("task toggled", zap.String("id", id), zap.Bool("done", next[index].Done))
	return next[index], nil
}

// Rename replaces the task's name and stamps UpdatedAt. An empty name is
// rejected before the id is looked up.
func (r *Repository) Rename(ctx context.Context, id, rawName string) (model.Task, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return model.Task{}, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.tasks.Index(id)
	if index < 0 {
		return model.Task{}, ErrNotFound
	}
	next := r.tasks.Clone()
	updated := r.stamp()
	if prior := lastChange(next[index]); updated.Before(prior) {
		updated = prior
	}
	next[index].Name = name
	next[index].UpdatedAt = &updated

	if err := r.commit(ctx, next); err != nil {
		return model.Task{}, err
	}
	r.log.Debug("task renamed", zap.String("id", id))
	return next[index], nil
}

// Remove deletes the task if present. The collection is saved either way.
func (r *Repository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(model.Collection, 0, len(r.tasks))
	for _, task := range r.tasks.Clone() {
		if task.ID != id {
			next = append(next, task)
		}
	}

	if err := r.commit(ctx, next); err != nil {
		return err
	}
	r.log.Debug("task removed", zap.String("id", id))
	return nil
}

// commit saves next and only then swaps it in. Callers hold r.mu.
func (r *Repository) commit(ctx context.Context, next model.Collection) error {
	if err := r.store.Save(ctx, next); err != nil {
		r.log.Error("save tasks", zap.Error(err))
		return fmt.Errorf("save tasks: %w", err)
	}
	r.tasks = next
	return nil
}

func (r *Repository) stamp() time.Time {
	return r.now().UTC()
}

func lastChange(task model.Task) time.Time {
	if task.UpdatedAt != nil {
		return *task.UpdatedAt
	}
	return task.CreatedAt
}
