// Package taskstore holds tasks in memory behind an optimistic-concurrency
// discipline: every mutation carries the version the caller last observed
// and fails with a conflict when the stored version has moved on. The
// critical sections never touch network or disk; persistence is delegated
// to an optional Persister invoked outside the lock.
package taskstore

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leanvibe/leanvibe-ai/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrTaskNotFound is returned when no task exists for an id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrVersionConflict is returned when an update's expected version no
	// longer matches the stored task. The caller must re-read and retry or
	// run one of the resolution strategies; there is no silent overwrite.
	ErrVersionConflict = errors.New("task version conflict")
)

// Persister receives write-through notifications after successful store
// mutations. Implementations do the actual I/O (e.g. sqlite) and run
// outside the store's lock. A nil Persister disables persistence.
type Persister interface {
	SaveTask(task models.Task) error
	DeleteTask(id string) error
}

// Store is the in-memory task table.
type Store struct {
	mu        sync.RWMutex
	tasks     map[string]*models.Task
	persister Persister
	logger    *zap.Logger
}

// New creates a task store. persister may be nil.
func New(persister Persister, logger *zap.Logger) *Store {
	return &Store{
		tasks:     make(map[string]*models.Task),
		persister: persister,
		logger:    logger,
	}
}

// Create adds a task. Missing fields get defaults (generated id, backlog
// status, medium priority); the confidence is clamped and the
// self-dependency invariant is enforced here, at creation, rather than in
// the data model.
func (s *Store) Create(task models.Task) (models.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.StatusBacklog
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	task.Confidence = models.ClampConfidence(task.Confidence)
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}
	now := time.Now()
	task.Version = 1
	task.CreatedAt = now
	task.UpdatedAt = now

	s.mu.Lock()
	if _, exists := s.tasks[task.ID]; exists {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("task %s already exists", task.ID)
	}
	stored := task
	s.tasks[task.ID] = &stored
	s.mu.Unlock()

	s.persist(task)
	s.logger.Info("Task created",
		zap.String("task_id", task.ID),
		zap.String("status", string(task.Status)),
		zap.Float64("confidence", task.Confidence))
	return task, nil
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	return *t, nil
}

// List returns copies of all tasks, optionally filtered by status, ordered
// by creation time. No global ordering is guaranteed across concurrent
// writers; consumers requiring order must key on the timestamps.
func (s *Store) List(status models.TaskStatus) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Update replaces the stored task's mutable fields, provided the caller's
// expectedVersion still matches. The version is bumped on success.
func (s *Store) Update(task models.Task, expectedVersion int64) (models.Task, error) {
	task.Confidence = models.ClampConfidence(task.Confidence)

	s.mu.Lock()
	stored, ok := s.tasks[task.ID]
	if !ok {
		s.mu.Unlock()
		return models.Task{}, ErrTaskNotFound
	}
	if stored.Version != expectedVersion {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("%w: expected version %d, found %d", ErrVersionConflict, expectedVersion, stored.Version)
	}
	for _, dep := range task.Dependencies {
		if dep == task.ID {
			s.mu.Unlock()
			return models.Task{}, fmt.Errorf("task %s must not depend on itself", task.ID)
		}
	}
	applyUpdate(stored, task)
	stored.Version++
	stored.UpdatedAt = time.Now()
	updated := *stored
	s.mu.Unlock()

	s.persist(updated)
	return updated, nil
}

// Move transitions a task to the given status under the same optimistic
// check. Backward moves are permitted; the model does not enforce a
// forward-only workflow.
func (s *Store) Move(id string, status models.TaskStatus, expectedVersion int64) (models.Task, error) {
	if !status.IsValid() {
		return models.Task{}, fmt.Errorf("invalid task status: %q", status)
	}

	s.mu.Lock()
	stored, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return models.Task{}, ErrTaskNotFound
	}
	if stored.Version != expectedVersion {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("%w: expected version %d, found %d", ErrVersionConflict, expectedVersion, stored.Version)
	}
	stored.Status = status
	stored.Version++
	stored.UpdatedAt = time.Now()
	updated := *stored
	s.mu.Unlock()

	s.persist(updated)
	s.logger.Info("Task moved",
		zap.String("task_id", id),
		zap.String("status", string(status)))
	return updated, nil
}

// Apply mutates a task through fn under the store lock without a version
// check. Reserved for internal callers applying approved decisions, where
// the decision's own compare-and-swap already serialized the mutation.
func (s *Store) Apply(id string, fn func(*models.Task)) (models.Task, error) {
	s.mu.Lock()
	stored, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return models.Task{}, ErrTaskNotFound
	}
	fn(stored)
	stored.Confidence = models.ClampConfidence(stored.Confidence)
	stored.Version++
	stored.UpdatedAt = time.Now()
	updated := *stored
	s.mu.Unlock()

	s.persist(updated)
	return updated, nil
}

// Delete removes a task. Deletion is always an explicit operation; nothing
// in the core deletes tasks implicitly.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.tasks[id]; !ok {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	delete(s.tasks, id)
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.DeleteTask(id); err != nil {
			s.logger.Error("Failed to delete persisted task", zap.String("task_id", id), zap.Error(err))
		}
	}
	return nil
}

// Load seeds the store with previously persisted tasks without invoking the
// persister. Used at startup.
func (s *Store) Load(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		stored := t
		s.tasks[t.ID] = &stored
	}
}

// applyUpdate copies the caller-mutable fields of src onto dst, leaving
// identity and bookkeeping fields alone.
func applyUpdate(dst *models.Task, src models.Task) {
	dst.Title = src.Title
	dst.Description = src.Description
	dst.Status = src.Status
	dst.Priority = src.Priority
	dst.ProjectID = src.ProjectID
	dst.Confidence = src.Confidence
	dst.Dependencies = src.Dependencies
	dst.AssignedTo = src.AssignedTo
	dst.Tags = src.Tags
}

func (s *Store) persist(task models.Task) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveTask(task); err != nil {
		s.logger.Error("Failed to persist task", zap.String("task_id", task.ID), zap.Error(err))
	}
}
