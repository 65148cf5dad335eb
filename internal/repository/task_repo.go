// Package repository persists tasks and decisions in sqlite. It sits behind
// the core's Persister/DecisionSink interfaces so the decision logic itself
// never blocks on disk.
package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/leanvibe/leanvibe-ai/internal/models"
	"go.uber.org/zap"
)

// TaskRepository stores tasks.
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a task repository.
func NewTaskRepository(db *sql.DB, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// SaveTask inserts or replaces the task row. Implements taskstore.Persister.
func (r *TaskRepository) SaveTask(task models.Task) error {
	deps, err := json.Marshal(task.Dependencies)
	if err != nil {
		return fmt.Errorf("failed to encode dependencies: %w", err)
	}
	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO tasks (
			id, title, description, status, priority, project_id,
			confidence, dependencies, assigned_to, tags, client_id,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			project_id = excluded.project_id,
			confidence = excluded.confidence,
			dependencies = excluded.dependencies,
			assigned_to = excluded.assigned_to,
			tags = excluded.tags,
			client_id = excluded.client_id,
			version = excluded.version,
			updated_at = excluded.updated_at
	`
	_, err = r.db.Exec(query,
		task.ID, task.Title, nullString(task.Description), string(task.Status), string(task.Priority),
		nullString(task.ProjectID), task.Confidence, string(deps), nullString(task.AssignedTo),
		string(tags), nullString(task.ClientID), task.Version, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// DeleteTask removes the task row. Implements taskstore.Persister.
func (r *TaskRepository) DeleteTask(id string) error {
	if _, err := r.db.Exec("DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// LoadAll returns every persisted task, used to seed the in-memory store at
// startup.
func (r *TaskRepository) LoadAll() ([]models.Task, error) {
	rows, err := r.db.Query(`
		SELECT id, title, description, status, priority, project_id,
		       confidence, dependencies, assigned_to, tags, client_id,
		       version, created_at, updated_at
		FROM tasks ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var description, projectID, assignedTo, clientID sql.NullString
		var deps, tags sql.NullString
		if err := rows.Scan(
			&t.ID, &t.Title, &description, &t.Status, &t.Priority, &projectID,
			&t.Confidence, &deps, &assignedTo, &tags, &clientID,
			&t.Version, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Description = description.String
		t.ProjectID = projectID.String
		t.AssignedTo = assignedTo.String
		t.ClientID = clientID.String
		if deps.Valid && deps.String != "" {
			if err := json.Unmarshal([]byte(deps.String), &t.Dependencies); err != nil {
				r.logger.Warn("Skipping undecodable task dependencies", zap.String("task_id", t.ID), zap.Error(err))
			}
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
				r.logger.Warn("Skipping undecodable task tags", zap.String("task_id", t.ID), zap.Error(err))
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
