package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/leanvibe/leanvibe-ai/internal/models"
	"go.uber.org/zap"
)

// DecisionRepository stores the decision audit trail.
type DecisionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDecisionRepository creates a decision repository.
func NewDecisionRepository(db *sql.DB, logger *zap.Logger) *DecisionRepository {
	return &DecisionRepository{db: db, logger: logger}
}

// SaveDecision inserts or replaces the decision row. Implements
// approval.DecisionSink.
func (r *DecisionRepository) SaveDecision(d models.Decision) error {
	actions, err := json.Marshal(d.SuggestedActions)
	if err != nil {
		return fmt.Errorf("failed to encode suggested actions: %w", err)
	}

	query := `
		INSERT INTO decisions (
			id, task_id, recommendation, reasoning, confidence,
			requires_human_approval, suggested_actions, approval_status,
			human_feedback, revision, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			recommendation = excluded.recommendation,
			reasoning = excluded.reasoning,
			suggested_actions = excluded.suggested_actions,
			approval_status = excluded.approval_status,
			human_feedback = excluded.human_feedback,
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`
	_, err = r.db.Exec(query,
		d.ID, nullString(d.TaskID), d.Recommendation, nullString(d.Reasoning), d.Confidence,
		d.RequiresHumanApproval, string(actions), string(d.ApprovalStatus),
		nullString(d.HumanFeedback), d.Revision, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision %s: %w", d.ID, err)
	}
	return nil
}

// ListByTask returns the persisted decisions targeting a task, newest
// first.
func (r *DecisionRepository) ListByTask(taskID string) ([]models.Decision, error) {
	rows, err := r.db.Query(`
		SELECT id, task_id, recommendation, reasoning, confidence,
		       requires_human_approval, suggested_actions, approval_status,
		       human_feedback, revision, created_at, updated_at
		FROM decisions WHERE task_id = ? ORDER BY created_at DESC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var d models.Decision
		var taskCol, reasoning, feedback, actions sql.NullString
		if err := rows.Scan(
			&d.ID, &taskCol, &d.Recommendation, &reasoning, &d.Confidence,
			&d.RequiresHumanApproval, &actions, &d.ApprovalStatus,
			&feedback, &d.Revision, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.TaskID = taskCol.String
		d.Reasoning = reasoning.String
		d.HumanFeedback = feedback.String
		if actions.Valid && actions.String != "" {
			if err := json.Unmarshal([]byte(actions.String), &d.SuggestedActions); err != nil {
				r.logger.Warn("Skipping undecodable suggested actions", zap.String("decision_id", d.ID), zap.Error(err))
			}
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
