package models

import (
	"fmt"
	"time"
)

// TaskStatus is the kanban column a task sits in. The progression
// backlog → todo → in_progress → testing → done is the conventional flow,
// but backward moves (e.g. testing → in_progress) are deliberately allowed.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "backlog"
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusTesting    TaskStatus = "testing"
	StatusDone       TaskStatus = "done"
)

// statusOrder defines the conventional forward progression. Used by
// NextStatus when applying "advance_status" suggested actions.
var statusOrder = []TaskStatus{
	StatusBacklog,
	StatusTodo,
	StatusInProgress,
	StatusTesting,
	StatusDone,
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	for _, v := range statusOrder {
		if s == v {
			return true
		}
	}
	return false
}

// NextStatus returns the status following s in the conventional progression.
// StatusDone has no successor and is returned unchanged.
func NextStatus(s TaskStatus) TaskStatus {
	for i, v := range statusOrder {
		if s == v && i < len(statusOrder)-1 {
			return statusOrder[i+1]
		}
	}
	return s
}

// TaskPriority ranks tasks for scheduling.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// IsValid reports whether p is one of the known priorities.
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a unit of work tracked by the assistant. Its Confidence field is
// the task's own execution confidence, independent of any Decision's score.
// Mutations go through the task store's optimistic-concurrency check keyed
// on Version; Version is bumped on every successful write.
type Task struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	ProjectID    string       `json:"project_id,omitempty"`
	Confidence   float64      `json:"confidence"`
	Dependencies []string     `json:"dependencies,omitempty"`
	AssignedTo   string       `json:"assigned_to,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	ClientID     string       `json:"client_id,omitempty"`
	Version      int64        `json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ConfidenceLevel returns the bucket for the task's own confidence.
func (t *Task) ConfidenceLevel() ConfidenceLevel {
	return LevelForConfidence(t.Confidence)
}

// RequiresApproval reports whether mutations proposed for this task must
// block on human review. True when the task's own confidence is below the
// approval threshold, or when its latest associated Decision (nil if none)
// was itself flagged for approval.
func (t *Task) RequiresApproval(latest *Decision) bool {
	if ClampConfidence(t.Confidence) < ApprovalThreshold {
		return true
	}
	return latest != nil && latest.RequiresHumanApproval
}

// Validate checks structural invariants enforced at creation time. The data
// model itself does not forbid backward status moves; it does forbid a task
// depending on itself.
func (t *Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid task status: %q", t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("invalid task priority: %q", t.Priority)
	}
	for _, dep := range t.Dependencies {
		if dep == t.ID {
			return fmt.Errorf("task %s must not depend on itself", t.ID)
		}
	}
	return nil
}
