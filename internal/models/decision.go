package models

import "time"

// ApprovalStatus is the lifecycle state of an agent-proposed Decision.
// Every Decision starts pending. approved and rejected are terminal;
// modified records a human edit and loops back to pending for
// re-evaluation.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalModified ApprovalStatus = "modified"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next. Valid edges: pending → {approved, rejected, modified} and
// modified → pending.
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	switch s {
	case ApprovalPending:
		return next == ApprovalApproved || next == ApprovalRejected || next == ApprovalModified
	case ApprovalModified:
		return next == ApprovalPending
	}
	return false
}

// SuggestedAction is one concrete step an agent proposes as part of a
// Decision. ActionType is the dispatch key the decision engine applies on
// approval; types on the configured risk list force human approval
// regardless of confidence.
type SuggestedAction struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	ActionType  string  `json:"action_type"`
	Confidence  float64 `json:"confidence"`
}

// Decision wraps one agent-proposed action with the confidence and
// reasoning behind it. RequiresHumanApproval is computed once at creation
// and never recomputed; it is a snapshot judgment of the proposal as the
// agent made it, not a live property.
type Decision struct {
	ID                    string            `json:"id"`
	TaskID                string            `json:"task_id,omitempty"`
	Recommendation        string            `json:"recommendation"`
	Reasoning             string            `json:"reasoning,omitempty"`
	Confidence            float64           `json:"confidence"`
	RequiresHumanApproval bool              `json:"requires_human_approval"`
	SuggestedActions      []SuggestedAction `json:"suggested_actions,omitempty"`
	ApprovalStatus        ApprovalStatus    `json:"approval_status"`
	HumanFeedback         string            `json:"human_feedback,omitempty"`
	Revision              int               `json:"revision"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// ConfidenceLevel returns the bucket for the decision's confidence.
func (d *Decision) ConfidenceLevel() ConfidenceLevel {
	return LevelForConfidence(d.Confidence)
}
