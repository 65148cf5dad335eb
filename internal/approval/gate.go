// Package approval implements the confidence-driven decision gate: a pure
// approval-requirement predicate, the pending/approved/rejected/modified
// state machine with compare-and-swap transitions, and the engine that
// wraps agent recommendations and applies approved actions to tasks.
package approval

import "github.com/leanvibe/leanvibe-ai/internal/models"

// DefaultRiskActions are the action types that force human approval
// regardless of confidence when no custom risk list is configured. They are
// the inherently destructive or irreversible operations an agent can
// propose.
var DefaultRiskActions = []string{
	"delete_file",
	"execute_shell",
	"force_push",
	"overwrite_file",
}

// Gate decides whether an agent-proposed action must block on human review.
// It is a pure predicate over (confidence, action types), deliberately kept
// separate from the state machine so it can be tested without any
// concurrency concerns.
type Gate struct {
	threshold   float64
	riskActions map[string]struct{}
}

// NewGate builds a gate with the given confidence threshold and risk-listed
// action types. A non-positive threshold falls back to the model default;
// an empty risk list falls back to DefaultRiskActions.
func NewGate(threshold float64, riskActions []string) *Gate {
	if threshold <= 0 {
		threshold = models.ApprovalThreshold
	}
	if len(riskActions) == 0 {
		riskActions = DefaultRiskActions
	}
	set := make(map[string]struct{}, len(riskActions))
	for _, a := range riskActions {
		set[a] = struct{}{}
	}
	return &Gate{threshold: threshold, riskActions: set}
}

// RequiresHumanApproval reports whether a proposal with the given
// confidence and suggested actions needs a human in the loop. Both
// conditions are evaluated: a sub-threshold confidence gates the proposal
// even with benign actions, and a risk-listed action type gates it even at
// full confidence.
func (g *Gate) RequiresHumanApproval(confidence float64, actions []models.SuggestedAction) bool {
	if models.ClampConfidence(confidence) < g.threshold {
		return true
	}
	for _, action := range actions {
		if _, risky := g.riskActions[action.ActionType]; risky {
			return true
		}
	}
	return false
}
