package approval

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/leanvibe/leanvibe-ai/internal/models"
	"github.com/leanvibe/leanvibe-ai/internal/taskstore"
	"go.uber.org/zap"
)

// Proposal is the Decision-shaped payload produced by the external agent
// recommendation feed: what to do, why, how sure, and the concrete steps.
type Proposal struct {
	Recommendation   string
	Reasoning        string
	Confidence       float64
	SuggestedActions []models.SuggestedAction
}

// Engine connects the pieces: it wraps agent proposals into Decisions with
// the approval-requirement rule applied, auto-applies ungated proposals,
// and applies the suggested actions of approved ones to the task store.
type Engine struct {
	gate      *Gate
	decisions *Store
	tasks     *taskstore.Store
	sink      DecisionSink
	logger    *zap.Logger
}

// DecisionSink receives decisions after persistence-worthy changes (created,
// transitioned). Implementations do the I/O; a nil sink disables it.
type DecisionSink interface {
	SaveDecision(d models.Decision) error
}

// NewEngine creates the decision engine. sink may be nil.
func NewEngine(gate *Gate, decisions *Store, tasks *taskstore.Store, sink DecisionSink, logger *zap.Logger) *Engine {
	return &Engine{
		gate:      gate,
		decisions: decisions,
		tasks:     tasks,
		sink:      sink,
		logger:    logger,
	}
}

// Decisions exposes the underlying decision store for read paths.
func (e *Engine) Decisions() *Store {
	return e.decisions
}

// Propose wraps an agent proposal into a pending Decision for the given
// task. The approval requirement is computed once, here, and never
// recomputed. Proposals that clear the gate are applied and approved
// immediately; gated ones stay pending for a human reviewer.
func (e *Engine) Propose(taskID string, p Proposal) (models.Decision, error) {
	if _, err := e.tasks.Get(taskID); err != nil {
		return models.Decision{}, fmt.Errorf("propose decision: %w", err)
	}
	d := models.Decision{
		ID:                    uuid.NewString(),
		TaskID:                taskID,
		Recommendation:        p.Recommendation,
		Reasoning:             p.Reasoning,
		Confidence:            models.ClampConfidence(p.Confidence),
		SuggestedActions:      p.SuggestedActions,
		RequiresHumanApproval: e.gate.RequiresHumanApproval(p.Confidence, p.SuggestedActions),
	}
	d, err := e.decisions.Put(d)
	if err != nil {
		return models.Decision{}, err
	}
	e.logger.Info("Decision proposed",
		zap.String("decision_id", d.ID),
		zap.String("task_id", taskID),
		zap.Float64("confidence", d.Confidence),
		zap.Bool("requires_approval", d.RequiresHumanApproval))

	if !d.RequiresHumanApproval {
		return e.Approve(d.ID, "")
	}
	e.save(d)
	return d, nil
}

// Approve transitions a pending decision to approved and applies its
// suggested actions to the associated task. Exactly one of two concurrent
// Approve/Reject calls can win the compare-and-swap; the loser gets
// ErrConflict.
func (e *Engine) Approve(id, feedback string) (models.Decision, error) {
	d, err := e.decisions.Transition(id, models.ApprovalPending, models.ApprovalApproved, feedback)
	if err != nil {
		return models.Decision{}, err
	}
	e.applyActions(d)
	e.save(d)
	e.logger.Info("Decision approved", zap.String("decision_id", id))
	return d, nil
}

// Reject transitions a pending decision to rejected. No task mutation
// occurs. Cancelling a pending decision is expressed as a rejection.
func (e *Engine) Reject(id, feedback string) (models.Decision, error) {
	d, err := e.decisions.Transition(id, models.ApprovalPending, models.ApprovalRejected, feedback)
	if err != nil {
		return models.Decision{}, err
	}
	e.save(d)
	e.logger.Info("Decision rejected", zap.String("decision_id", id))
	return d, nil
}

// Modify replaces a pending decision's recommendation and actions with the
// human's edit and returns it to pending for re-evaluation.
func (e *Engine) Modify(id, recommendation string, actions []models.SuggestedAction, feedback string) (models.Decision, error) {
	d, err := e.decisions.Modify(id, recommendation, actions, feedback)
	if err != nil {
		return models.Decision{}, err
	}
	e.save(d)
	e.logger.Info("Decision modified",
		zap.String("decision_id", id),
		zap.Int("revision", d.Revision))
	return d, nil
}

// applyActions mutates the decision's task according to its suggested
// actions. Unknown action types are logged and skipped; risk-listed types
// have no built-in applier here on purpose, their execution belongs to the
// external agent once approval is granted.
func (e *Engine) applyActions(d models.Decision) {
	if d.TaskID == "" {
		return
	}
	for _, action := range d.SuggestedActions {
		var err error
		switch action.ActionType {
		case "advance_status":
			_, err = e.tasks.Apply(d.TaskID, func(t *models.Task) {
				t.Status = models.NextStatus(t.Status)
			})
		case "mark_done":
			_, err = e.tasks.Apply(d.TaskID, func(t *models.Task) {
				t.Status = models.StatusDone
			})
		case "start_work":
			_, err = e.tasks.Apply(d.TaskID, func(t *models.Task) {
				t.Status = models.StatusInProgress
			})
		case "raise_priority":
			_, err = e.tasks.Apply(d.TaskID, func(t *models.Task) {
				t.Priority = raisePriority(t.Priority)
			})
		case "set_confidence":
			_, err = e.tasks.Apply(d.TaskID, func(t *models.Task) {
				t.Confidence = action.Confidence
			})
		default:
			e.logger.Warn("Skipping unknown suggested action",
				zap.String("decision_id", d.ID),
				zap.String("action_type", action.ActionType))
			continue
		}
		if err != nil {
			if errors.Is(err, taskstore.ErrTaskNotFound) {
				e.logger.Warn("Decision target task no longer exists",
					zap.String("decision_id", d.ID),
					zap.String("task_id", d.TaskID))
				return
			}
			e.logger.Error("Failed to apply suggested action",
				zap.String("decision_id", d.ID),
				zap.String("action_type", action.ActionType),
				zap.Error(err))
		}
	}
}

func raisePriority(p models.TaskPriority) models.TaskPriority {
	switch p {
	case models.PriorityLow:
		return models.PriorityMedium
	case models.PriorityMedium:
		return models.PriorityHigh
	default:
		return models.PriorityUrgent
	}
}

func (e *Engine) save(d models.Decision) {
	if e.sink == nil {
		return
	}
	if err := e.sink.SaveDecision(d); err != nil {
		e.logger.Error("Failed to persist decision", zap.String("decision_id", d.ID), zap.Error(err))
	}
}
