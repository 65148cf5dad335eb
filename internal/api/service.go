// Package api exposes the decision core over HTTP and routes inbound
// transport messages into it. Agent-originated mutations pass through the
// approval engine; direct human edits bypass it by design.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/leanvibe/leanvibe-ai/internal/agent"
	"github.com/leanvibe/leanvibe-ai/internal/approval"
	"github.com/leanvibe/leanvibe-ai/internal/messages"
	"github.com/leanvibe/leanvibe-ai/internal/models"
	"github.com/leanvibe/leanvibe-ai/internal/taskstore"
	"github.com/leanvibe/leanvibe-ai/internal/voice"
	"go.uber.org/zap"
)

// Broadcaster pushes change messages to connected clients. The websocket
// hub implements it; a nil Broadcaster disables broadcasting.
type Broadcaster interface {
	Broadcast(v interface{})
}

// Service wires the pipeline, task store, and approval engine together
// behind one façade used by both the HTTP handlers and the websocket
// inbound path.
type Service struct {
	processor   *voice.Processor
	tasks       *taskstore.Store
	engine      *approval.Engine
	recommender agent.Recommender
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewService creates the service. recommender and broadcaster may be nil.
func NewService(
	processor *voice.Processor,
	tasks *taskstore.Store,
	engine *approval.Engine,
	recommender agent.Recommender,
	broadcaster Broadcaster,
	logger *zap.Logger,
) *Service {
	return &Service{
		processor:   processor,
		tasks:       tasks,
		engine:      engine,
		recommender: recommender,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// SetBroadcaster installs the broadcaster after construction. The hub and
// the service reference each other, so one side has to be wired late.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ProcessCommand classifies raw text and returns the dispatch message.
func (s *Service) ProcessCommand(text, clientID string) messages.VoiceCommand {
	cmd := s.processor.Process(messages.Sanitize(text))
	return messages.NewVoiceCommand(cmd, clientID)
}

// CreateTask creates a task from a validated create_task message. Direct
// client creation does not pass the approval gate.
func (s *Service) CreateTask(msg messages.CreateTask) (models.Task, error) {
	if err := msg.Validate(); err != nil {
		return models.Task{}, err
	}
	task, err := s.tasks.Create(models.Task{
		Title:       messages.Sanitize(msg.Title),
		Description: messages.Sanitize(msg.Description),
		Priority:    models.TaskPriority(msg.Priority),
		AssignedTo:  msg.AssignedTo,
		Tags:        msg.Tags,
		ClientID:    msg.ClientID,
		Confidence:  1.0, // human-authored tasks carry full confidence
	})
	if err != nil {
		return models.Task{}, err
	}
	s.broadcast(messages.NewTaskUpdate(task, msg.ClientID))
	return task, nil
}

// UpdateTask applies a direct edit under the optimistic-concurrency check.
// On a version conflict with a resolution strategy supplied, the conflict
// is resolved against the currently stored task and retried once; without a
// strategy the conflict is broadcast and surfaced to the caller.
func (s *Service) UpdateTask(task models.Task, expectedVersion int64, clientID string, strategy taskstore.Strategy) (models.Task, error) {
	updated, err := s.tasks.Update(task, expectedVersion)
	if err == nil {
		s.broadcast(messages.NewTaskUpdate(updated, clientID))
		return updated, nil
	}
	if !errors.Is(err, taskstore.ErrVersionConflict) {
		return models.Task{}, err
	}

	current, getErr := s.tasks.Get(task.ID)
	if getErr != nil {
		return models.Task{}, getErr
	}

	if strategy == "" {
		s.notifyConflict(current, task, err)
		return models.Task{}, err
	}

	resolved, resErr := taskstore.Resolve(current, task, strategy)
	if resErr != nil {
		if errors.Is(resErr, taskstore.ErrUserChoiceRequired) {
			s.notifyConflict(current, task, err)
		}
		return models.Task{}, resErr
	}
	updated, err = s.tasks.Update(resolved, current.Version)
	if err != nil {
		return models.Task{}, err
	}
	s.logger.Info("Task conflict resolved",
		zap.String("task_id", task.ID),
		zap.String("strategy", string(strategy)))
	s.broadcast(messages.NewTaskUpdate(updated, clientID))
	return updated, nil
}

// MoveTask transitions a task between statuses as a direct edit.
func (s *Service) MoveTask(id string, status models.TaskStatus, expectedVersion int64, clientID string) (models.Task, error) {
	updated, err := s.tasks.Move(id, status, expectedVersion)
	if err != nil {
		return models.Task{}, err
	}
	s.broadcast(messages.NewTaskUpdate(updated, clientID))
	return updated, nil
}

// Propose asks the agent for a recommendation on a task and wraps it into a
// gated Decision.
func (s *Service) Propose(ctx context.Context, taskID, clientID string) (models.Decision, error) {
	if s.recommender == nil {
		return models.Decision{}, fmt.Errorf("no agent recommender configured")
	}
	task, err := s.tasks.Get(taskID)
	if err != nil {
		return models.Decision{}, err
	}
	proposal, err := s.recommender.Recommend(ctx, task)
	if err != nil {
		return models.Decision{}, err
	}
	decision, err := s.engine.Propose(taskID, proposal)
	if err != nil {
		return models.Decision{}, err
	}
	s.broadcast(messages.NewAgentDecision(decision, clientID))
	if decision.ApprovalStatus == models.ApprovalApproved {
		// Ungated proposals already mutated the task; push the fresh state.
		if updated, err := s.tasks.Get(taskID); err == nil {
			s.broadcast(messages.NewTaskUpdate(updated, clientID))
		}
	}
	return decision, nil
}

// ApproveDecision approves a pending decision on behalf of a reviewer.
func (s *Service) ApproveDecision(id, feedback, clientID string) (models.Decision, error) {
	decision, err := s.engine.Approve(id, feedback)
	if err != nil {
		return models.Decision{}, err
	}
	s.broadcast(messages.NewAgentDecision(decision, clientID))
	if updated, err := s.tasks.Get(decision.TaskID); err == nil {
		s.broadcast(messages.NewTaskUpdate(updated, clientID))
	}
	return decision, nil
}

// RejectDecision rejects a pending decision; the task is untouched.
func (s *Service) RejectDecision(id, feedback, clientID string) (models.Decision, error) {
	decision, err := s.engine.Reject(id, feedback)
	if err != nil {
		return models.Decision{}, err
	}
	s.broadcast(messages.NewAgentDecision(decision, clientID))
	return decision, nil
}

// ModifyDecision applies a human edit to a pending decision.
func (s *Service) ModifyDecision(id, recommendation string, actions []models.SuggestedAction, feedback, clientID string) (models.Decision, error) {
	decision, err := s.engine.Modify(id, recommendation, actions, feedback)
	if err != nil {
		return models.Decision{}, err
	}
	s.broadcast(messages.NewAgentDecision(decision, clientID))
	return decision, nil
}

// Tasks exposes the task store for read paths.
func (s *Service) Tasks() *taskstore.Store {
	return s.tasks
}

// Decisions exposes the decision store for read paths.
func (s *Service) Decisions() *approval.Store {
	return s.engine.Decisions()
}

// HandleInbound routes a validated websocket message. Implements
// ws.InboundHandler.
func (s *Service) HandleInbound(clientID string, msg interface{}) {
	switch m := msg.(type) {
	case *messages.VoiceCommand:
		text := m.OriginalText
		if text == "" {
			text = m.Command
		}
		s.broadcast(s.ProcessCommand(text, clientID))
	case *messages.CreateTask:
		if _, err := s.CreateTask(*m); err != nil {
			s.logger.Warn("Inbound create_task failed", zap.String("client_id", clientID), zap.Error(err))
		}
	case *messages.TaskUpdate:
		if _, err := s.UpdateTask(m.Task, m.Task.Version, clientID, ""); err != nil {
			s.logger.Warn("Inbound task_update failed",
				zap.String("client_id", clientID),
				zap.String("task_id", m.Task.ID),
				zap.Error(err))
		}
	case *messages.ConflictResolution:
		s.handleConflictResolution(clientID, m)
	default:
		s.logger.Warn("Unhandled inbound message type", zap.String("client_id", clientID))
	}
}

// handleConflictResolution re-applies a client's chosen resolution for a
// previously broadcast conflict.
func (s *Service) handleConflictResolution(clientID string, m *messages.ConflictResolution) {
	var task models.Task
	if err := decodeTask(m.ResolvedMessage, &task); err != nil {
		s.logger.Warn("Rejected conflict_resolution with undecodable task",
			zap.String("conflict_id", m.ConflictID),
			zap.Error(err))
		return
	}
	current, err := s.tasks.Get(task.ID)
	if err != nil {
		s.logger.Warn("Conflict resolution for unknown task",
			zap.String("conflict_id", m.ConflictID),
			zap.String("task_id", task.ID))
		return
	}
	if _, err := s.UpdateTask(task, current.Version, clientID, taskstore.Strategy(m.Strategy)); err != nil {
		s.logger.Warn("Conflict resolution failed",
			zap.String("conflict_id", m.ConflictID),
			zap.Error(err))
	}
}

func (s *Service) notifyConflict(current, attempted models.Task, cause error) {
	s.broadcast(messages.ConflictDetected{
		Type:               messages.TypeConflictDetected,
		ConflictID:         uuid.NewString(),
		Description:        fmt.Sprintf("concurrent update to task %s: %v", current.ID, cause),
		AffectedMessageIDs: []string{current.ID},
		SuggestedRes:       string(taskstore.StrategyLastWriteWins),
		UserActionRequired: true,
		Timestamp:          current.UpdatedAt,
	})
}

func (s *Service) broadcast(v interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(v)
	}
}

// decodeTask accepts either a bare task record or a task_update envelope as
// the resolved message payload.
func decodeTask(raw []byte, task *models.Task) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty resolved message")
	}
	if err := json.Unmarshal(raw, task); err == nil && task.ID != "" {
		return nil
	}
	var env struct {
		Task models.Task `json:"task"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if env.Task.ID == "" {
		return fmt.Errorf("resolved message carries no task id")
	}
	*task = env.Task
	return nil
}
