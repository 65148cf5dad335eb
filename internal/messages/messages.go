// Package messages defines the wire contracts exchanged with the transport
// layer. A payload either fully validates against its schema or produces no
// state mutation; malformed input is rejected wholesale at the boundary.
package messages

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/leanvibe/leanvibe-ai/internal/models"
	"github.com/leanvibe/leanvibe-ai/internal/taskstore"
	"github.com/leanvibe/leanvibe-ai/internal/voice"
)

// Message type discriminators.
const (
	TypeVoiceCommand       = "voice_command"
	TypeTaskUpdate         = "task_update"
	TypeCreateTask         = "create_task"
	TypeAgentDecision      = "agent_decision"
	TypeConflictDetected   = "conflict_detected"
	TypeConflictResolution = "conflict_resolution"
)

// ErrMalformedMessage wraps every boundary validation failure.
var ErrMalformedMessage = errors.New("malformed message")

// controlChars matches control characters stripped from free-text fields
// before they cross into the core.
var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// Sanitize removes control characters from a free-text field.
func Sanitize(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// Envelope is the minimal shape every inbound message must satisfy before
// type-specific decoding.
type Envelope struct {
	Type      string    `json:"type"`
	ClientID  string    `json:"client_id"`
	Timestamp time.Time `json:"timestamp"`
}

// VoiceCommand carries one classified Command to the dispatch layer.
type VoiceCommand struct {
	Type         string            `json:"type"`
	Command      string            `json:"command"`
	OriginalText string            `json:"original_text"`
	Confidence   float64           `json:"confidence"`
	Intent       string            `json:"intent"`
	Parameters   map[string]string `json:"parameters"`
	ClientID     string            `json:"client_id"`
	Timestamp    time.Time         `json:"timestamp"`
}

// NewVoiceCommand builds the dispatch message for a classified command.
func NewVoiceCommand(cmd voice.Command, clientID string) VoiceCommand {
	return VoiceCommand{
		Type:         TypeVoiceCommand,
		Command:      cmd.Command,
		OriginalText: cmd.OriginalText,
		Confidence:   cmd.Confidence,
		Intent:       string(cmd.Intent),
		Parameters:   cmd.Parameters,
		ClientID:     clientID,
		Timestamp:    cmd.CreatedAt,
	}
}

// TaskUpdate broadcasts the full record of a mutated task.
type TaskUpdate struct {
	Type      string      `json:"type"`
	Task      models.Task `json:"task"`
	ClientID  string      `json:"client_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewTaskUpdate builds a task_update broadcast.
func NewTaskUpdate(task models.Task, clientID string) TaskUpdate {
	return TaskUpdate{
		Type:      TypeTaskUpdate,
		Task:      task,
		ClientID:  clientID,
		Timestamp: time.Now(),
	}
}

// CreateTask asks the core to create a task on a client's behalf.
type CreateTask struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	Tags        []string  `json:"tags"`
	ClientID    string    `json:"client_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// Validate checks the create_task schema.
func (m *CreateTask) Validate() error {
	if m.Type != TypeCreateTask {
		return fmt.Errorf("%w: type must be %q", ErrMalformedMessage, TypeCreateTask)
	}
	if Sanitize(m.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrMalformedMessage)
	}
	if m.Priority != "" && !models.TaskPriority(m.Priority).IsValid() {
		return fmt.Errorf("%w: unknown priority %q", ErrMalformedMessage, m.Priority)
	}
	if m.ClientID == "" {
		return fmt.Errorf("%w: client_id must not be empty", ErrMalformedMessage)
	}
	return nil
}

// AgentDecision broadcasts an agent-proposed Decision.
type AgentDecision struct {
	Type      string          `json:"type"`
	Decision  models.Decision `json:"decision"`
	ClientID  string          `json:"client_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewAgentDecision builds an agent_decision broadcast.
func NewAgentDecision(d models.Decision, clientID string) AgentDecision {
	return AgentDecision{
		Type:      TypeAgentDecision,
		Decision:  d,
		ClientID:  clientID,
		Timestamp: time.Now(),
	}
}

// ConflictDetected notifies clients that concurrent updates collided and,
// when user_action_required is set, that resolution is blocked on a human.
type ConflictDetected struct {
	Type               string    `json:"type"`
	ConflictID         string    `json:"conflict_id"`
	Description        string    `json:"description"`
	AffectedMessageIDs []string  `json:"affected_message_ids"`
	SuggestedRes       string    `json:"suggested_resolution"`
	UserActionRequired bool      `json:"user_action_required"`
	Timestamp          time.Time `json:"timestamp"`
}

// ConflictResolution reports how a detected conflict was settled.
type ConflictResolution struct {
	Type               string          `json:"type"`
	ConflictID         string          `json:"conflict_id"`
	Strategy           string          `json:"strategy"`
	OriginalMessage    json.RawMessage `json:"original_message"`
	ConflictingMessage json.RawMessage `json:"conflicting_message"`
	ResolvedMessage    json.RawMessage `json:"resolved_message"`
	Timestamp          time.Time       `json:"timestamp"`
	ClientID           string          `json:"client_id"`
}

// Validate checks the conflict_resolution schema, including that the
// strategy is one of the supported policies.
func (m *ConflictResolution) Validate() error {
	if m.Type != TypeConflictResolution {
		return fmt.Errorf("%w: type must be %q", ErrMalformedMessage, TypeConflictResolution)
	}
	if m.ConflictID == "" {
		return fmt.Errorf("%w: conflict_id must not be empty", ErrMalformedMessage)
	}
	if !taskstore.Strategy(m.Strategy).IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrMalformedMessage, m.Strategy)
	}
	return nil
}

// Parse decodes and validates one inbound payload, returning the typed
// message. Unknown types, undecodable JSON, and schema violations all
// return an error wrapping ErrMalformedMessage so the boundary can reject
// them without partial application.
func Parse(raw []byte) (interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch env.Type {
	case TypeVoiceCommand:
		var m VoiceCommand
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if Sanitize(m.OriginalText) == "" && Sanitize(m.Command) == "" {
			return nil, fmt.Errorf("%w: voice_command requires text", ErrMalformedMessage)
		}
		return &m, nil
	case TypeCreateTask:
		var m CreateTask
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case TypeTaskUpdate:
		var m TaskUpdate
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if m.Task.ID == "" {
			return nil, fmt.Errorf("%w: task_update requires task.id", ErrMalformedMessage)
		}
		return &m, nil
	case TypeConflictResolution:
		var m ConflictResolution
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, env.Type)
	}
}
