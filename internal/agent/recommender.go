// Package agent adapts the external agent recommendation feed. The core
// consumes Decision-shaped proposals; this package produces them from an
// OpenAI-compatible inference service. The decision logic itself lives in
// internal/approval, never here.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leanvibe/leanvibe-ai/internal/approval"
	"github.com/leanvibe/leanvibe-ai/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Recommender produces an action proposal for a task.
type Recommender interface {
	Recommend(ctx context.Context, task models.Task) (approval.Proposal, error)
}

// OpenAIRecommender asks a chat-completion model for a recommendation and
// parses the JSON payload it returns.
type OpenAIRecommender struct {
	client *openai.Client
	model  string
	temp   float32
	logger *zap.Logger
}

// NewOpenAIRecommender creates a recommender against the given API key and
// model.
func NewOpenAIRecommender(apiKey, model string, temperature float32, logger *zap.Logger) *OpenAIRecommender {
	return &OpenAIRecommender{
		client: openai.NewClient(apiKey),
		model:  model,
		temp:   temperature,
		logger: logger,
	}
}

// proposalPayload is the JSON schema the model is instructed to emit.
type proposalPayload struct {
	Recommendation   string  `json:"recommendation"`
	Reasoning        string  `json:"reasoning"`
	Confidence       float64 `json:"confidence"`
	SuggestedActions []struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		ActionType  string  `json:"action_type"`
		Confidence  float64 `json:"confidence"`
	} `json:"suggested_actions"`
}

// Recommend produces a proposal for the task. Confidence values from the
// model are clamped into [0,1]; they are never trusted as-is.
func (r *OpenAIRecommender) Recommend(ctx context.Context, task models.Task) (approval.Proposal, error) {
	prompt := buildPrompt(task)

	r.logger.Debug("Requesting agent recommendation",
		zap.String("task_id", task.ID),
		zap.String("model", r.model))

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.temp,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are the planning agent of a local coding assistant. " +
					"Given a task, propose the single next action. Respond with valid JSON only, " +
					`matching {"recommendation": string, "reasoning": string, "confidence": number, ` +
					`"suggested_actions": [{"title": string, "description": string, "action_type": string, "confidence": number}]}.`,
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return approval.Proposal{}, fmt.Errorf("agent recommendation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return approval.Proposal{}, fmt.Errorf("agent returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = stripCodeFence(content)

	var payload proposalPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		r.logger.Error("Failed to parse agent response",
			zap.Error(err),
			zap.String("content", content))
		return approval.Proposal{}, fmt.Errorf("failed to parse agent response: %w", err)
	}

	proposal := approval.Proposal{
		Recommendation: payload.Recommendation,
		Reasoning:      payload.Reasoning,
		Confidence:     models.ClampConfidence(payload.Confidence),
	}
	for _, a := range payload.SuggestedActions {
		proposal.SuggestedActions = append(proposal.SuggestedActions, models.SuggestedAction{
			Title:       a.Title,
			Description: a.Description,
			ActionType:  a.ActionType,
			Confidence:  models.ClampConfidence(a.Confidence),
		})
	}

	r.logger.Info("Agent recommendation received",
		zap.String("task_id", task.ID),
		zap.Float64("confidence", proposal.Confidence),
		zap.Int("actions", len(proposal.SuggestedActions)))
	return proposal, nil
}

func buildPrompt(task models.Task) string {
	b, _ := json.MarshalIndent(struct {
		Title       string  `json:"title"`
		Description string  `json:"description,omitempty"`
		Status      string  `json:"status"`
		Priority    string  `json:"priority"`
		Confidence  float64 `json:"confidence"`
	}{task.Title, task.Description, string(task.Status), string(task.Priority), task.Confidence}, "", "  ")
	return fmt.Sprintf("Propose the next action for this task:\n%s", b)
}

// stripCodeFence removes a surrounding ```json fence when the model ignores
// the JSON-only instruction.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
