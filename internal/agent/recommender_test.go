package agent

import (
	"testing"

	"github.com/leanvibe/leanvibe-ai/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json untouched", `{"recommendation": "x"}`, `{"recommendation": "x"}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(models.Task{
		Title:      "wire the hub",
		Status:     models.StatusTodo,
		Priority:   models.PriorityHigh,
		Confidence: 0.7,
	})
	assert.Contains(t, prompt, "wire the hub")
	assert.Contains(t, prompt, `"status": "todo"`)
	assert.Contains(t, prompt, `"priority": "high"`)
}
