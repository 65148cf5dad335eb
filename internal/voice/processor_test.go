package voice

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestProcessWakePhraseToTaskCommand(t *testing.T) {
	p := NewProcessor(nil, zap.NewNop())

	cmd := p.Process("hey leanvibe show me the tasks")

	assert.Equal(t, "hey leanvibe show me the tasks", cmd.OriginalText)
	assert.Equal(t, IntentTask, cmd.Intent)
	assert.Equal(t, "show me the tasks", cmd.Command)
	assert.GreaterOrEqual(t, cmd.Confidence, 0.5)
	assert.False(t, cmd.CreatedAt.IsZero())
}

func TestProcessExplainCommand(t *testing.T) {
	p := NewProcessor(nil, zap.NewNop())

	cmd := p.Process("explain this function")

	assert.Equal(t, IntentExplain, cmd.Intent)
	assert.Equal(t, CmdExplain, cmd.Command)
}

func TestProcessEmptyInput(t *testing.T) {
	p := NewProcessor(nil, zap.NewNop())

	cmd := p.Process("")

	assert.Equal(t, IntentGeneral, cmd.Intent)
	assert.Equal(t, "", cmd.Command)
	assert.InDelta(t, 0.5, cmd.Confidence, 1e-9)
	assert.Empty(t, cmd.Parameters)
}

func TestProcessListFiles(t *testing.T) {
	p := NewProcessor(nil, zap.NewNop())

	cmd := p.Process("list files")

	assert.Equal(t, IntentFileOperation, cmd.Intent)
	assert.Equal(t, CmdListFiles, cmd.Command)
	assert.GreaterOrEqual(t, cmd.Confidence, 0.8)
	assert.LessOrEqual(t, cmd.Confidence, 1.0)
}

// The pipeline is pure and allocation-only; concurrent callers share one
// Processor without synchronization.
func TestProcessConcurrent(t *testing.T) {
	p := NewProcessor(nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd := p.Process("hey leanvibe list files")
			assert.Equal(t, IntentFileOperation, cmd.Intent)
			assert.Equal(t, CmdListFiles, cmd.Command)
		}()
	}
	wg.Wait()
}
