package api

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/leanvibe/leanvibe-ai/internal/approval"
	"github.com/leanvibe/leanvibe-ai/internal/messages"
	"github.com/leanvibe/leanvibe-ai/internal/models"
	"github.com/leanvibe/leanvibe-ai/internal/taskstore"
	"github.com/leanvibe/leanvibe-ai/internal/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingBroadcaster captures everything the service pushes to clients.
type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []interface{}
}

func (r *recordingBroadcaster) Broadcast(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, v)
}

func (r *recordingBroadcaster) messages() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interface{}, len(r.sent))
	copy(out, r.sent)
	return out
}

func newTestService(t *testing.T) (*Service, *taskstore.Store, *recordingBroadcaster) {
	t.Helper()
	logger := zap.NewNop()
	tasks := taskstore.New(nil, logger)
	engine := approval.NewEngine(approval.NewGate(0.8, nil), approval.NewStore(), tasks, nil, logger)
	broadcaster := &recordingBroadcaster{}
	service := NewService(voice.NewProcessor(nil, logger), tasks, engine, nil, broadcaster, logger)
	return service, tasks, broadcaster
}

func TestServiceProcessCommandSanitizesInput(t *testing.T) {
	service, _, _ := newTestService(t)

	vc := service.ProcessCommand("hey leanvibe\x00 show status", "ios-1")
	assert.Equal(t, "/status", vc.Command)
	assert.Equal(t, "ios-1", vc.ClientID)
	assert.NotContains(t, vc.OriginalText, "\x00")
}

func TestServiceCreateTaskBroadcasts(t *testing.T) {
	service, _, broadcaster := newTestService(t)

	task, err := service.CreateTask(messages.CreateTask{
		Type:     messages.TypeCreateTask,
		Title:    "broadcast me",
		ClientID: "web-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, task.Confidence, "human-authored tasks carry full confidence")

	sent := broadcaster.messages()
	require.Len(t, sent, 1)
	update, ok := sent[0].(messages.TaskUpdate)
	require.True(t, ok)
	assert.Equal(t, task.ID, update.Task.ID)
}

func TestServiceUpdateTaskConflictBroadcastsWithoutStrategy(t *testing.T) {
	service, tasks, broadcaster := newTestService(t)
	task, err := tasks.Create(models.Task{Title: "contended"})
	require.NoError(t, err)

	first := task
	first.Title = "first writer"
	_, err = service.UpdateTask(first, task.Version, "client-a", "")
	require.NoError(t, err)

	stale := task
	stale.Title = "second writer"
	_, err = service.UpdateTask(stale, task.Version, "client-b", "")
	require.ErrorIs(t, err, taskstore.ErrVersionConflict)

	var sawConflict bool
	for _, m := range broadcaster.messages() {
		if cd, ok := m.(messages.ConflictDetected); ok {
			sawConflict = true
			assert.True(t, cd.UserActionRequired)
			assert.Contains(t, cd.AffectedMessageIDs, task.ID)
		}
	}
	assert.True(t, sawConflict, "unresolvable conflicts are pushed to clients")
}

func TestServiceUpdateTaskUserChoiceStrategyDefers(t *testing.T) {
	service, tasks, _ := newTestService(t)
	task, err := tasks.Create(models.Task{Title: "contended"})
	require.NoError(t, err)

	first := task
	first.Title = "first writer"
	_, err = service.UpdateTask(first, task.Version, "client-a", "")
	require.NoError(t, err)

	stale := task
	stale.Title = "second writer"
	_, err = service.UpdateTask(stale, task.Version, "client-b", taskstore.StrategyUserChoice)
	assert.ErrorIs(t, err, taskstore.ErrUserChoiceRequired)
}

func TestServiceHandleInboundCreateTask(t *testing.T) {
	service, tasks, _ := newTestService(t)

	service.HandleInbound("web-1", &messages.CreateTask{
		Type:     messages.TypeCreateTask,
		Title:    "from the socket",
		ClientID: "web-1",
	})

	list := tasks.List("")
	require.Len(t, list, 1)
	assert.Equal(t, "from the socket", list[0].Title)
}

func TestServiceHandleInboundVoiceCommand(t *testing.T) {
	service, _, broadcaster := newTestService(t)

	service.HandleInbound("ios-1", &messages.VoiceCommand{
		Type:         messages.TypeVoiceCommand,
		OriginalText: "list files",
	})

	sent := broadcaster.messages()
	require.Len(t, sent, 1)
	vc, ok := sent[0].(messages.VoiceCommand)
	require.True(t, ok)
	assert.Equal(t, "/list-files", vc.Command)
	assert.Equal(t, "ios-1", vc.ClientID)
}

func TestServiceHandleInboundConflictResolution(t *testing.T) {
	service, tasks, _ := newTestService(t)
	task, err := tasks.Create(models.Task{Title: "conflicted"})
	require.NoError(t, err)

	resolved := task
	resolved.Title = "the human picked this one"
	raw, err := json.Marshal(resolved)
	require.NoError(t, err)

	service.HandleInbound("web-1", &messages.ConflictResolution{
		Type:            messages.TypeConflictResolution,
		ConflictID:      "conf-1",
		Strategy:        string(taskstore.StrategyLastWriteWins),
		ResolvedMessage: raw,
		ClientID:        "web-1",
	})

	got, err := tasks.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "the human picked this one", got.Title)
}
