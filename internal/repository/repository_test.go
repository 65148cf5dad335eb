package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leanvibe/leanvibe-ai/internal/models"
	"github.com/leanvibe/leanvibe-ai/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run())
	return db
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db.DB, zap.NewNop())

	now := time.Now().UTC().Truncate(time.Second)
	task := models.Task{
		ID:           "task-1",
		Title:        "persist me",
		Description:  "with all the trimmings",
		Status:       models.StatusInProgress,
		Priority:     models.PriorityHigh,
		ProjectID:    "proj-1",
		Confidence:   0.7,
		Dependencies: []string{"task-0"},
		AssignedTo:   "dev-1",
		Tags:         []string{"backend", "voice"},
		ClientID:     "ios-1",
		Version:      3,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.SaveTask(task))

	loaded, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Status, got.Status)
	assert.Equal(t, task.Dependencies, got.Dependencies)
	assert.Equal(t, task.Tags, got.Tags)
	assert.Equal(t, task.Version, got.Version)
	assert.Equal(t, task.Confidence, got.Confidence)
}

func TestTaskRepositoryUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db.DB, zap.NewNop())

	now := time.Now().UTC()
	task := models.Task{
		ID: "task-1", Title: "v1", Status: models.StatusBacklog,
		Priority: models.PriorityMedium, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.SaveTask(task))

	task.Title = "v2"
	task.Version = 2
	require.NoError(t, repo.SaveTask(task))

	loaded, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1, "save is an upsert, not an append")
	assert.Equal(t, "v2", loaded[0].Title)
	assert.Equal(t, int64(2), loaded[0].Version)
}

func TestTaskRepositoryNullableColumns(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db.DB, zap.NewNop())

	now := time.Now().UTC()
	require.NoError(t, repo.SaveTask(models.Task{
		ID: "task-1", Title: "bare minimum", Status: models.StatusBacklog,
		Priority: models.PriorityLow, Version: 1, CreatedAt: now, UpdatedAt: now,
	}))

	loaded, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Empty(t, loaded[0].Description)
	assert.Empty(t, loaded[0].AssignedTo)
	assert.Empty(t, loaded[0].ClientID)
}

func TestTaskRepositoryDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db.DB, zap.NewNop())

	now := time.Now().UTC()
	require.NoError(t, repo.SaveTask(models.Task{
		ID: "task-1", Title: "doomed", Status: models.StatusBacklog,
		Priority: models.PriorityLow, Version: 1, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, repo.DeleteTask("task-1"))

	loaded, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// Deleting an unknown id is not an error at this layer.
	assert.NoError(t, repo.DeleteTask("task-1"))
}

func TestDecisionRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewDecisionRepository(db.DB, zap.NewNop())

	now := time.Now().UTC().Truncate(time.Second)
	decision := models.Decision{
		ID:                    "d-1",
		TaskID:                "task-1",
		Recommendation:        "mark the task done",
		Reasoning:             "all subtasks verified",
		Confidence:            0.55,
		RequiresHumanApproval: true,
		SuggestedActions: []models.SuggestedAction{
			{Title: "finish", ActionType: "mark_done", Confidence: 0.55},
		},
		ApprovalStatus: models.ApprovalPending,
		Revision:       1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repo.SaveDecision(decision))

	// Transition to approved and persist again: same row, new state.
	decision.ApprovalStatus = models.ApprovalApproved
	decision.HumanFeedback = "ship it"
	require.NoError(t, repo.SaveDecision(decision))

	loaded, err := repo.ListByTask("task-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, models.ApprovalApproved, got.ApprovalStatus)
	assert.Equal(t, "ship it", got.HumanFeedback)
	assert.True(t, got.RequiresHumanApproval)
	assert.Equal(t, decision.SuggestedActions, got.SuggestedActions)
	assert.Equal(t, 1, got.Revision)
}

func TestDecisionRepositoryListByTaskOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewDecisionRepository(db.DB, zap.NewNop())

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"d-1", "d-2"} {
		require.NoError(t, repo.SaveDecision(models.Decision{
			ID:             id,
			TaskID:         "task-1",
			Recommendation: "something",
			ApprovalStatus: models.ApprovalPending,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	loaded, err := repo.ListByTask("task-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "d-2", loaded[0].ID, "newest first")

	other, err := repo.ListByTask("task-unknown")
	require.NoError(t, err)
	assert.Empty(t, other)
}
