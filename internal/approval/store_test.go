package approval

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leanvibe/leanvibe-ai/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingDecision(t *testing.T, s *Store, id string) models.Decision {
	t.Helper()
	d, err := s.Put(models.Decision{
		ID:             id,
		TaskID:         "task-1",
		Recommendation: "mark the task done",
		Confidence:     0.6,
		SuggestedActions: []models.SuggestedAction{
			{Title: "finish", ActionType: "mark_done", Confidence: 0.6},
		},
	})
	require.NoError(t, err)
	return d
}

func TestStorePutForcesPending(t *testing.T) {
	s := NewStore()
	d, err := s.Put(models.Decision{ID: "d-1", ApprovalStatus: models.ApprovalApproved, Confidence: 1.4})
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalPending, d.ApprovalStatus)
	assert.Equal(t, 1.0, d.Confidence)
	assert.False(t, d.CreatedAt.IsZero())

	_, err = s.Put(models.Decision{ID: "d-1"})
	assert.Error(t, err, "duplicate id must be rejected")

	_, err = s.Put(models.Decision{})
	assert.Error(t, err, "empty id must be rejected")
}

func TestStoreTransition(t *testing.T) {
	s := NewStore()
	newPendingDecision(t, s, "d-1")

	got, err := s.Transition("d-1", models.ApprovalPending, models.ApprovalApproved, "looks right")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, got.ApprovalStatus)
	assert.Equal(t, "looks right", got.HumanFeedback)

	// The first observer already won; a second approval of the same
	// pending decision must fail with a conflict, not overwrite.
	_, err = s.Transition("d-1", models.ApprovalPending, models.ApprovalRejected, "")
	assert.ErrorIs(t, err, ErrConflict)

	// Terminal states have no outgoing edges.
	_, err = s.Transition("d-1", models.ApprovalApproved, models.ApprovalPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Transition("missing", models.ApprovalPending, models.ApprovalApproved, "")
	assert.ErrorIs(t, err, ErrDecisionNotFound)
}

func TestStoreConcurrentApprovalsExactlyOneWins(t *testing.T) {
	s := NewStore()
	newPendingDecision(t, s, "d-1")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Transition("d-1", models.ApprovalPending, models.ApprovalApproved, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, errors.Is(err, ErrConflict))
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent approval must succeed")
}

func TestStoreModify(t *testing.T) {
	s := NewStore()
	newPendingDecision(t, s, "d-1")

	edited := []models.SuggestedAction{
		{Title: "start instead", ActionType: "start_work", Confidence: 0.6},
	}
	got, err := s.Modify("d-1", "start work first", edited, "too eager")
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalPending, got.ApprovalStatus, "modified loops back to pending")
	assert.Equal(t, 1, got.Revision)
	assert.Equal(t, "start work first", got.Recommendation)
	assert.Equal(t, edited, got.SuggestedActions)
	assert.Equal(t, "too eager", got.HumanFeedback)

	// Repeated edits keep bumping the revision; the cycle count is not
	// capped.
	got, err = s.Modify("d-1", "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Revision)
	assert.Equal(t, "start work first", got.Recommendation, "empty fields leave prior values")

	// Once resolved, further edits conflict.
	_, err = s.Transition("d-1", models.ApprovalPending, models.ApprovalRejected, "")
	require.NoError(t, err)
	_, err = s.Modify("d-1", "again", nil, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestStoreHistory(t *testing.T) {
	s := NewStore()
	newPendingDecision(t, s, "d-1")

	_, err := s.Modify("d-1", "edited", nil, "")
	require.NoError(t, err)
	_, err = s.Transition("d-1", models.ApprovalPending, models.ApprovalApproved, "")
	require.NoError(t, err)

	h := s.History("d-1")
	require.Len(t, h, 3)
	assert.Equal(t, models.ApprovalModified, h[0].To)
	assert.Equal(t, models.ApprovalPending, h[1].To)
	assert.Equal(t, models.ApprovalApproved, h[2].To)
	for _, c := range h {
		assert.False(t, c.At.IsZero())
	}

	assert.Empty(t, s.History("missing"))
}

func TestStoreListAndLatestForTask(t *testing.T) {
	s := NewStore()
	_, err := s.Put(models.Decision{ID: "d-1", TaskID: "task-1", CreatedAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	_, err = s.Put(models.Decision{ID: "d-2", TaskID: "task-1", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = s.Transition("d-1", models.ApprovalPending, models.ApprovalRejected, "")
	require.NoError(t, err)

	all := s.List("")
	require.Len(t, all, 2)
	assert.Equal(t, "d-2", all[0].ID, "newest first")

	pending := s.List(models.ApprovalPending)
	require.Len(t, pending, 1)
	assert.Equal(t, "d-2", pending[0].ID)

	latest, err := s.LatestForTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, "d-2", latest.ID)

	_, err = s.LatestForTask("task-unknown")
	assert.ErrorIs(t, err, ErrDecisionNotFound)
}
