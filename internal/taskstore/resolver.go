package taskstore

import (
	"errors"
	"fmt"

	"github.com/leanvibe/leanvibe-ai/internal/models"
)

// Strategy selects how two concurrent updates to the same task are merged
// after a version conflict. The strategy is chosen by the caller, never
// decided inside the store.
type Strategy string

const (
	// StrategyLastWriteWins keeps whichever update carries the later
	// UpdatedAt timestamp. This is the default policy.
	StrategyLastWriteWins Strategy = "last_write_wins"

	// StrategyFirstWriteWins keeps whichever update carries the earlier
	// UpdatedAt timestamp.
	StrategyFirstWriteWins Strategy = "first_write_wins"

	// StrategyMerge combines the two field-wise: per field, the later
	// update wins only where it actually changed something relative to the
	// original.
	StrategyMerge Strategy = "merge"

	// StrategyUserChoice cannot be resolved automatically; Resolve returns
	// ErrUserChoiceRequired so the caller can prompt the human.
	StrategyUserChoice Strategy = "user_choice"
)

// ErrUserChoiceRequired signals that resolution was deferred to the human.
var ErrUserChoiceRequired = errors.New("conflict resolution requires user choice")

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyLastWriteWins, StrategyFirstWriteWins, StrategyMerge, StrategyUserChoice:
		return true
	}
	return false
}

// Resolve merges two conflicting versions of the same task according to the
// strategy. original is the write that landed first, conflicting the write
// that lost the version race. An empty strategy defaults to last-write-wins.
func Resolve(original, conflicting models.Task, strategy Strategy) (models.Task, error) {
	if original.ID != conflicting.ID {
		return models.Task{}, fmt.Errorf("cannot resolve conflict across tasks %s and %s", original.ID, conflicting.ID)
	}
	switch strategy {
	case StrategyLastWriteWins, "":
		if conflicting.UpdatedAt.After(original.UpdatedAt) {
			return conflicting, nil
		}
		return original, nil
	case StrategyFirstWriteWins:
		if conflicting.UpdatedAt.Before(original.UpdatedAt) {
			return conflicting, nil
		}
		return original, nil
	case StrategyMerge:
		return mergeTasks(original, conflicting), nil
	case StrategyUserChoice:
		return models.Task{}, ErrUserChoiceRequired
	default:
		return models.Task{}, fmt.Errorf("unknown conflict resolution strategy: %q", strategy)
	}
}

// mergeTasks overlays the conflicting write's non-zero fields onto the
// winning original. Confidence merges to the more conservative (lower)
// score so a merge never loosens the approval gate.
func mergeTasks(original, conflicting models.Task) models.Task {
	merged := original
	if conflicting.Title != "" && conflicting.Title != original.Title {
		merged.Title = conflicting.Title
	}
	if conflicting.Description != "" && conflicting.Description != original.Description {
		merged.Description = conflicting.Description
	}
	if conflicting.Status != "" && conflicting.Status != original.Status {
		merged.Status = conflicting.Status
	}
	if conflicting.Priority != "" && conflicting.Priority != original.Priority {
		merged.Priority = conflicting.Priority
	}
	if conflicting.AssignedTo != "" {
		merged.AssignedTo = conflicting.AssignedTo
	}
	if len(conflicting.Tags) > 0 {
		merged.Tags = conflicting.Tags
	}
	if conflicting.Confidence < merged.Confidence {
		merged.Confidence = conflicting.Confidence
	}
	if conflicting.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = conflicting.UpdatedAt
	}
	return merged
}
