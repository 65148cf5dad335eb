package approval

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/leanvibe/leanvibe-ai/internal/models"
)

var (
	// ErrDecisionNotFound is returned when no decision exists for an id.
	ErrDecisionNotFound = errors.New("decision not found")

	// ErrConflict is returned when a compare-and-swap transition's expected
	// state no longer matches the stored state. Callers must re-read and
	// retry, or surface the conflict to the reviewer; the store never
	// overwrites silently.
	ErrConflict = errors.New("decision state conflict")

	// ErrInvalidTransition is returned for edges the state machine does not
	// permit, e.g. modified → approved without passing through pending.
	ErrInvalidTransition = errors.New("invalid approval transition")
)

// Store holds decisions and runs their approval state machine. All
// transitions are compare-and-swap: the caller supplies the state it last
// observed and the transition succeeds only if the stored state still
// matches, so two concurrent approvals of the same pending decision cannot
// both succeed. No I/O happens inside the critical section.
type Store struct {
	mu        sync.RWMutex
	decisions map[string]*models.Decision
	history   map[string][]StatusChange
}

// StatusChange is one recorded edge of a decision's state machine, kept as
// an audit trail.
type StatusChange struct {
	From models.ApprovalStatus `json:"from"`
	To   models.ApprovalStatus `json:"to"`
	At   time.Time             `json:"at"`
}

// NewStore creates an empty decision store.
func NewStore() *Store {
	return &Store{
		decisions: make(map[string]*models.Decision),
		history:   make(map[string][]StatusChange),
	}
}

// Put registers a decision. Its status is forced to pending; every decision
// starts there regardless of what the producer filled in.
func (s *Store) Put(d models.Decision) (models.Decision, error) {
	if d.ID == "" {
		return models.Decision{}, fmt.Errorf("decision id must not be empty")
	}
	d.Confidence = models.ClampConfidence(d.Confidence)
	d.ApprovalStatus = models.ApprovalPending
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[d.ID]; exists {
		return models.Decision{}, fmt.Errorf("decision %s already exists", d.ID)
	}
	stored := d
	s.decisions[d.ID] = &stored
	return d, nil
}

// Get returns a copy of the decision with the given id.
func (s *Store) Get(id string) (models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decisions[id]
	if !ok {
		return models.Decision{}, ErrDecisionNotFound
	}
	return *d, nil
}

// List returns copies of all decisions in the given status, newest first.
// An empty status returns everything.
func (s *Store) List(status models.ApprovalStatus) []models.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Decision, 0, len(s.decisions))
	for _, d := range s.decisions {
		if status == "" || d.ApprovalStatus == status {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// LatestForTask returns the most recently created decision targeting the
// given task, or ErrDecisionNotFound when none exists.
func (s *Store) LatestForTask(taskID string) (models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Decision
	for _, d := range s.decisions {
		if d.TaskID != taskID {
			continue
		}
		if latest == nil || d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}
	if latest == nil {
		return models.Decision{}, ErrDecisionNotFound
	}
	return *latest, nil
}

// Transition moves a decision from the state the caller last observed to
// next. Returns ErrConflict when the stored state no longer matches
// expected, ErrInvalidTransition for a forbidden edge, and the updated
// decision on success. Feedback, when non-empty, is recorded on the
// decision.
func (s *Store) Transition(id string, expected, next models.ApprovalStatus, feedback string) (models.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decisions[id]
	if !ok {
		return models.Decision{}, ErrDecisionNotFound
	}
	if d.ApprovalStatus != expected {
		return models.Decision{}, fmt.Errorf("%w: expected %s, found %s", ErrConflict, expected, d.ApprovalStatus)
	}
	if !expected.CanTransitionTo(next) {
		return models.Decision{}, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, expected, next)
	}
	now := time.Now()
	s.history[id] = append(s.history[id], StatusChange{From: d.ApprovalStatus, To: next, At: now})
	d.ApprovalStatus = next
	if feedback != "" {
		d.HumanFeedback = feedback
	}
	d.UpdatedAt = now
	return *d, nil
}

// History returns the recorded status changes for a decision, oldest first.
func (s *Store) History(id string) []StatusChange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	changes := s.history[id]
	out := make([]StatusChange, len(changes))
	copy(out, changes)
	return out
}

// Modify records a human edit of a pending decision: the recommendation and
// suggested actions are replaced, the revision counter is bumped, and the
// decision passes through modified back to pending for re-evaluation.
// Repeated modify cycles are unbounded by explicit design choice; the
// revision counter keeps them auditable. Fails with ErrConflict when the
// decision is no longer pending.
func (s *Store) Modify(id, recommendation string, actions []models.SuggestedAction, feedback string) (models.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decisions[id]
	if !ok {
		return models.Decision{}, ErrDecisionNotFound
	}
	if d.ApprovalStatus != models.ApprovalPending {
		return models.Decision{}, fmt.Errorf("%w: expected %s, found %s", ErrConflict, models.ApprovalPending, d.ApprovalStatus)
	}
	if recommendation != "" {
		d.Recommendation = recommendation
	}
	if actions != nil {
		d.SuggestedActions = actions
	}
	if feedback != "" {
		d.HumanFeedback = feedback
	}
	d.Revision++
	// modified is non-terminal: the edit passes through modified and loops
	// straight back to pending so the revised proposal is re-evaluated like
	// any other. Both edges land in the audit trail.
	now := time.Now()
	s.history[id] = append(s.history[id],
		StatusChange{From: models.ApprovalPending, To: models.ApprovalModified, At: now},
		StatusChange{From: models.ApprovalModified, To: models.ApprovalPending, At: now},
	)
	d.ApprovalStatus = models.ApprovalPending
	d.UpdatedAt = now
	return *d, nil
}
