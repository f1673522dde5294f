// Package model defines the Spec, Task, and Session entities shared by the
// loop engine, the orchestrator, and the persistence layer.
package model

import (
	"strings"
	"time"

	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
)

// Spec is a unit of scoped work tracked through the development workflow.
type Spec struct {
	ID          ids.SpecID  `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Phase       ids.Phase   `json:"phase"`
	Status      ids.Status  `json:"status"`
	Tasks       []ids.TaskID `json:"tasks"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewSpec creates a Spec in PhaseSpec/StatusPending. name is trimmed; an
// empty (post-trim) name is rejected with KindValidation.
func NewSpec(id ids.SpecID, name, description string) (*Spec, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errs.New(errs.KindValidation, "spec name cannot be empty")
	}
	now := time.Now().UTC()
	return &Spec{
		ID:          id,
		Name:        trimmed,
		Description: description,
		Phase:       ids.PhaseSpec,
		Status:      ids.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddTask appends taskID if not already present. Idempotent.
func (s *Spec) AddTask(taskID ids.TaskID) {
	for _, t := range s.Tasks {
		if t == taskID {
			return
		}
	}
	s.Tasks = append(s.Tasks, taskID)
	s.UpdatedAt = time.Now().UTC()
}

// RemoveTask drops taskID if present. Idempotent.
func (s *Spec) RemoveTask(taskID ids.TaskID) {
	for i, t := range s.Tasks {
		if t == taskID {
			s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
			s.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// ChangePhase sets the Spec's phase. Same-phase is a no-op. Spec records
// whatever phase it's told to; enforcing sequential-only transitions is
// the Workflow predicate layer's job, not this entity's.
func (s *Spec) ChangePhase(newPhase ids.Phase) {
	if s.Phase == newPhase {
		return
	}
	s.Phase = newPhase
	s.UpdatedAt = time.Now().UTC()
}

// UpdateStatus sets the Spec's status.
func (s *Spec) UpdateStatus(status ids.Status) {
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
}

// Task is a unit of executable work belonging to exactly one Spec.
type Task struct {
	ID           ids.TaskID   `json:"id"`
	SpecID       ids.SpecID   `json:"spec_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       ids.Status   `json:"status"`
	Priority     ids.Priority `json:"priority"`
	Complexity   string       `json:"complexity"`
	Dependencies []ids.TaskID `json:"dependencies"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewTask creates a Task in StatusPending. title is trimmed; an empty
// (post-trim) title is rejected with KindValidation.
func NewTask(id ids.TaskID, specID ids.SpecID, title, description string, priority ids.Priority, complexity string) (*Task, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, errs.New(errs.KindValidation, "task title cannot be empty")
	}
	now := time.Now().UTC()
	return &Task{
		ID:          id,
		SpecID:      specID,
		Title:       trimmed,
		Description: description,
		Status:      ids.StatusPending,
		Priority:    priority,
		Complexity:  complexity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ChangeStatus sets the task's status.
func (t *Task) ChangeStatus(status ids.Status) {
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
}

// AddDependency records that t depends on taskID. Rejects self-dependency
// with KindValidation; duplicate dependencies are a no-op.
func (t *Task) AddDependency(taskID ids.TaskID) error {
	if t.ID == taskID {
		return errs.New(errs.KindValidation, "task cannot depend on itself")
	}
	for _, d := range t.Dependencies {
		if d == taskID {
			return nil
		}
	}
	t.Dependencies = append(t.Dependencies, taskID)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveDependency drops taskID from the dependency list, if present.
func (t *Task) RemoveDependency(taskID ids.TaskID) {
	for i, d := range t.Dependencies {
		if d == taskID {
			t.Dependencies = append(t.Dependencies[:i], t.Dependencies[i+1:]...)
			t.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// HasCircularDependency walks the dependency closure of t within allTasks
// looking for a path back to t.ID.
func (t *Task) HasCircularDependency(allTasks []Task) bool {
	byID := make(map[ids.TaskID]*Task, len(allTasks))
	for i := range allTasks {
		byID[allTasks[i].ID] = &allTasks[i]
	}
	visited := make(map[ids.TaskID]bool)
	return t.reaches(t.ID, byID, visited)
}

func (t *Task) reaches(target ids.TaskID, byID map[ids.TaskID]*Task, visited map[ids.TaskID]bool) bool {
	if visited[t.ID] {
		return false
	}
	visited[t.ID] = true
	for _, depID := range t.Dependencies {
		if depID == target {
			return true
		}
		if dep, ok := byID[depID]; ok {
			if dep.reaches(target, byID, visited) {
				return true
			}
		}
	}
	return false
}

// contextThresholdDefault is the default advisory threshold for context
// usage, matching §4.4's context_threshold default of 70 (0.70).
const contextThresholdDefault = 0.70

// Session is a run of a Spec within a particular Phase.
type Session struct {
	ID            ids.SessionID `json:"id"`
	SpecID        ids.SpecID    `json:"spec_id"`
	TaskID        *ids.TaskID   `json:"task_id,omitempty"`
	Phase         ids.Phase     `json:"phase"`
	StartedAt     time.Time     `json:"started_at"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	ContextUsage  float64       `json:"context_usage"`
}

// NewSession creates an active Session for specID in phase.
func NewSession(id ids.SessionID, specID ids.SpecID, phase ids.Phase) *Session {
	return &Session{
		ID:        id,
		SpecID:    specID,
		Phase:     phase,
		StartedAt: time.Now().UTC(),
	}
}

// End marks the session ended. Idempotent.
func (s *Session) End() {
	if s.EndedAt == nil {
		now := time.Now().UTC()
		s.EndedAt = &now
	}
}

// IsActive reports whether the session has not yet ended.
func (s *Session) IsActive() bool {
	return s.EndedAt == nil
}

// UpdateContextUsage sets the context usage ratio. Rejects values outside
// [0.0, 1.0] with KindValidation.
func (s *Session) UpdateContextUsage(usage float64) error {
	if usage < 0.0 || usage > 1.0 {
		return errs.New(errs.KindValidation, "context usage must be between 0.0 and 1.0")
	}
	s.ContextUsage = usage
	return nil
}

// IsOverThreshold reports whether context usage has crossed the advisory
// threshold (default 0.70, configurable via context_threshold).
func (s *Session) IsOverThreshold(threshold float64) bool {
	if threshold <= 0 {
		threshold = contextThresholdDefault
	}
	return s.ContextUsage >= threshold
}

// Duration returns how long the session has run, or has run so far if
// still active.
func (s *Session) Duration() time.Duration {
	end := time.Now().UTC()
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	return end.Sub(s.StartedAt)
}

// SetTask sets or clears the session's associated Task.
func (s *Session) SetTask(taskID *ids.TaskID) {
	s.TaskID = taskID
}
