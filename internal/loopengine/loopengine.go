// Package loopengine drives a Spec's Task queue one Task at a time, with
// dependency gating, bounded per-task retries, and a durable checkpoint that
// lets an interrupted run resume where it left off.
package loopengine

import (
	"context"
	"time"

	"github.com/aad-go/aad/internal/atomicfile"
	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/model"
)

// DefaultMaxRetries is the default per-task retry bound.
const DefaultMaxRetries = 3

// LoopState is the durable state of a Spec's task loop.
type LoopState struct {
	SpecID      ids.SpecID           `json:"spec_id"`
	TaskQueue   []ids.TaskID         `json:"task_queue"`
	CurrentTask *ids.TaskID          `json:"current_task,omitempty"`
	IsActive    bool                 `json:"is_active"`
	RetryCounts map[ids.TaskID]int   `json:"retry_counts"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// New creates an empty, inactive LoopState for specID.
func New(specID ids.SpecID) *LoopState {
	now := time.Now().UTC()
	return &LoopState{
		SpecID:      specID,
		RetryCounts: make(map[ids.TaskID]int),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *LoopState) touch() { s.UpdatedAt = time.Now().UTC() }

// Enqueue pushes taskID to the tail of the queue if not already present.
func (s *LoopState) Enqueue(taskID ids.TaskID) {
	for _, t := range s.TaskQueue {
		if t == taskID {
			return
		}
	}
	s.TaskQueue = append(s.TaskQueue, taskID)
	s.touch()
}

// EnqueueAll enqueues each of taskIDs in order.
func (s *LoopState) EnqueueAll(taskIDs []ids.TaskID) {
	for _, t := range taskIDs {
		s.Enqueue(t)
	}
}

// Dequeue pops the head of the queue. ok is false if the queue was empty.
func (s *LoopState) Dequeue() (taskID ids.TaskID, ok bool) {
	if len(s.TaskQueue) == 0 {
		return "", false
	}
	taskID = s.TaskQueue[0]
	s.TaskQueue = s.TaskQueue[1:]
	s.touch()
	return taskID, true
}

// SetCurrentTask sets or clears the currently executing task.
func (s *LoopState) SetCurrentTask(taskID *ids.TaskID) {
	s.CurrentTask = taskID
	s.touch()
}

// Start marks the loop active.
func (s *LoopState) Start() { s.IsActive = true; s.touch() }

// Pause marks the loop inactive, preserving the current task.
func (s *LoopState) Pause() { s.IsActive = false; s.touch() }

// Resume marks the loop active again.
func (s *LoopState) Resume() { s.IsActive = true; s.touch() }

// Stop marks the loop inactive and clears the current task.
func (s *LoopState) Stop() {
	s.IsActive = false
	s.CurrentTask = nil
	s.touch()
}

// IsQueueEmpty reports whether the task queue has no entries.
func (s *LoopState) IsQueueEmpty() bool { return len(s.TaskQueue) == 0 }

// PendingCount returns the number of tasks still queued.
func (s *LoopState) PendingCount() int { return len(s.TaskQueue) }

// ClearQueue empties the task queue.
func (s *LoopState) ClearQueue() {
	s.TaskQueue = nil
	s.touch()
}

// ContainsTask reports whether taskID is currently queued.
func (s *LoopState) ContainsTask(taskID ids.TaskID) bool {
	for _, t := range s.TaskQueue {
		if t == taskID {
			return true
		}
	}
	return false
}

// PeekNextTask returns the head of the queue without dequeuing it.
func (s *LoopState) PeekNextTask() (ids.TaskID, bool) {
	if len(s.TaskQueue) == 0 {
		return "", false
	}
	return s.TaskQueue[0], true
}

// IncrementRetry bumps taskID's retry count and returns the new value.
func (s *LoopState) IncrementRetry(taskID ids.TaskID) int {
	s.RetryCounts[taskID]++
	s.touch()
	return s.RetryCounts[taskID]
}

// GetRetryCount returns taskID's retry count, 0 if absent.
func (s *LoopState) GetRetryCount(taskID ids.TaskID) int {
	return s.RetryCounts[taskID]
}

// ClearRetry removes taskID's retry count entirely.
func (s *LoopState) ClearRetry(taskID ids.TaskID) {
	delete(s.RetryCounts, taskID)
	s.touch()
}

// MarkTaskFailed increments the task's retry count. The caller decides
// whether to re-enqueue based on the returned count against its retry bound.
func (s *LoopState) MarkTaskFailed(taskID ids.TaskID) int {
	return s.IncrementRetry(taskID)
}

// Save writes the LoopState to path as pretty JSON, atomically.
func (s *LoopState) Save(path string) error {
	if err := atomicfile.WriteJSON(path, s); err != nil {
		return errs.Wrap(errs.KindRepository, "saving loop state", err)
	}
	return nil
}

// Load reads a LoopState from path. Fails with KindRepository if the file
// does not exist or cannot be parsed.
func Load(path string) (*LoopState, error) {
	var s LoopState
	if err := atomicfile.ReadJSON(path, &s); err != nil {
		return nil, errs.Wrap(errs.KindRepository, "loading loop state", err)
	}
	if s.RetryCounts == nil {
		s.RetryCounts = make(map[ids.TaskID]int)
	}
	return &s, nil
}

// NextTask scans the queue for the next runnable Task: one whose retry
// count is under maxRetries, whose status is not Completed, and whose
// dependencies are all Completed. It rotates at most len(queue) candidates
// before giving up, so it never spins forever on an all-blocked queue.
// Skipped candidates (retry-exhausted or already-completed) are dropped;
// blocked candidates are re-enqueued at the tail.
func (s *LoopState) NextTask(allTasks []model.Task, maxRetries int) (ids.TaskID, bool) {
	byID := make(map[ids.TaskID]*model.Task, len(allTasks))
	for i := range allTasks {
		byID[allTasks[i].ID] = &allTasks[i]
	}

	attempts := len(s.TaskQueue)
	for i := 0; i < attempts; i++ {
		candidate, ok := s.Dequeue()
		if !ok {
			return "", false
		}

		if s.GetRetryCount(candidate) >= maxRetries {
			continue
		}

		task, found := byID[candidate]
		if !found || task.Status == ids.StatusCompleted {
			continue
		}

		if dependenciesSatisfied(task, byID) {
			return candidate, true
		}

		s.Enqueue(candidate)
	}
	return "", false
}

func dependenciesSatisfied(task *model.Task, byID map[ids.TaskID]*model.Task) bool {
	for _, dep := range task.Dependencies {
		depTask, ok := byID[dep]
		if !ok || depTask.Status != ids.StatusCompleted {
			return false
		}
	}
	return true
}

// Executor is the injected port that actually performs a Task's work. The
// loop engine never calls a model or spawns a process itself; this is the
// sole point where real execution happens, supplied by the caller.
type Executor func(ctx context.Context, taskID ids.TaskID) (bool, error)

// RunLoop drives tasks to completion (or exhaustion) via execute. It
// enqueues every Pending task, persists to statePath at each transition, and
// returns the final per-task status map. If the context is cancelled or
// Stop is called mid-loop (via state.IsActive=false from another goroutine
// sharing this *LoopState), RunLoop exits preserving state for resume.
func RunLoop(ctx context.Context, state *LoopState, tasks []model.Task, maxRetries int, statePath string, execute Executor) (map[ids.TaskID]ids.Status, error) {
	statuses := make(map[ids.TaskID]ids.Status, len(tasks))
	for _, t := range tasks {
		statuses[t.ID] = t.Status
		if t.Status == ids.StatusPending {
			state.Enqueue(t.ID)
		}
	}

	state.Start()
	if err := state.Save(statePath); err != nil {
		return statuses, err
	}

	for state.IsActive && !state.IsQueueEmpty() {
		select {
		case <-ctx.Done():
			state.Pause()
			if err := state.Save(statePath); err != nil {
				return statuses, err
			}
			return statuses, ctx.Err()
		default:
		}

		next, ok := state.NextTask(snapshotWithStatuses(tasks, statuses), maxRetries)
		if !ok {
			break
		}

		state.SetCurrentTask(&next)
		if err := state.Save(statePath); err != nil {
			return statuses, err
		}

		ok2, err := execute(ctx, next)
		if err == nil && ok2 {
			state.ClearRetry(next)
			statuses[next] = ids.StatusCompleted
		} else {
			newCount := state.MarkTaskFailed(next)
			if newCount < maxRetries {
				state.Enqueue(next)
			}
		}

		state.SetCurrentTask(nil)
		if err := state.Save(statePath); err != nil {
			return statuses, err
		}
	}

	state.Stop()
	if err := state.Save(statePath); err != nil {
		return statuses, err
	}
	return statuses, nil
}

// snapshotWithStatuses returns a copy of tasks with status overridden from
// the live statuses map, so NextTask sees completions RunLoop has recorded
// without mutating the caller's task slice.
func snapshotWithStatuses(tasks []model.Task, statuses map[ids.TaskID]ids.Status) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		t.Status = statuses[t.ID]
		out[i] = t
	}
	return out
}
