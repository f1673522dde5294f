// Package registry implements the Orchestrator's Session bookkeeping: the
// session map, status map, start-time map, and retry-count map, all behind
// a single shared-access guard admitting many concurrent readers or one
// exclusive writer.
package registry

import (
	"sync"
	"time"

	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/model"
)

// Registry holds every Session the Orchestrator knows about.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[ids.SessionID]model.Session
	statuses    map[ids.SessionID]ids.SessionStatus
	startTimes  map[ids.SessionID]time.Time
	retryCounts map[ids.SessionID]int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		sessions:    make(map[ids.SessionID]model.Session),
		statuses:    make(map[ids.SessionID]ids.SessionStatus),
		startTimes:  make(map[ids.SessionID]time.Time),
		retryCounts: make(map[ids.SessionID]int),
	}
}

// Add inserts a new session at SessionPending. Fails with
// KindSessionAlreadyExists if the id is already registered.
func (r *Registry) Add(session model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return errs.New(errs.KindSessionAlreadyExists, string(session.ID))
	}
	r.sessions[session.ID] = session
	r.statuses[session.ID] = ids.SessionPending
	return nil
}

// Remove atomically drops every trace of id from the registry.
func (r *Registry) Remove(id ids.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	delete(r.statuses, id)
	delete(r.startTimes, id)
	delete(r.retryCounts, id)
}

// Get returns a copy of the session, and whether it was found.
func (r *Registry) Get(id ids.SessionID) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Status returns id's current status, and whether it was found.
func (r *Registry) Status(id ids.SessionID) (ids.SessionStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.statuses[id]
	return s, ok
}

// SetStatus writes id's status. No-op if id is not registered.
func (r *Registry) SetStatus(id ids.SessionID, status ids.SessionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return
	}
	r.statuses[id] = status
}

// StartTime returns id's recorded start time, and whether one exists.
func (r *Registry) StartTime(id ids.SessionID) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.startTimes[id]
	return t, ok
}

// SetStartTime records id's start time as now.
func (r *Registry) SetStartTime(id ids.SessionID, when time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTimes[id] = when
}

// ClearStartTime removes id's start-time entry.
func (r *Registry) ClearStartTime(id ids.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.startTimes, id)
}

// RetryCount returns id's retry count; absent is 0.
func (r *Registry) RetryCount(id ids.SessionID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.retryCounts[id]
}

// IncrementRetry bumps id's retry count and returns the new value.
func (r *Registry) IncrementRetry(id ids.SessionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryCounts[id]++
	return r.retryCounts[id]
}

// ClearRetry removes id's retry-count entry.
func (r *Registry) ClearRetry(id ids.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.retryCounts, id)
}

// IDs returns every registered SessionID, unordered.
func (r *Registry) IDs() []ids.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ids.SessionID, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns a consistent copy of every status, keyed by SessionID,
// taken under a single read lock.
func (r *Registry) Snapshot() map[ids.SessionID]ids.SessionStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[ids.SessionID]ids.SessionStatus, len(r.statuses))
	for id, status := range r.statuses {
		out[id] = status
	}
	return out
}
