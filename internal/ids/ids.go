// Package ids defines the opaque identifier and enumeration types shared by
// every other package in the orchestrator core: SpecID, TaskID, SessionID,
// Phase, Status, SessionStatus and Priority.
package ids

import "github.com/google/uuid"

// SpecID identifies a Spec. Stable across runs; caller-supplied or derived.
type SpecID string

// TaskID identifies a Task within a Spec. Stable across runs.
type TaskID string

// SessionID identifies a Session. Minted when the Session is created.
type SessionID string

// NewSessionID mints a fresh, unique SessionID.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Phase is a stage in the development workflow. Transitions are strictly
// sequential: Spec -> Tasks -> Tdd -> Review -> Retro -> Merge.
type Phase int

const (
	PhaseSpec Phase = iota
	PhaseTasks
	PhaseTdd
	PhaseReview
	PhaseRetro
	PhaseMerge
)

var phaseOrder = []Phase{PhaseSpec, PhaseTasks, PhaseTdd, PhaseReview, PhaseRetro, PhaseMerge}

var phaseNames = map[Phase]string{
	PhaseSpec:   "Spec",
	PhaseTasks:  "Tasks",
	PhaseTdd:    "Tdd",
	PhaseReview: "Review",
	PhaseRetro:  "Retro",
	PhaseMerge:  "Merge",
}

// String returns the display name of the phase.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}

// Next returns the phase that follows p, and false if p is already the last
// phase.
func (p Phase) Next() (Phase, bool) {
	if int(p) < 0 || int(p) >= len(phaseOrder)-1 {
		return p, false
	}
	return phaseOrder[int(p)+1], true
}

// IsLast reports whether p is the terminal phase (Merge).
func (p Phase) IsLast() bool {
	return p == PhaseMerge
}

// ParsePhase looks up a Phase by its display name (case-sensitive, matching
// the names used throughout persisted state and the CLI).
func ParsePhase(name string) (Phase, bool) {
	for p, n := range phaseNames {
		if n == name {
			return p, true
		}
	}
	return PhaseSpec, false
}

// Status is the life-cycle status of a Spec or a Task.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
	StatusBlocked
)

var statusNames = map[Status]string{
	StatusPending:    "Pending",
	StatusInProgress: "InProgress",
	StatusCompleted:  "Completed",
	StatusBlocked:    "Blocked",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsTerminal reports whether s is a terminal status (only Completed today).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// ParseStatus looks up a Status by its display name.
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return StatusPending, false
}

// SessionStatus is the life-cycle status of a Session.
type SessionStatus int

const (
	SessionPending SessionStatus = iota
	SessionRunning
	SessionCompleted
	SessionTimedOut
	SessionFailed
)

var sessionStatusNames = map[SessionStatus]string{
	SessionPending:   "Pending",
	SessionRunning:   "Running",
	SessionCompleted: "Completed",
	SessionTimedOut:  "TimedOut",
	SessionFailed:    "Failed",
}

func (s SessionStatus) String() string {
	if name, ok := sessionStatusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsTerminal reports whether s is one of the three terminal session
// statuses: Completed, TimedOut, Failed.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionTimedOut, SessionFailed:
		return true
	}
	return false
}

// ParseSessionStatus looks up a SessionStatus by its display name.
func ParseSessionStatus(name string) (SessionStatus, bool) {
	for s, n := range sessionStatusNames {
		if n == name {
			return s, true
		}
	}
	return SessionPending, false
}

// AllSessionStatuses lists every SessionStatus variant, used when tallying
// progress counters.
func AllSessionStatuses() []SessionStatus {
	return []SessionStatus{SessionPending, SessionRunning, SessionCompleted, SessionTimedOut, SessionFailed}
}

// Priority is a total-ordered task priority: Must > Should > Could > Wont.
type Priority int

const (
	PriorityWont Priority = iota
	PriorityCould
	PriorityShould
	PriorityMust
)

var priorityNames = map[Priority]string{
	PriorityMust:   "Must",
	PriorityShould: "Should",
	PriorityCould:  "Could",
	PriorityWont:   "Wont",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "Unknown"
}

// Less reports whether p is strictly lower priority than other (Must is
// highest).
func (p Priority) Less(other Priority) bool {
	return p < other
}

// ParsePriority looks up a Priority by its display name.
func ParsePriority(name string) (Priority, bool) {
	for p, n := range priorityNames {
		if n == name {
			return p, true
		}
	}
	return PriorityShould, false
}
