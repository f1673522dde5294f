// Package workflow implements the Workflow entity and the phase transition
// predicate layer the Orchestrator consumes: can_transition, transition,
// and auto_transition.
package workflow

import (
	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
)

// Workflow tracks progress through an ordered sequence of Phases, gated by
// per-phase approval.
type Workflow struct {
	ID           string
	Name         string
	Phases       []ids.Phase
	CurrentPhase ids.Phase
	Approvals    map[ids.Phase]bool
}

// standardPhases is the default phase sequence: Spec -> Tasks -> Tdd ->
// Review -> Retro -> Merge.
var standardPhases = []ids.Phase{
	ids.PhaseSpec, ids.PhaseTasks, ids.PhaseTdd, ids.PhaseReview, ids.PhaseRetro, ids.PhaseMerge,
}

// New creates a Workflow with the standard phase sequence, starting at the
// first phase with no approvals.
func New(id, name string) *Workflow {
	w, _ := WithPhases(id, name, standardPhases)
	return w
}

// WithPhases creates a Workflow with a custom, non-empty phase list. §4.8
// requires a non-empty workflow phase list when one is supplied.
func WithPhases(id, name string, phases []ids.Phase) (*Workflow, error) {
	if len(phases) == 0 {
		return nil, errs.New(errs.KindValidation, "workflow must have at least one phase")
	}
	approvals := make(map[ids.Phase]bool, len(phases))
	for _, p := range phases {
		approvals[p] = false
	}
	return &Workflow{
		ID:           id,
		Name:         name,
		Phases:       append([]ids.Phase{}, phases...),
		CurrentPhase: phases[0],
		Approvals:    approvals,
	}, nil
}

// ApprovePhase marks phase as approved.
func (w *Workflow) ApprovePhase(phase ids.Phase) {
	w.Approvals[phase] = true
}

// IsApproved reports whether phase has been approved.
func (w *Workflow) IsApproved(phase ids.Phase) bool {
	return w.Approvals[phase]
}

// CanProceed reports whether the current phase is approved.
func (w *Workflow) CanProceed() bool {
	return w.Approvals[w.CurrentPhase]
}

func (w *Workflow) indexOf(phase ids.Phase) (int, bool) {
	for i, p := range w.Phases {
		if p == phase {
			return i, true
		}
	}
	return 0, false
}

// PeekNextPhase returns the phase after the current one, if any.
func (w *Workflow) PeekNextPhase() (ids.Phase, bool) {
	idx, ok := w.indexOf(w.CurrentPhase)
	if !ok || idx >= len(w.Phases)-1 {
		return ids.PhaseSpec, false
	}
	return w.Phases[idx+1], true
}

// IsLastPhase reports whether the workflow has no further phase.
func (w *Workflow) IsLastPhase() bool {
	_, ok := w.PeekNextPhase()
	return !ok
}

// NextPhase advances to the next phase in sequence. Fails with
// KindWorkflowTransition if the current phase is not approved or this is
// already the last phase.
func (w *Workflow) NextPhase() error {
	if !w.CanProceed() {
		return errs.New(errs.KindWorkflowTransition, "current phase must be approved before proceeding")
	}
	next, ok := w.PeekNextPhase()
	if !ok {
		return errs.New(errs.KindWorkflowTransition, "already at the last phase")
	}
	w.CurrentPhase = next
	return nil
}

// CanTransition reports whether (from, to) is a sequential pair in the
// standard phase order, or from == to.
func CanTransition(from, to ids.Phase) bool {
	if from == to {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}

// Transition validates (current, to) via CanTransition, no-ops if already
// at to, otherwise requires the current phase be approved and advances.
func Transition(w *Workflow, to ids.Phase) error {
	from := w.CurrentPhase

	if !CanTransition(from, to) {
		return errs.New(errs.KindWorkflowTransition, "invalid phase transition: "+from.String()+" -> "+to.String())
	}
	if from == to {
		return nil
	}
	if !w.IsApproved(from) {
		return errs.New(errs.KindWorkflowTransition, "phase "+from.String()+" is not yet approved")
	}
	return w.NextPhase()
}

// AutoTransition advances to the next phase if the current one is approved.
func AutoTransition(w *Workflow) error {
	if !w.CanProceed() {
		return errs.New(errs.KindWorkflowTransition, "phase "+w.CurrentPhase.String()+" is not yet approved")
	}
	next, ok := w.PeekNextPhase()
	if !ok {
		return errs.New(errs.KindWorkflowTransition, "already at the last phase")
	}
	return Transition(w, next)
}
