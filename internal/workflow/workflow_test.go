package workflow

import (
	"testing"

	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
)

func TestNew_StartsAtFirstPhaseUnapproved(t *testing.T) {
	w := New("WF-1", "main")
	if w.CurrentPhase != ids.PhaseSpec {
		t.Fatalf("expected to start at PhaseSpec, got %v", w.CurrentPhase)
	}
	if w.CanProceed() {
		t.Fatal("expected a fresh workflow to not be approved")
	}
}

func TestWithPhases_RejectsEmpty(t *testing.T) {
	if _, err := WithPhases("WF-1", "main", nil); !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ids.Phase
		want     bool
	}{
		{ids.PhaseSpec, ids.PhaseTasks, true},
		{ids.PhaseTasks, ids.PhaseTdd, true},
		{ids.PhaseSpec, ids.PhaseSpec, true},
		{ids.PhaseSpec, ids.PhaseTdd, false},
		{ids.PhaseMerge, ids.PhaseSpec, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestNextPhase_RequiresApproval(t *testing.T) {
	w := New("WF-1", "main")
	if err := w.NextPhase(); !errs.Is(err, errs.KindWorkflowTransition) {
		t.Fatalf("expected KindWorkflowTransition without approval, got %v", err)
	}
	w.ApprovePhase(ids.PhaseSpec)
	if err := w.NextPhase(); err != nil {
		t.Fatal(err)
	}
	if w.CurrentPhase != ids.PhaseTasks {
		t.Fatalf("expected PhaseTasks, got %v", w.CurrentPhase)
	}
}

func TestNextPhase_FailsAtLastPhase(t *testing.T) {
	w := New("WF-1", "main")
	for !w.IsLastPhase() {
		w.ApprovePhase(w.CurrentPhase)
		if err := w.NextPhase(); err != nil {
			t.Fatal(err)
		}
	}
	w.ApprovePhase(w.CurrentPhase)
	if err := w.NextPhase(); !errs.Is(err, errs.KindWorkflowTransition) {
		t.Fatalf("expected failure advancing past the last phase, got %v", err)
	}
}

func TestTransition_SamePhaseIsNoOp(t *testing.T) {
	w := New("WF-1", "main")
	if err := Transition(w, ids.PhaseSpec); err != nil {
		t.Fatal(err)
	}
	if w.CurrentPhase != ids.PhaseSpec {
		t.Fatal("expected same-phase transition to be a no-op")
	}
}

func TestTransition_RejectsNonSequential(t *testing.T) {
	w := New("WF-1", "main")
	w.ApprovePhase(ids.PhaseSpec)
	if err := Transition(w, ids.PhaseReview); !errs.Is(err, errs.KindWorkflowTransition) {
		t.Fatalf("expected rejection of a non-sequential jump, got %v", err)
	}
}

func TestTransition_RejectsUnapproved(t *testing.T) {
	w := New("WF-1", "main")
	if err := Transition(w, ids.PhaseTasks); !errs.Is(err, errs.KindWorkflowTransition) {
		t.Fatalf("expected rejection without approval, got %v", err)
	}
}

func TestAutoTransition_AdvancesWhenApproved(t *testing.T) {
	w := New("WF-1", "main")
	w.ApprovePhase(ids.PhaseSpec)
	if err := AutoTransition(w); err != nil {
		t.Fatal(err)
	}
	if w.CurrentPhase != ids.PhaseTasks {
		t.Fatalf("expected PhaseTasks, got %v", w.CurrentPhase)
	}
}

func TestAutoTransition_FailsWhenNotApproved(t *testing.T) {
	w := New("WF-1", "main")
	if err := AutoTransition(w); !errs.Is(err, errs.KindWorkflowTransition) {
		t.Fatalf("expected rejection without approval, got %v", err)
	}
}

func TestAutoTransition_FailsAtLastPhase(t *testing.T) {
	w := New("WF-1", "main")
	for !w.IsLastPhase() {
		w.ApprovePhase(w.CurrentPhase)
		if err := AutoTransition(w); err != nil {
			t.Fatal(err)
		}
	}
	w.ApprovePhase(w.CurrentPhase)
	if err := AutoTransition(w); !errs.Is(err, errs.KindWorkflowTransition) {
		t.Fatalf("expected failure at the last phase, got %v", err)
	}
}
