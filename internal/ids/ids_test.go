package ids

import "testing"

func TestPhaseNext(t *testing.T) {
	seq := []Phase{PhaseSpec, PhaseTasks, PhaseTdd, PhaseReview, PhaseRetro, PhaseMerge}
	for i := 0; i < len(seq)-1; i++ {
		next, ok := seq[i].Next()
		if !ok || next != seq[i+1] {
			t.Fatalf("Next(%s) = %s, %v; want %s, true", seq[i], next, ok, seq[i+1])
		}
	}
	if _, ok := PhaseMerge.Next(); ok {
		t.Fatalf("Next(Merge) should fail, phase is terminal")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseTdd.String() != "Tdd" {
		t.Fatalf("got %s", PhaseTdd.String())
	}
}

func TestParsePhase(t *testing.T) {
	p, ok := ParsePhase("Review")
	if !ok || p != PhaseReview {
		t.Fatalf("ParsePhase(Review) = %v, %v", p, ok)
	}
	if _, ok := ParsePhase("Bogus"); ok {
		t.Fatalf("ParsePhase(Bogus) should fail")
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	terminal := []SessionStatus{SessionCompleted, SessionTimedOut, SessionFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	nonTerminal := []SessionStatus{SessionPending, SessionRunning}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestPriorityOrdering(t *testing.T) {
	if !PriorityWont.Less(PriorityCould) {
		t.Fatalf("Wont should be less than Could")
	}
	if !PriorityCould.Less(PriorityShould) {
		t.Fatalf("Could should be less than Should")
	}
	if !PriorityShould.Less(PriorityMust) {
		t.Fatalf("Should should be less than Must")
	}
	if PriorityMust.Less(PriorityWont) {
		t.Fatalf("Must should not be less than Wont")
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == b {
		t.Fatalf("expected unique session ids, got %s twice", a)
	}
	if a == "" {
		t.Fatalf("expected non-empty session id")
	}
}
