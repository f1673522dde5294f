// Package quality implements phase gate checks: a set of named pass/fail
// conditions evaluated against a Spec and its Tasks before a Workflow may
// advance past a phase.
package quality

import (
	"fmt"
	"strings"
	"time"

	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/model"
)

// CheckStatus is the outcome of a single QualityCheck.
type CheckStatus struct {
	passed bool
	reason string
}

// Passed reports a successful check.
func Passed() CheckStatus { return CheckStatus{passed: true} }

// Failed reports a failed check with reason.
func Failed(reason string) CheckStatus { return CheckStatus{reason: reason} }

// IsPassed reports whether the status is Passed.
func (s CheckStatus) IsPassed() bool { return s.passed }

// Reason returns the failure reason, empty if passed.
func (s CheckStatus) Reason() string { return s.reason }

// QualityCheck is a single named, described, timestamped check result.
type QualityCheck struct {
	Name        string
	Description string
	Status      CheckStatus
	CheckedAt   time.Time
}

// NewQualityCheck creates a check result stamped with the current time.
func NewQualityCheck(name, description string, status CheckStatus) QualityCheck {
	return QualityCheck{Name: name, Description: description, Status: status, CheckedAt: time.Now().UTC()}
}

// IsPassed reports whether this check passed.
func (c QualityCheck) IsPassed() bool { return c.Status.IsPassed() }

// QualityGate is the evaluated set of checks for a phase, plus a separate
// human-approval flag.
type QualityGate struct {
	Phase       ids.Phase
	Checks      []QualityCheck
	Passed      bool
	Approved    bool
	ApprovedBy  string
	EvaluatedAt time.Time
}

// NewQualityGate creates a gate for phase from checks; Passed is true iff
// every check passed.
func NewQualityGate(phase ids.Phase, checks []QualityCheck) QualityGate {
	allPassed := true
	for _, c := range checks {
		if !c.IsPassed() {
			allPassed = false
			break
		}
	}
	return QualityGate{
		Phase:       phase,
		Checks:      checks,
		Passed:      allPassed,
		EvaluatedAt: time.Now().UTC(),
	}
}

// Approve records human approval.
func (g *QualityGate) Approve(approvedBy string) {
	g.Approved = true
	g.ApprovedBy = approvedBy
}

// CanProceed reports whether every check passed and a human has approved.
func (g *QualityGate) CanProceed() bool {
	return g.Passed && g.Approved
}

// FailedChecks returns the checks that did not pass.
func (g *QualityGate) FailedChecks() []QualityCheck {
	var out []QualityCheck
	for _, c := range g.Checks {
		if !c.IsPassed() {
			out = append(out, c)
		}
	}
	return out
}

// CheckPhaseGate evaluates the gate conditions for phase against spec and
// its tasks.
func CheckPhaseGate(phase ids.Phase, spec model.Spec, tasks []model.Task) QualityGate {
	var checks []QualityCheck
	switch phase {
	case ids.PhaseSpec:
		checks = checkSpecPhase(spec)
	case ids.PhaseTasks:
		checks = checkTasksPhase(tasks)
	case ids.PhaseTdd:
		checks = checkTddPhase(tasks)
	default:
		checks = []QualityCheck{
			NewQualityCheck(
				"Phase not implemented",
				fmt.Sprintf("Quality gate for %s phase is not yet implemented", phase),
				Failed("Not implemented"),
			),
		}
	}
	return NewQualityGate(phase, checks)
}

func checkSpecPhase(spec model.Spec) []QualityCheck {
	var checks []QualityCheck

	nameStatus := Passed()
	if strings.TrimSpace(spec.Name) == "" {
		nameStatus = Failed("Spec name is empty")
	}
	checks = append(checks, NewQualityCheck(
		"Spec name validation", "Spec must have a non-empty name", nameStatus,
	))

	descStatus := Passed()
	if strings.TrimSpace(spec.Description) == "" {
		descStatus = Failed("Description is empty")
	}
	checks = append(checks, NewQualityCheck(
		"Acceptance criteria", "Spec must have testable acceptance criteria", descStatus,
	))

	return checks
}

func checkTasksPhase(tasks []model.Task) []QualityCheck {
	var checks []QualityCheck

	idStatus := Passed()
	if len(tasks) == 0 {
		idStatus = Failed("No tasks found")
	} else {
		for _, t := range tasks {
			if strings.TrimSpace(string(t.ID)) == "" {
				idStatus = Failed("Some tasks missing IDs")
				break
			}
		}
	}
	checks = append(checks, NewQualityCheck(
		"Task ID validation", "All tasks must have valid IDs", idStatus,
	))

	checks = append(checks, NewQualityCheck(
		"Dependency documentation", "Task dependencies must be documented", Passed(),
	))

	return checks
}

// checkTddPhase treats every Must-priority task's completion as the
// observable proxy for "tests passing": there is no test runner to shell
// out to, but task status is real data, so the gate checks that instead
// of a condition that always trivially passes.
func checkTddPhase(tasks []model.Task) []QualityCheck {
	var incomplete []string
	for _, t := range tasks {
		if t.Priority == ids.PriorityMust && t.Status != ids.StatusCompleted {
			incomplete = append(incomplete, string(t.ID))
		}
	}

	mustStatus := Passed()
	if len(incomplete) > 0 {
		mustStatus = Failed("Must-priority tasks not completed: " + strings.Join(incomplete, ", "))
	}

	return []QualityCheck{
		NewQualityCheck("Must-priority tasks complete", "Every Must-priority task must reach Completed status", mustStatus),
	}
}

// GenerateReport renders a plain-text summary of gate, including every
// check's pass/fail line and, on failure, the reasons.
func GenerateReport(gate QualityGate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Quality Gate Report - %s Phase\n", gate.Phase)
	fmt.Fprintf(&b, "Evaluated at: %s\n", gate.EvaluatedAt.Format(time.RFC3339))
	status := "FAILED"
	if gate.Passed {
		status = "PASSED"
	}
	fmt.Fprintf(&b, "Overall Status: %s\n", status)
	approval := "PENDING"
	if gate.Approved {
		approval = "APPROVED"
	}
	fmt.Fprintf(&b, "Approval Status: %s\n", approval)
	if gate.ApprovedBy != "" {
		fmt.Fprintf(&b, "Approved by: %s\n", gate.ApprovedBy)
	}

	fmt.Fprintln(&b, "\nChecks:")
	for _, c := range gate.Checks {
		marker := "PASS"
		if !c.IsPassed() {
			marker = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s\n", marker, c.Name)
		if !c.IsPassed() {
			fmt.Fprintf(&b, "      Reason: %s\n", c.Status.Reason())
		}
	}

	if !gate.Passed {
		fmt.Fprintln(&b, "\nFailed Checks:")
		for _, c := range gate.FailedChecks() {
			fmt.Fprintf(&b, "  - %s: %s\n", c.Name, c.Status.Reason())
		}
	}

	return b.String()
}
