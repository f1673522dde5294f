package quality_test

import (
	"strings"
	"testing"

	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/model"
	"github.com/aad-go/aad/internal/quality"
)

func mustSpec(t *testing.T, name, description string) model.Spec {
	t.Helper()
	spec, err := model.NewSpec("spec-1", name, description)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	return *spec
}

func mustTask(t *testing.T, id ids.TaskID, priority ids.Priority) model.Task {
	t.Helper()
	task, err := model.NewTask(id, "spec-1", "Task "+string(id), "desc", priority, "M")
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	return *task
}

func TestCheckPhaseGate_SpecPassesWithValidSpec(t *testing.T) {
	spec := mustSpec(t, "Test Spec", "Valid description with criteria")
	gate := quality.CheckPhaseGate(ids.PhaseSpec, spec, nil)
	if !gate.Passed {
		t.Fatal("expected gate to pass")
	}
	if len(gate.FailedChecks()) != 0 {
		t.Fatalf("expected no failed checks, got %d", len(gate.FailedChecks()))
	}
}

func TestCheckPhaseGate_SpecFailsWithEmptyDescription(t *testing.T) {
	spec := mustSpec(t, "Test Spec", "")
	gate := quality.CheckPhaseGate(ids.PhaseSpec, spec, nil)
	if gate.Passed {
		t.Fatal("expected gate to fail")
	}
	failed := gate.FailedChecks()
	if len(failed) != 1 || failed[0].Name != "Acceptance criteria" {
		t.Fatalf("expected Acceptance criteria to fail, got %+v", failed)
	}
}

func TestCheckPhaseGate_TasksFailsWithNoTasks(t *testing.T) {
	spec := mustSpec(t, "Test", "Desc")
	gate := quality.CheckPhaseGate(ids.PhaseTasks, spec, nil)
	if gate.Passed {
		t.Fatal("expected gate to fail with no tasks")
	}
}

func TestCheckPhaseGate_TasksPassesWithValidTasks(t *testing.T) {
	spec := mustSpec(t, "Test", "Desc")
	tasks := []model.Task{
		mustTask(t, "task-1", ids.PriorityMust),
		mustTask(t, "task-2", ids.PriorityShould),
	}
	gate := quality.CheckPhaseGate(ids.PhaseTasks, spec, tasks)
	if !gate.Passed {
		t.Fatalf("expected gate to pass, failed checks: %+v", gate.FailedChecks())
	}
}

func TestCheckPhaseGate_TddFailsWhenMustTaskIncomplete(t *testing.T) {
	spec := mustSpec(t, "Test", "Desc")
	tasks := []model.Task{mustTask(t, "task-1", ids.PriorityMust)}
	gate := quality.CheckPhaseGate(ids.PhaseTdd, spec, tasks)
	if gate.Passed {
		t.Fatal("expected gate to fail with incomplete Must task")
	}
}

func TestCheckPhaseGate_TddPassesWhenMustTasksCompleted(t *testing.T) {
	spec := mustSpec(t, "Test", "Desc")
	task := mustTask(t, "task-1", ids.PriorityMust)
	task.Status = ids.StatusCompleted
	gate := quality.CheckPhaseGate(ids.PhaseTdd, spec, []model.Task{task})
	if !gate.Passed {
		t.Fatalf("expected gate to pass, failed checks: %+v", gate.FailedChecks())
	}
}

func TestCheckPhaseGate_UnimplementedPhaseFails(t *testing.T) {
	spec := mustSpec(t, "Test", "Desc")
	gate := quality.CheckPhaseGate(ids.PhaseReview, spec, nil)
	if gate.Passed {
		t.Fatal("expected unimplemented phase gate to fail")
	}
	if len(gate.FailedChecks()) != 1 {
		t.Fatalf("expected exactly one failed check, got %d", len(gate.FailedChecks()))
	}
}

func TestQualityGate_CanProceedRequiresPassAndApproval(t *testing.T) {
	spec := mustSpec(t, "Test", "Description")
	gate := quality.CheckPhaseGate(ids.PhaseSpec, spec, nil)
	if gate.CanProceed() {
		t.Fatal("expected CanProceed false before approval")
	}
	gate.Approve("human")
	if !gate.Approved || gate.ApprovedBy != "human" {
		t.Fatal("expected approval to be recorded")
	}
	if !gate.CanProceed() {
		t.Fatal("expected CanProceed true after approval")
	}
}

func TestQualityGate_CannotProceedIfChecksFailedEvenWhenApproved(t *testing.T) {
	spec := mustSpec(t, "Test", "")
	gate := quality.CheckPhaseGate(ids.PhaseSpec, spec, nil)
	gate.Approve("human")
	if gate.CanProceed() {
		t.Fatal("expected CanProceed false when checks failed")
	}
}

func TestGenerateReport_IncludesStatusAndFailureReasons(t *testing.T) {
	spec := mustSpec(t, "Test", "")
	gate := quality.CheckPhaseGate(ids.PhaseSpec, spec, nil)
	report := quality.GenerateReport(gate)

	for _, want := range []string{"Quality Gate Report", "FAILED", "Failed Checks", "Acceptance criteria"} {
		if !strings.Contains(report, want) {
			t.Fatalf("expected report to contain %q, got:\n%s", want, report)
		}
	}
}

func TestGenerateReport_PassingGateOmitsFailedSection(t *testing.T) {
	spec := mustSpec(t, "Test", "Description")
	gate := quality.CheckPhaseGate(ids.PhaseSpec, spec, nil)
	report := quality.GenerateReport(gate)

	if !strings.Contains(report, "PASSED") {
		t.Fatal("expected report to say PASSED")
	}
	if strings.Contains(report, "Failed Checks") {
		t.Fatal("expected no Failed Checks section on a passing gate")
	}
}
