package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aad-go/aad/internal/atomicfile"
	"github.com/aad-go/aad/internal/depgraph"
	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
)

// OrchestratorState is a point-in-time snapshot of an orchestration run,
// serializable for resume and dry-run reporting.
type OrchestratorState struct {
	SpecIDs      []string            `json:"spec_ids"`
	SpecPhases   map[string]string   `json:"spec_phases"`
	Dependencies map[string][]string `json:"dependencies"`
	Completed    []string            `json:"completed"`
	Failed       []string            `json:"failed"`
	Running      []string            `json:"running"`
	Pending      []string            `json:"pending"`
	SavedAt      string              `json:"saved_at"`
}

// NewOrchestratorState creates a fresh state with every spec pending.
func NewOrchestratorState(specIDs []string, savedAt time.Time) *OrchestratorState {
	pending := append([]string{}, specIDs...)
	return &OrchestratorState{
		SpecIDs:      append([]string{}, specIDs...),
		SpecPhases:   make(map[string]string),
		Dependencies: make(map[string][]string),
		Pending:      pending,
		SavedAt:      savedAt.UTC().Format(time.RFC3339),
	}
}

// AddDependency records that specID depends on dependsOn.
func (s *OrchestratorState) AddDependency(specID, dependsOn string) {
	s.Dependencies[specID] = append(s.Dependencies[specID], dependsOn)
}

func removeFrom(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func appendUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

// MarkCompleted moves specID into Completed, out of Pending/Running.
func (s *OrchestratorState) MarkCompleted(specID string) {
	s.Pending = removeFrom(s.Pending, specID)
	s.Running = removeFrom(s.Running, specID)
	s.Completed = appendUnique(s.Completed, specID)
}

// MarkFailed moves specID into Failed, out of Pending/Running.
func (s *OrchestratorState) MarkFailed(specID string) {
	s.Pending = removeFrom(s.Pending, specID)
	s.Running = removeFrom(s.Running, specID)
	s.Failed = appendUnique(s.Failed, specID)
}

// MarkRunning moves specID into Running, out of Pending.
func (s *OrchestratorState) MarkRunning(specID string) {
	s.Pending = removeFrom(s.Pending, specID)
	s.Running = appendUnique(s.Running, specID)
}

// RemainingSpecs returns Pending plus Running.
func (s *OrchestratorState) RemainingSpecs() []string {
	out := append([]string{}, s.Pending...)
	return append(out, s.Running...)
}

// IsComplete reports whether no spec remains Pending or Running.
func (s *OrchestratorState) IsComplete() bool {
	return len(s.Pending) == 0 && len(s.Running) == 0
}

// ProgressPercent returns (completed+failed)*100/total, or 100 if there are
// no specs.
func (s *OrchestratorState) ProgressPercent() int {
	total := len(s.SpecIDs)
	if total == 0 {
		return 100
	}
	done := len(s.Completed) + len(s.Failed)
	return done * 100 / total
}

const defaultStatePath = ".aad/orchestration/state.json"

// SaveState writes state atomically to path, or defaultStatePath if path is
// empty.
func SaveState(state *OrchestratorState, path string) error {
	if path == "" {
		path = defaultStatePath
	}
	if err := atomicfile.WriteJSON(path, state); err != nil {
		return errs.Wrap(errs.KindRepository, "saving orchestrator state", err)
	}
	return nil
}

// RestoreState reads state from path, or defaultStatePath if path is empty.
// Fails if the file is missing.
func RestoreState(path string) (*OrchestratorState, error) {
	if path == "" {
		path = defaultStatePath
	}
	var state OrchestratorState
	if err := atomicfile.ReadJSON(path, &state); err != nil {
		return nil, errs.Wrap(errs.KindRepository, "restoring orchestrator state", err)
	}
	return &state, nil
}

// PrintExecutionPlan renders a human-readable dry-run report: the spec
// list with phases, per-spec prerequisite lines, numbered execution waves,
// and the maximum parallelism across them.
func PrintExecutionPlan(state *OrchestratorState) (string, error) {
	var b strings.Builder

	fmt.Fprintln(&b, "Execution plan (dry run)")
	fmt.Fprintln(&b, strings.Repeat("-", 40))

	fmt.Fprintf(&b, "\nSpecs (%d):\n", len(state.SpecIDs))
	for _, specID := range sortedCopy(state.SpecIDs) {
		phase := state.SpecPhases[specID]
		if phase == "" {
			phase = "Spec"
		}
		fmt.Fprintf(&b, "  - %s [phase: %s]\n", specID, phase)
	}

	if len(state.Dependencies) == 0 {
		fmt.Fprintln(&b, "\nDependencies: none (fully parallel)")
	} else {
		fmt.Fprintln(&b, "\nDependencies:")
		for _, specID := range sortedDepKeys(state.Dependencies) {
			deps := state.Dependencies[specID]
			if len(deps) == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %s depends on:\n", specID)
			for _, dep := range deps {
				fmt.Fprintf(&b, "    - %s\n", dep)
			}
		}
	}

	waves, err := planWaves(state)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(&b, "\nExecution waves:")
	maxParallelism := 0
	for i, wave := range waves {
		fmt.Fprintf(&b, "  Wave %d: %d spec(s)\n", i+1, len(wave))
		for _, specID := range wave {
			fmt.Fprintf(&b, "    - %s\n", specID)
		}
		if len(wave) > maxParallelism {
			maxParallelism = len(wave)
		}
	}
	fmt.Fprintf(&b, "\nMaximum parallelism: %d specs\n", maxParallelism)

	return b.String(), nil
}

func planWaves(state *OrchestratorState) ([][]string, error) {
	g := depgraph.New()
	for _, specID := range state.SpecIDs {
		g.EnsureNode(ids.SpecID(specID))
	}
	for specID, deps := range state.Dependencies {
		for _, dep := range deps {
			if err := g.AddEdge(ids.SpecID(specID), ids.SpecID(dep)); err != nil {
				return nil, err
			}
		}
	}
	waves, err := g.Waves()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(waves))
	for i, wave := range waves {
		strs := make([]string, len(wave))
		for j, id := range wave {
			strs[j] = string(id)
		}
		out[i] = strs
	}
	return out, nil
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

func sortedDepKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
