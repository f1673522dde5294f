// Package depgraph implements the Spec dependency graph: cycle-checked edge
// insertion, topological sort, and parallel-wave partitioning.
//
// The graph is represented as a map from a SpecID to its list of
// prerequisite SpecIDs, in insertion order, with cycle-safe rollback on
// edge insertion.
package depgraph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aad-go/aad/internal/ids"
)

// CyclicDependencyError is returned when an edge insertion would close a
// cycle. Cycle names the offending path, starting and ending at the
// repeated node.
type CyclicDependencyError struct {
	Cycle []ids.SpecID
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %s", formatCycle(e.Cycle))
}

func formatCycle(cycle []ids.SpecID) string {
	s := ""
	for i, id := range cycle {
		if i > 0 {
			s += " -> "
		}
		s += string(id)
	}
	return s
}

// Graph is a directed graph of Spec prerequisites, safe for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	edges map[ids.SpecID][]ids.SpecID
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{edges: make(map[ids.SpecID][]ids.SpecID)}
}

// EnsureNode inserts id as a key with no prerequisites if absent. Idempotent,
// never fails. This replaces the empty-string-prerequisite trick the
// original implementation used to force an isolated node into the graph.
func (g *Graph) EnsureNode(id ids.SpecID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureNodeLocked(id)
}

func (g *Graph) ensureNodeLocked(id ids.SpecID) {
	if _, ok := g.edges[id]; !ok {
		g.edges[id] = nil
	}
}

// AddEdge records that spec depends on prereq, creating both nodes as
// needed. If the insertion would close a cycle, it is rolled back and
// *CyclicDependencyError is returned.
func (g *Graph) AddEdge(spec, prereq ids.SpecID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ensureNodeLocked(spec)
	g.ensureNodeLocked(prereq)

	for _, existing := range g.edges[spec] {
		if existing == prereq {
			return nil // idempotent
		}
	}
	g.edges[spec] = append(g.edges[spec], prereq)

	if cycle, ok := g.findCycleLocked(); ok {
		// Roll back.
		g.edges[spec] = g.edges[spec][:len(g.edges[spec])-1]
		return &CyclicDependencyError{Cycle: cycle}
	}
	return nil
}

// RemoveEdge removes the spec->prereq edge, if present. Never fails.
func (g *Graph) RemoveEdge(spec, prereq ids.SpecID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	prereqs := g.edges[spec]
	out := prereqs[:0]
	for _, p := range prereqs {
		if p != prereq {
			out = append(out, p)
		}
	}
	g.edges[spec] = out
}

// Prerequisites returns a copy of spec's prerequisite list, in insertion
// order.
func (g *Graph) Prerequisites(spec ids.SpecID) []ids.SpecID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ids.SpecID, len(g.edges[spec]))
	copy(out, g.edges[spec])
	return out
}

// Nodes returns every SpecID known to the graph, unordered.
func (g *Graph) Nodes() []ids.SpecID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ids.SpecID, 0, len(g.edges))
	for n := range g.edges {
		out = append(out, n)
	}
	return out
}

// cycleColor tracks DFS visitation state for cycle detection.
type cycleColor int

const (
	colorWhite cycleColor = iota
	colorGray
	colorBlack
)

// findCycleLocked runs a colour-based DFS over the current edge map and
// returns the first cycle found, if any. Caller must hold g.mu.
func (g *Graph) findCycleLocked() ([]ids.SpecID, bool) {
	colors := make(map[ids.SpecID]cycleColor, len(g.edges))
	var path []ids.SpecID

	var visit func(n ids.SpecID) ([]ids.SpecID, bool)
	visit = func(n ids.SpecID) ([]ids.SpecID, bool) {
		colors[n] = colorGray
		path = append(path, n)

		for _, next := range g.edges[n] {
			switch colors[next] {
			case colorGray:
				// Found the back-edge; slice the cycle out of the current path.
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				cycle := append([]ids.SpecID{}, path[start:]...)
				cycle = append(cycle, next)
				return cycle, true
			case colorWhite:
				if cyc, found := visit(next); found {
					return cyc, true
				}
			}
		}

		path = path[:len(path)-1]
		colors[n] = colorBlack
		return nil, false
	}

	// Sort node names for deterministic traversal order.
	nodes := make([]ids.SpecID, 0, len(g.edges))
	for n := range g.edges {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	for _, n := range nodes {
		if colors[n] == colorWhite {
			if cyc, found := visit(n); found {
				return cyc, true
			}
		}
	}
	return nil, false
}

// HasCycle reports whether the graph currently contains a cycle, and if so,
// returns the cycle path.
func (g *Graph) HasCycle() ([]ids.SpecID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findCycleLocked()
}

// TopologicalSort returns a permutation of the graph's nodes such that every
// prerequisite precedes its dependent. Uses Kahn's algorithm over the
// reversed semantic: in-degree is counted over prerequisite lists, so nodes
// with satisfied (or no) prerequisites drain first.
func (g *Graph) TopologicalSort() ([]ids.SpecID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.topoSortLocked()
}

func (g *Graph) topoSortLocked() ([]ids.SpecID, error) {
	if cycle, ok := g.findCycleLocked(); ok {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}

	remaining := make(map[ids.SpecID][]ids.SpecID, len(g.edges))
	for n, prereqs := range g.edges {
		remaining[n] = append([]ids.SpecID{}, prereqs...)
	}

	var order []ids.SpecID
	for len(order) < len(g.edges) {
		ready := readySet(remaining, order)
		if len(ready) == 0 {
			return nil, fmt.Errorf("depgraph: unable to make progress sorting %d remaining nodes", len(g.edges)-len(order))
		}
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		order = append(order, ready...)
	}
	return order, nil
}

// readySet returns the nodes not yet in done whose prerequisites are all
// already in done.
func readySet(remaining map[ids.SpecID][]ids.SpecID, done []ids.SpecID) []ids.SpecID {
	doneSet := make(map[ids.SpecID]bool, len(done))
	for _, d := range done {
		doneSet[d] = true
	}
	var ready []ids.SpecID
	for n, prereqs := range remaining {
		if doneSet[n] {
			continue
		}
		satisfied := true
		for _, p := range prereqs {
			if !doneSet[p] {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, n)
		}
	}
	return ready
}

// Waves returns the graph's nodes partitioned into disjoint, ordered waves:
// wave k contains exactly the nodes whose prerequisites all lie in waves
// < k. Each wave is sorted by SpecID for determinism (the algorithm itself
// leaves within-wave order unspecified; see SPEC_FULL.md §4.1).
func (g *Graph) Waves() ([][]ids.SpecID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if cycle, ok := g.findCycleLocked(); ok {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}

	remaining := make(map[ids.SpecID][]ids.SpecID, len(g.edges))
	for n, prereqs := range g.edges {
		remaining[n] = append([]ids.SpecID{}, prereqs...)
	}

	var waves [][]ids.SpecID
	var done []ids.SpecID
	for len(done) < len(g.edges) {
		wave := readySet(remaining, done)
		if len(wave) == 0 {
			// Cycle check above should have already caught this; defensive only.
			return nil, fmt.Errorf("depgraph: deadlock computing waves with %d nodes remaining", len(g.edges)-len(done))
		}
		sort.Slice(wave, func(i, j int) bool { return wave[i] < wave[j] })
		waves = append(waves, wave)
		done = append(done, wave...)
	}
	return waves, nil
}
