// Package domain contains the core domain models and business logic for the task dependency graph.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph represents a dependency graph of tasks.
type Graph struct {
	tasks          map[InternedString]Task
	executionOrder []InternedString
	layers         [][]InternedString
	dependents     map[InternedString][]InternedString
	root           string
	workflows      map[string]Workflow
	aliases        map[string]string
	tagConcurrency map[string]uint32
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks: make(map[InternedString]Task),
	}
}

// SetWorkflows attaches the workflow definitions parsed alongside this graph's
// configuration file.
func (g *Graph) SetWorkflows(workflows map[string]Workflow) {
	g.workflows = workflows
}

// Workflow looks up a workflow by name.
func (g *Graph) Workflow(name string) (Workflow, bool) {
	wf, ok := g.workflows[name]
	return wf, ok
}

// SetAliases attaches the alias -> raw command-line definitions parsed
// alongside this graph's configuration file.
func (g *Graph) SetAliases(aliases map[string]string) {
	g.aliases = aliases
}

// Alias looks up an alias's raw definition by name.
func (g *Graph) Alias(name string) (string, bool) {
	raw, ok := g.aliases[name]
	return raw, ok
}

// SetTagConcurrency attaches the per-tag concurrency caps parsed from the
// configuration's [resources] section.
func (g *Graph) SetTagConcurrency(limits map[string]uint32) {
	g.tagConcurrency = limits
}

// TagConcurrency returns the per-tag concurrency caps, if any were configured.
func (g *Graph) TagConcurrency() map[string]uint32 {
	return g.tagConcurrency
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	g.tasks[t.Name] = *t
	return nil
}

// Validate checks for cycles in the graph using a topological sort and computes
// longest-path layers (see TopologicalLayers). It populates the executionOrder
// slice and dependents map if successful.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.tasks))
	g.dependents = g.buildDependentsMap()
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		task, exists := g.tasks[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range task.Dependencies {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	// We need to iterate over all tasks to ensure we cover disconnected components.
	// To ensure deterministic order for disconnected components, we sort the keys alphabetically.
	sortedNames := g.getSortedTaskNames()

	for _, name := range sortedNames {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	g.layers = g.computeLayers(sortedNames)

	return nil
}

// computeLayers assigns each node the length of its longest dependency path;
// nodes sharing a layer index are mutually independent. Assumes the graph is
// already known to be acyclic (called after cycle detection in Validate).
func (g *Graph) computeLayers(sortedNames []InternedString) [][]InternedString {
	depth := make(map[InternedString]int, len(g.tasks))

	var layerOf func(name InternedString) int
	layerOf = func(name InternedString) int {
		if d, ok := depth[name]; ok {
			return d
		}
		task := g.tasks[name]
		maxDep := -1
		for _, dep := range task.Dependencies {
			if d := layerOf(dep); d > maxDep {
				maxDep = d
			}
		}
		d := maxDep + 1
		depth[name] = d
		return d
	}

	maxLayer := 0
	for _, name := range sortedNames {
		if d := layerOf(name); d > maxLayer {
			maxLayer = d
		}
	}

	layers := make([][]InternedString, maxLayer+1)
	for _, name := range sortedNames {
		d := depth[name]
		layers[d] = append(layers[d], name)
	}
	return layers
}

// TopologicalLayers returns the layers computed by the last call to Validate.
// Each layer is a set of nodes sharing the same longest-dependency-path length;
// nodes within a layer are mutually independent and safe to run in parallel.
func (g *Graph) TopologicalLayers() [][]InternedString {
	return g.layers
}

// TransitiveClosure returns the forward closure of the given seed nodes: the
// seeds themselves plus every node reachable by following dependency edges
// (i.e. every task a seed depends on, directly or transitively).
func (g *Graph) TransitiveClosure(seeds []InternedString) map[InternedString]bool {
	closure := make(map[InternedString]bool, len(seeds))
	var visit func(name InternedString)
	visit = func(name InternedString) {
		if closure[name] {
			return
		}
		closure[name] = true
		task, ok := g.tasks[name]
		if !ok {
			return
		}
		for _, dep := range task.Dependencies {
			visit(dep)
		}
	}
	for _, seed := range seeds {
		visit(seed)
	}
	return closure
}

// ReverseTransitiveClosure returns the seeds plus every node that transitively
// depends on one of them (i.e. the "affected" set used by the watch coordinator
// to decide what to re-run after a filesystem change to the seed paths' owners).
func (g *Graph) ReverseTransitiveClosure(seeds []InternedString) map[InternedString]bool {
	closure := make(map[InternedString]bool, len(seeds))
	var visit func(name InternedString)
	visit = func(name InternedString) {
		if closure[name] {
			return
		}
		closure[name] = true
		for _, dependent := range g.dependents[name] {
			visit(dependent)
		}
	}
	for _, seed := range seeds {
		visit(seed)
	}
	return closure
}

// ApplySerialOrdering adds the mutual-exclusion edges a serial-deps list
// implies: for every task declaring SerialDeps = [a, b, c], it makes b depend
// on a and c depend on b, so the three execute in declared order regardless
// of whatever parallelism the rest of the graph allows. Edges already present
// (e.g. a task serial-depending on something it also parallel-depends on)
// are not duplicated. Must run after all tasks are added and before Validate.
func (g *Graph) ApplySerialOrdering() {
	for _, t := range g.tasks {
		for i := 1; i < len(t.SerialDeps); i++ {
			pred, succ := t.SerialDeps[i-1], t.SerialDeps[i]
			succTask := g.tasks[succ]
			if !slices.Contains(succTask.Dependencies, pred) {
				succTask.Dependencies = append(succTask.Dependencies, pred)
				g.tasks[succ] = succTask
			}
		}
	}
}

// buildDependentsMap creates a reverse adjacency list (dependents map).
func (g *Graph) buildDependentsMap() map[InternedString][]InternedString {
	dependents := make(map[InternedString][]InternedString)
	for taskName := range g.tasks {
		task := g.tasks[taskName]
		for _, dep := range task.Dependencies {
			dependents[dep] = append(dependents[dep], task.Name)
		}
	}
	return dependents
}

// getSortedTaskNames returns all task names sorted alphabetically.
func (g *Graph) getSortedTaskNames() []InternedString {
	sortedNames := make([]InternedString, 0, len(g.tasks))
	for name := range g.tasks {
		sortedNames = append(sortedNames, name)
	}
	slices.SortFunc(sortedNames, func(a, b InternedString) int {
		if a.String() < b.String() {
			return -1
		}
		if a.String() > b.String() {
			return 1
		}
		return 0
	})
	return sortedNames
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Dependents returns the list of tasks that depend on the given task.
// Returns an empty slice if no tasks depend on it.
func (g *Graph) Dependents(task InternedString) []InternedString {
	return g.dependents[task]
}

// TaskCount returns the total number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// GetTask retrieves a task by its name.
func (g *Graph) GetTask(name InternedString) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Root returns the root directory of the build.
func (g *Graph) Root() string {
	return g.root
}

// SetRoot sets the root directory of the build.
func (g *Graph) SetRoot(path string) {
	g.root = path
}
