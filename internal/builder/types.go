package builder

import (
	"github.com/evalgrid/evalgrid/internal/dag"
	"github.com/evalgrid/evalgrid/internal/step"
)

// Graph is the primary artifact of the builder. It represents the complete,
// validated pipeline plan as a collection of steps and their dependencies.
type Graph struct {
	// steps provides a fast, name-based lookup for any step in the graph.
	steps map[string]*step.Step

	// order is the deterministic topological ordering of step names,
	// computed once at build time.
	order []string

	// dag holds the generic graph topology and is used for all topological
	// operations like cycle detection and dependency querying. It is
	// unexported to ensure all interactions are mediated by the builder.
	dag *dag.Graph
}

// Step returns the step with the given name, if present.
func (g *Graph) Step(name string) (*step.Step, bool) {
	s, ok := g.steps[name]
	return s, ok
}

// Len returns the number of steps in the graph.
func (g *Graph) Len() int {
	return len(g.steps)
}

// Ordered returns every step in the deterministic topological order:
// dependencies always precede their dependents.
func (g *Graph) Ordered() []*step.Step {
	steps := make([]*step.Step, 0, len(g.order))
	for _, name := range g.order {
		steps = append(steps, g.steps[name])
	}
	return steps
}

// Dependencies returns the sorted dependency names of the given step.
func (g *Graph) Dependencies(name string) ([]string, error) {
	return g.dag.Dependencies(name)
}

// Terminals returns the names of all steps nothing else depends on. These
// are the steps whose completion finishes the pipeline.
func (g *Graph) Terminals() []string {
	var terminals []string
	for _, name := range g.order {
		dependents, err := g.dag.Dependents(name)
		if err == nil && len(dependents) == 0 {
			terminals = append(terminals, name)
		}
	}
	return terminals
}
