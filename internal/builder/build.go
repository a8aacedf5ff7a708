package builder

import (
	"context"
	"fmt"

	"github.com/evalgrid/evalgrid/internal/config"
	"github.com/evalgrid/evalgrid/internal/ctxlog"
	"github.com/evalgrid/evalgrid/internal/dag"
	"github.com/evalgrid/evalgrid/internal/step"
)

// Build constructs a complete, validated pipeline graph from a config model.
func Build(ctx context.Context, model *config.Model) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.")
	graph := &Graph{
		steps: make(map[string]*step.Step),
		dag:   dag.New(),
	}

	// First pass: create all steps with their declared dependencies.
	if err := createSteps(ctx, model, graph); err != nil {
		return nil, err
	}
	logger.Debug("Build: Step creation complete.", "step_count", len(graph.steps))

	// Second pass: link dependency edges.
	if err := linkSteps(ctx, graph); err != nil {
		return nil, err
	}
	logger.Debug("Build: Step linking complete.")

	// Final validation: cycle detection and the deterministic ordering.
	if err := graph.dag.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	order, err := graph.dag.TopoSort()
	if err != nil {
		return nil, fmt.Errorf("error ordering dependency graph: %w", err)
	}
	graph.order = order
	logger.Debug("Build: Cycle detection and ordering passed.")

	logger.Info("Build: Graph construction successful.",
		"steps", len(graph.steps),
		"models", len(model.Models),
	)
	return graph, nil
}

// linkSteps performs the second pass, establishing dependency edges between
// steps. A dependency naming an unknown step is a build error; the
// orchestration service would reject it much later and much less helpfully.
func linkSteps(ctx context.Context, graph *Graph) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting step linking pass.")

	for _, s := range graph.steps {
		for _, depName := range s.DependsOn {
			if _, ok := graph.steps[depName]; !ok {
				return fmt.Errorf("step '%s' depends on unknown step '%s'", s.Name, depName)
			}
			if err := graph.dag.AddEdge(depName, s.Name); err != nil {
				return fmt.Errorf("failed to link step '%s': %w", s.Name, err)
			}
		}
	}
	logger.Debug("Finished step linking pass.")
	return nil
}

// addStep inserts a step into the graph, guarding against name collisions.
func addStep(graph *Graph, s *step.Step) error {
	if _, exists := graph.steps[s.Name]; exists {
		return fmt.Errorf("duplicate step name '%s'", s.Name)
	}
	graph.steps[s.Name] = s
	graph.dag.AddNode(s.Name)
	return nil
}
