package definition

import (
	"context"
	"fmt"

	"github.com/evalgrid/evalgrid/internal/builder"
	"github.com/evalgrid/evalgrid/internal/config"
	"github.com/evalgrid/evalgrid/internal/ctxlog"
)

// DefaultImage is the container image used for processing-type steps when
// the configuration does not name one.
const DefaultImage = "public.ecr.aws/sagemaker/sagemaker-distribution:3.0-cpu"

// DefaultModelPackageGroup is the registry group the winning model is
// registered under when the configuration does not name one.
const DefaultModelPackageGroup = "FMEvaluationBestModel"

// Run holds the run-scoped inputs that vary between executions of the same
// configuration.
type Run struct {
	// RunID is the timestamped identifier of this evaluation run.
	RunID string
	// RoleARN is the execution role the remote jobs assume.
	RoleARN string
	// InputDataPath is the object-store root the dataset and fine-tuning
	// data locations are relative to.
	InputDataPath string
	// OutputDataPath is the run-scoped prefix every step writes under.
	OutputDataPath string
}

// renderContext bundles everything the per-kind renderers need.
type renderContext struct {
	run   Run
	model *config.Model
	image string
	group string
}

// Render translates a built graph into the definition document for one run.
func Render(ctx context.Context, graph *builder.Graph, model *config.Model, run Run) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Render: Starting definition rendering.", "run_id", run.RunID)

	rc := &renderContext{
		run:   run,
		model: model,
		image: model.Pipeline.ImageURI,
		group: model.Pipeline.ModelPackageGroup,
	}
	if rc.image == "" {
		rc.image = DefaultImage
	}
	if rc.group == "" {
		rc.group = DefaultModelPackageGroup
	}

	doc := &Document{
		Version: SchemaVersion,
		Metadata: map[string]string{
			"GeneratedBy": "evalgrid",
			"RunId":       run.RunID,
		},
	}

	for _, s := range graph.Ordered() {
		render, ok := renderers[s.Kind]
		if !ok {
			return nil, fmt.Errorf("no argument renderer registered for step kind '%s'", s.Kind)
		}

		args, err := render(rc, s)
		if err != nil {
			return nil, fmt.Errorf("failed to render step '%s': %w", s.Name, err)
		}

		deps, err := graph.Dependencies(s.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dependencies of step '%s': %w", s.Name, err)
		}

		stepType := TypeProcessing
		if s.Kind == kindTraining {
			stepType = TypeTraining
		}

		doc.Steps = append(doc.Steps, Step{
			Name:      s.Name,
			Type:      stepType,
			DependsOn: deps,
			Arguments: args,
		})
	}

	logger.Debug("Render: Definition rendering complete.", "steps", len(doc.Steps))
	return doc, nil
}
