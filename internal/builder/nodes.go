package builder

import (
	"context"
	"time"

	"github.com/evalgrid/evalgrid/internal/config"
	"github.com/evalgrid/evalgrid/internal/ctxlog"
	"github.com/evalgrid/evalgrid/internal/step"
)

const (
	// finetuneKeepAlive keeps training hardware warm between retries.
	finetuneKeepAlive = 2400 * time.Second
	// evaluateKeepAlive keeps the evaluation container warm between models.
	evaluateKeepAlive = 1200 * time.Second
)

// evaluatePreExec installs the evaluation library into the step container
// before the evaluation entrypoint runs.
var evaluatePreExec = []string{"pip install fmeval==0.2.0"}

// createSteps performs the first pass of graph creation, populating the
// graph with the shared preprocess step, one branch per model, and the
// selection / registration / cleanup tail.
func createSteps(ctx context.Context, model *config.Model, graph *Graph) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting step creation pass.")

	// The preprocessed dataset is shared by every evaluation branch.
	if err := addStep(graph, &step.Step{
		Name: step.PreprocessName,
		Kind: step.KindPreprocess,
	}); err != nil {
		return err
	}

	evaluations := make([]string, 0, len(model.Models))
	for i := range model.Models {
		m := &model.Models[i]
		evalName, err := createModelBranch(ctx, m, graph)
		if err != nil {
			return err
		}
		evaluations = append(evaluations, evalName)
	}

	// All evaluation results fan into a single selection step, whose winner
	// is handed to registration.
	if err := addStep(graph, &step.Step{
		Name:      step.SelectionName,
		Kind:      step.KindSelection,
		DependsOn: evaluations,
	}); err != nil {
		return err
	}
	if err := addStep(graph, &step.Step{
		Name:      step.RegistrationName,
		Kind:      step.KindRegister,
		DependsOn: []string{step.SelectionName},
	}); err != nil {
		return err
	}

	// Cleanup steps run in parallel, but only once registration has
	// completed: an endpoint must stay up until the winner is recorded.
	for i := range model.Models {
		m := &model.Models[i]
		if !m.CleanupEndpoint {
			continue
		}
		logger.Debug("Creating cleanup step.", "model", m.Name, "endpoint", m.EndpointName)
		if err := addStep(graph, &step.Step{
			Name:      step.CleanupName(m),
			Kind:      step.KindCleanup,
			Model:     m,
			DependsOn: []string{step.RegistrationName},
		}); err != nil {
			return err
		}
	}

	logger.Debug("Finished step creation pass.")
	return nil
}

// createModelBranch emits the [finetune ->] deploy -> evaluate chain for one
// model variant and returns the name of its evaluate step.
func createModelBranch(ctx context.Context, m *config.ModelSpec, graph *Graph) (string, error) {
	logger := ctxlog.FromContext(ctx)

	deploy := &step.Step{
		Name:  step.DeployName(m),
		Kind:  step.KindDeploy,
		Model: m,
	}

	if m.IsFinetuning() {
		logger.Debug("Creating finetune step for model.", "model", m.Name)
		finetune := &step.Step{
			Name:            step.FinetuneName(m),
			Kind:            step.KindFinetune,
			Model:           m,
			KeepAlivePeriod: finetuneKeepAlive,
		}
		if err := addStep(graph, finetune); err != nil {
			return "", err
		}
		// The deploy step serves the tuned artifact, not the hub model.
		deploy.DependsOn = []string{finetune.Name}
	}

	logger.Debug("Creating deploy step for model.", "model", m.Name, "endpoint", m.EndpointName)
	if err := addStep(graph, deploy); err != nil {
		return "", err
	}

	evaluate := &step.Step{
		Name:                 step.EvaluationName(m),
		Kind:                 step.KindEvaluate,
		Model:                m,
		DependsOn:            []string{step.PreprocessName, deploy.Name},
		KeepAlivePeriod:      evaluateKeepAlive,
		PreExecutionCommands: evaluatePreExec,
	}
	logger.Debug("Creating evaluate step for model.", "model", m.Name)
	if err := addStep(graph, evaluate); err != nil {
		return "", err
	}

	return evaluate.Name, nil
}
