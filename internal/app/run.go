package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/evalgrid/evalgrid/internal/builder"
	"github.com/evalgrid/evalgrid/internal/config"
	"github.com/evalgrid/evalgrid/internal/ctxlog"
	"github.com/evalgrid/evalgrid/internal/definition"
)

// runIDLayout is the timestamp layout used for run identifiers, safe for use
// inside object-store prefixes and display names.
const runIDLayout = "2006_01_02_15_04_05"

// defaultInputFolder is the folder under the default artifact bucket used
// when the caller does not name an input data root.
const defaultInputFolder = "llm-evaluation-at-scale-example"

// Submitter manages pipeline definitions and executions on the platform.
// The production implementation is *submit.Client.
type Submitter interface {
	Upsert(ctx context.Context, name, roleARN string, definition []byte) (string, error)
	Start(ctx context.Context, name, runID string) (string, error)
	WaitForExecution(ctx context.Context, executionARN string, pollInterval time.Duration) (smtypes.PipelineExecutionStatus, error)
	EndpointExists(ctx context.Context, endpointName string) (bool, error)
}

// Checker validates run prerequisites. The production implementation is
// *preflight.Checker.
type Checker interface {
	DefaultBucket(ctx context.Context) (string, error)
	CheckInputs(ctx context.Context, model *config.Model, inputDataPath string) error
}

// Services bundles the platform clients a run needs. Dry runs never touch
// either of them.
type Services struct {
	Pipelines Submitter
	Checks    Checker
}

// Run executes one evaluation run end to end: build the step graph, render
// the definition document, and either print it (dry run) or submit it and
// start an execution.
func (a *App) Run(ctx context.Context, services Services) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger

	runID := time.Now().UTC().Format(runIDLayout)
	logger.Info("Starting evaluation run.", "run_id", runID, "pipeline", a.model.Pipeline.Name)

	inputDataPath, err := a.resolveInputDataPath(ctx, services)
	if err != nil {
		return err
	}
	outputDataPath := fmt.Sprintf("%s/output_%s_%s", inputDataPath, a.model.Pipeline.Name, runID)
	logger.Info("Resolved data locations.",
		"input_data_path", inputDataPath,
		"output_data_path", outputDataPath,
	)

	graph, err := builder.Build(ctx, a.model)
	if err != nil {
		return fmt.Errorf("failed to build step graph: %w", err)
	}

	doc, err := definition.Render(ctx, graph, a.model, definition.Run{
		RunID:          runID,
		RoleARN:        a.config.RoleARN,
		InputDataPath:  inputDataPath,
		OutputDataPath: outputDataPath,
	})
	if err != nil {
		return fmt.Errorf("failed to render pipeline definition: %w", err)
	}

	body, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode pipeline definition: %w", err)
	}

	if a.config.DryRun {
		fmt.Fprintln(a.outW, string(body))
		logger.Info("Dry run complete, nothing submitted.", "steps", len(doc.Steps))
		return nil
	}

	if err := services.Checks.CheckInputs(ctx, a.model, inputDataPath); err != nil {
		return fmt.Errorf("preflight check failed: %w", err)
	}
	a.warnExistingEndpoints(ctx, services.Pipelines)

	if _, err := services.Pipelines.Upsert(ctx, a.model.Pipeline.Name, a.config.RoleARN, body); err != nil {
		return err
	}
	executionARN, err := services.Pipelines.Start(ctx, a.model.Pipeline.Name, runID)
	if err != nil {
		return err
	}

	if !a.config.Wait {
		logger.Info("Execution started, not waiting for completion.", "execution_arn", executionARN)
		return nil
	}

	status, err := services.Pipelines.WaitForExecution(ctx, executionARN, a.config.PollInterval)
	if err != nil {
		return err
	}
	logger.Info("Execution finished.", "status", string(status))
	return nil
}

// resolveInputDataPath returns the configured input data root, or derives the
// conventional one under the account's default artifact bucket. A dry run has
// no platform clients to derive it from, so there it must be explicit.
func (a *App) resolveInputDataPath(ctx context.Context, services Services) (string, error) {
	if a.config.InputDataPath != "" {
		return a.config.InputDataPath, nil
	}
	if a.config.DryRun {
		return "", errors.New("an explicit input data path is required for a dry run")
	}

	bucket, err := services.Checks.DefaultBucket(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve default input data path: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", bucket, defaultInputFolder), nil
}

// warnExistingEndpoints flags inference endpoints that already exist under a
// configured name. The deploy steps reuse them, which is usually intended but
// worth surfacing before a long run.
func (a *App) warnExistingEndpoints(ctx context.Context, pipelines Submitter) {
	logger := ctxlog.FromContext(ctx)

	for i := range a.model.Models {
		m := &a.model.Models[i]
		exists, err := pipelines.EndpointExists(ctx, m.EndpointName)
		if err != nil {
			logger.Warn("Could not check for an existing endpoint.",
				"endpoint", m.EndpointName, "error", err)
			continue
		}
		if exists {
			logger.Warn("Endpoint already exists and will be reused.",
				"model", m.Name, "endpoint", m.EndpointName)
		}
	}
}
