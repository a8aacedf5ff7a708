package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/google/uuid"

	"github.com/evalgrid/evalgrid/internal/ctxlog"
)

// API is the subset of the pipeline service client the submitter uses. The
// production implementation is *sagemaker.Client.
type API interface {
	CreatePipeline(ctx context.Context, params *sagemaker.CreatePipelineInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreatePipelineOutput, error)
	UpdatePipeline(ctx context.Context, params *sagemaker.UpdatePipelineInput, optFns ...func(*sagemaker.Options)) (*sagemaker.UpdatePipelineOutput, error)
	StartPipelineExecution(ctx context.Context, params *sagemaker.StartPipelineExecutionInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StartPipelineExecutionOutput, error)
	DescribePipelineExecution(ctx context.Context, params *sagemaker.DescribePipelineExecutionInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribePipelineExecutionOutput, error)
	ListPipelineExecutionSteps(ctx context.Context, params *sagemaker.ListPipelineExecutionStepsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListPipelineExecutionStepsOutput, error)
	ListEndpoints(ctx context.Context, params *sagemaker.ListEndpointsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListEndpointsOutput, error)
}

// Client submits pipeline definitions and follows their executions.
type Client struct {
	api API
}

// NewClient creates a submitter over the given service API.
func NewClient(api API) *Client {
	return &Client{api: api}
}

// Upsert creates the named pipeline from the definition document, or updates
// it in place when it already exists. It returns the pipeline ARN.
func (c *Client) Upsert(ctx context.Context, name, roleARN string, definition []byte) (string, error) {
	logger := ctxlog.FromContext(ctx)

	created, err := c.api.CreatePipeline(ctx, &sagemaker.CreatePipelineInput{
		PipelineName:       aws.String(name),
		PipelineDefinition: aws.String(string(definition)),
		RoleArn:            aws.String(roleARN),
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	if err == nil {
		logger.Info("Pipeline created.", "pipeline", name, "arn", aws.ToString(created.PipelineArn))
		return aws.ToString(created.PipelineArn), nil
	}

	var inUse *types.ResourceInUse
	if !errors.As(err, &inUse) {
		return "", fmt.Errorf("failed to create pipeline '%s': %w", name, err)
	}

	// The pipeline already exists; push the fresh definition instead.
	logger.Debug("Pipeline already exists, updating definition.", "pipeline", name)
	updated, err := c.api.UpdatePipeline(ctx, &sagemaker.UpdatePipelineInput{
		PipelineName:       aws.String(name),
		PipelineDefinition: aws.String(string(definition)),
		RoleArn:            aws.String(roleARN),
	})
	if err != nil {
		return "", fmt.Errorf("failed to update pipeline '%s': %w", name, err)
	}
	logger.Info("Pipeline updated.", "pipeline", name, "arn", aws.ToString(updated.PipelineArn))
	return aws.ToString(updated.PipelineArn), nil
}

// Start kicks off one execution of the named pipeline and returns the
// execution ARN. The request carries a fresh idempotency token, so a retried
// call cannot start a second run.
func (c *Client) Start(ctx context.Context, name, runID string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	out, err := c.api.StartPipelineExecution(ctx, &sagemaker.StartPipelineExecutionInput{
		PipelineName:                 aws.String(name),
		ClientRequestToken:           aws.String(uuid.NewString()),
		PipelineExecutionDisplayName: aws.String("run-" + runID),
		PipelineExecutionDescription: aws.String("evaluation run " + runID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start pipeline '%s': %w", name, err)
	}

	arn := aws.ToString(out.PipelineExecutionArn)
	logger.Info("Pipeline execution started.", "pipeline", name, "execution_arn", arn)
	return arn, nil
}

// WaitForExecution polls the execution until it reaches a terminal status.
// On failure it reports which remote steps failed before returning an error.
func (c *Client) WaitForExecution(ctx context.Context, executionARN string, pollInterval time.Duration) (types.PipelineExecutionStatus, error) {
	logger := ctxlog.FromContext(ctx)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		out, err := c.api.DescribePipelineExecution(ctx, &sagemaker.DescribePipelineExecutionInput{
			PipelineExecutionArn: aws.String(executionARN),
		})
		if err != nil {
			return "", fmt.Errorf("failed to describe pipeline execution: %w", err)
		}

		status := out.PipelineExecutionStatus
		switch status {
		case types.PipelineExecutionStatusSucceeded:
			logger.Info("Pipeline execution succeeded.", "execution_arn", executionARN)
			return status, nil
		case types.PipelineExecutionStatusFailed, types.PipelineExecutionStatusStopped:
			c.logFailedSteps(ctx, executionARN)
			return status, fmt.Errorf("pipeline execution finished with status %s: %s",
				status, aws.ToString(out.FailureReason))
		default:
			logger.Debug("Pipeline execution still running.", "status", string(status))
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// logFailedSteps surfaces the names and reasons of failed remote steps. This
// is best effort; the terminal status error is reported regardless.
func (c *Client) logFailedSteps(ctx context.Context, executionARN string) {
	logger := ctxlog.FromContext(ctx)

	var nextToken *string
	for {
		out, err := c.api.ListPipelineExecutionSteps(ctx, &sagemaker.ListPipelineExecutionStepsInput{
			PipelineExecutionArn: aws.String(executionARN),
			NextToken:            nextToken,
		})
		if err != nil {
			logger.Warn("Could not list pipeline execution steps.", "error", err)
			return
		}

		for _, s := range out.PipelineExecutionSteps {
			if s.StepStatus != types.StepStatusFailed {
				continue
			}
			logger.Error("Pipeline step failed.",
				"step", aws.ToString(s.StepName),
				"reason", aws.ToString(s.FailureReason),
			)
		}

		nextToken = out.NextToken
		if nextToken == nil {
			return
		}
	}
}

// EndpointExists reports whether a live inference endpoint with exactly the
// given name exists.
func (c *Client) EndpointExists(ctx context.Context, endpointName string) (bool, error) {
	var nextToken *string
	for {
		out, err := c.api.ListEndpoints(ctx, &sagemaker.ListEndpointsInput{
			NameContains: aws.String(endpointName),
			NextToken:    nextToken,
		})
		if err != nil {
			return false, fmt.Errorf("failed to list endpoints: %w", err)
		}

		for _, e := range out.Endpoints {
			if aws.ToString(e.EndpointName) == endpointName {
				return true, nil
			}
		}

		nextToken = out.NextToken
		if nextToken == nil {
			return false, nil
		}
	}
}
