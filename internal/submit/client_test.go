package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI implements the API interface with overridable behavior per call.
type fakeAPI struct {
	createPipeline             func(*sagemaker.CreatePipelineInput) (*sagemaker.CreatePipelineOutput, error)
	updatePipeline             func(*sagemaker.UpdatePipelineInput) (*sagemaker.UpdatePipelineOutput, error)
	startPipelineExecution     func(*sagemaker.StartPipelineExecutionInput) (*sagemaker.StartPipelineExecutionOutput, error)
	describePipelineExecution  func(*sagemaker.DescribePipelineExecutionInput) (*sagemaker.DescribePipelineExecutionOutput, error)
	listPipelineExecutionSteps func(*sagemaker.ListPipelineExecutionStepsInput) (*sagemaker.ListPipelineExecutionStepsOutput, error)
	listEndpoints              func(*sagemaker.ListEndpointsInput) (*sagemaker.ListEndpointsOutput, error)
}

func (f *fakeAPI) CreatePipeline(_ context.Context, in *sagemaker.CreatePipelineInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreatePipelineOutput, error) {
	return f.createPipeline(in)
}

func (f *fakeAPI) UpdatePipeline(_ context.Context, in *sagemaker.UpdatePipelineInput, _ ...func(*sagemaker.Options)) (*sagemaker.UpdatePipelineOutput, error) {
	return f.updatePipeline(in)
}

func (f *fakeAPI) StartPipelineExecution(_ context.Context, in *sagemaker.StartPipelineExecutionInput, _ ...func(*sagemaker.Options)) (*sagemaker.StartPipelineExecutionOutput, error) {
	return f.startPipelineExecution(in)
}

func (f *fakeAPI) DescribePipelineExecution(_ context.Context, in *sagemaker.DescribePipelineExecutionInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribePipelineExecutionOutput, error) {
	return f.describePipelineExecution(in)
}

func (f *fakeAPI) ListPipelineExecutionSteps(_ context.Context, in *sagemaker.ListPipelineExecutionStepsInput, _ ...func(*sagemaker.Options)) (*sagemaker.ListPipelineExecutionStepsOutput, error) {
	return f.listPipelineExecutionSteps(in)
}

func (f *fakeAPI) ListEndpoints(_ context.Context, in *sagemaker.ListEndpointsInput, _ ...func(*sagemaker.Options)) (*sagemaker.ListEndpointsOutput, error) {
	return f.listEndpoints(in)
}

func TestUpsert_CreatesNewPipeline(t *testing.T) {
	var gotCreate *sagemaker.CreatePipelineInput
	api := &fakeAPI{
		createPipeline: func(in *sagemaker.CreatePipelineInput) (*sagemaker.CreatePipelineOutput, error) {
			gotCreate = in
			return &sagemaker.CreatePipelineOutput{
				PipelineArn: aws.String("arn:aws:sagemaker:us-east-1:1:pipeline/llm-eval"),
			}, nil
		},
	}

	client := NewClient(api)
	arn, err := client.Upsert(context.Background(), "llm-eval", "arn:role", []byte(`{"Version":"2020-12-01"}`))
	require.NoError(t, err)

	assert.Equal(t, "arn:aws:sagemaker:us-east-1:1:pipeline/llm-eval", arn)
	require.NotNil(t, gotCreate)
	assert.Equal(t, "llm-eval", aws.ToString(gotCreate.PipelineName))
	assert.Equal(t, "arn:role", aws.ToString(gotCreate.RoleArn))
	assert.JSONEq(t, `{"Version":"2020-12-01"}`, aws.ToString(gotCreate.PipelineDefinition))
	assert.NotEmpty(t, aws.ToString(gotCreate.ClientRequestToken))
}

func TestUpsert_FallsBackToUpdateWhenPipelineExists(t *testing.T) {
	var gotUpdate *sagemaker.UpdatePipelineInput
	api := &fakeAPI{
		createPipeline: func(in *sagemaker.CreatePipelineInput) (*sagemaker.CreatePipelineOutput, error) {
			return nil, &types.ResourceInUse{Message: aws.String("pipeline names must be unique")}
		},
		updatePipeline: func(in *sagemaker.UpdatePipelineInput) (*sagemaker.UpdatePipelineOutput, error) {
			gotUpdate = in
			return &sagemaker.UpdatePipelineOutput{
				PipelineArn: aws.String("arn:aws:sagemaker:us-east-1:1:pipeline/llm-eval"),
			}, nil
		},
	}

	client := NewClient(api)
	arn, err := client.Upsert(context.Background(), "llm-eval", "arn:role", []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "arn:aws:sagemaker:us-east-1:1:pipeline/llm-eval", arn)
	require.NotNil(t, gotUpdate)
	assert.Equal(t, "llm-eval", aws.ToString(gotUpdate.PipelineName))
}

func TestUpsert_PropagatesUnexpectedErrors(t *testing.T) {
	api := &fakeAPI{
		createPipeline: func(in *sagemaker.CreatePipelineInput) (*sagemaker.CreatePipelineOutput, error) {
			return nil, errors.New("access denied")
		},
	}

	client := NewClient(api)
	_, err := client.Upsert(context.Background(), "llm-eval", "arn:role", []byte(`{}`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to create pipeline")
	assert.ErrorContains(t, err, "access denied")
}

func TestStart_UsesFreshIdempotencyTokens(t *testing.T) {
	var tokens []string
	api := &fakeAPI{
		startPipelineExecution: func(in *sagemaker.StartPipelineExecutionInput) (*sagemaker.StartPipelineExecutionOutput, error) {
			tokens = append(tokens, aws.ToString(in.ClientRequestToken))
			return &sagemaker.StartPipelineExecutionOutput{
				PipelineExecutionArn: aws.String("arn:execution/1"),
			}, nil
		},
	}

	client := NewClient(api)
	arn, err := client.Start(context.Background(), "llm-eval", "2024_05_01_12_00_00")
	require.NoError(t, err)
	assert.Equal(t, "arn:execution/1", arn)

	_, err = client.Start(context.Background(), "llm-eval", "2024_05_01_13_00_00")
	require.NoError(t, err)

	require.Len(t, tokens, 2)
	assert.NotEmpty(t, tokens[0])
	assert.NotEqual(t, tokens[0], tokens[1], "each start must carry its own token")
}

func TestWaitForExecution_PollsUntilSuccess(t *testing.T) {
	statuses := []types.PipelineExecutionStatus{
		types.PipelineExecutionStatusExecuting,
		types.PipelineExecutionStatusExecuting,
		types.PipelineExecutionStatusSucceeded,
	}
	calls := 0
	api := &fakeAPI{
		describePipelineExecution: func(in *sagemaker.DescribePipelineExecutionInput) (*sagemaker.DescribePipelineExecutionOutput, error) {
			status := statuses[calls]
			calls++
			return &sagemaker.DescribePipelineExecutionOutput{PipelineExecutionStatus: status}, nil
		},
	}

	client := NewClient(api)
	status, err := client.WaitForExecution(context.Background(), "arn:execution/1", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, types.PipelineExecutionStatusSucceeded, status)
	assert.Equal(t, 3, calls)
}

func TestWaitForExecution_ReportsFailedSteps(t *testing.T) {
	listedSteps := false
	api := &fakeAPI{
		describePipelineExecution: func(in *sagemaker.DescribePipelineExecutionInput) (*sagemaker.DescribePipelineExecutionOutput, error) {
			return &sagemaker.DescribePipelineExecutionOutput{
				PipelineExecutionStatus: types.PipelineExecutionStatusFailed,
				FailureReason:           aws.String("evaluation step crashed"),
			}, nil
		},
		listPipelineExecutionSteps: func(in *sagemaker.ListPipelineExecutionStepsInput) (*sagemaker.ListPipelineExecutionStepsOutput, error) {
			listedSteps = true
			return &sagemaker.ListPipelineExecutionStepsOutput{
				PipelineExecutionSteps: []types.PipelineExecutionStep{
					{StepName: aws.String("evaluation_llama-7b"), StepStatus: types.StepStatusFailed, FailureReason: aws.String("oom")},
					{StepName: aws.String("preprocess"), StepStatus: types.StepStatusSucceeded},
				},
			}, nil
		},
	}

	client := NewClient(api)
	status, err := client.WaitForExecution(context.Background(), "arn:execution/1", time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, types.PipelineExecutionStatusFailed, status)
	assert.ErrorContains(t, err, "evaluation step crashed")
	assert.True(t, listedSteps, "failed runs should surface their failed steps")
}

func TestWaitForExecution_HonorsContextCancellation(t *testing.T) {
	api := &fakeAPI{
		describePipelineExecution: func(in *sagemaker.DescribePipelineExecutionInput) (*sagemaker.DescribePipelineExecutionOutput, error) {
			return &sagemaker.DescribePipelineExecutionOutput{
				PipelineExecutionStatus: types.PipelineExecutionStatusExecuting,
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(api)
	_, err := client.WaitForExecution(ctx, "arn:execution/1", time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEndpointExists(t *testing.T) {
	t.Run("exact match across pages", func(t *testing.T) {
		api := &fakeAPI{
			listEndpoints: func(in *sagemaker.ListEndpointsInput) (*sagemaker.ListEndpointsOutput, error) {
				if in.NextToken == nil {
					return &sagemaker.ListEndpointsOutput{
						Endpoints: []types.EndpointSummary{
							{EndpointName: aws.String("llama-7b-endpoint-old")},
						},
						NextToken: aws.String("page-2"),
					}, nil
				}
				return &sagemaker.ListEndpointsOutput{
					Endpoints: []types.EndpointSummary{
						{EndpointName: aws.String("llama-7b-endpoint")},
					},
				}, nil
			},
		}

		exists, err := NewClient(api).EndpointExists(context.Background(), "llama-7b-endpoint")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("substring matches do not count", func(t *testing.T) {
		api := &fakeAPI{
			listEndpoints: func(in *sagemaker.ListEndpointsInput) (*sagemaker.ListEndpointsOutput, error) {
				return &sagemaker.ListEndpointsOutput{
					Endpoints: []types.EndpointSummary{
						{EndpointName: aws.String("llama-7b-endpoint-v2")},
					},
				}, nil
			},
		}

		exists, err := NewClient(api).EndpointExists(context.Background(), "llama-7b-endpoint")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
