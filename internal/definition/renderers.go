package definition

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/evalgrid/evalgrid/internal/step"
)

// kindTraining is the one step kind rendered as a Training step; everything
// else is a Processing step.
const kindTraining = step.KindFinetune

// renderer produces the service-side Arguments payload for one step.
type renderer func(rc *renderContext, s *step.Step) (map[string]any, error)

// renderers maps every step kind to its argument renderer. Render refuses
// kinds missing from this table.
var renderers = map[step.Kind]renderer{
	step.KindPreprocess: renderPreprocess,
	step.KindFinetune:   renderFinetune,
	step.KindDeploy:     renderDeploy,
	step.KindEvaluate:   renderEvaluate,
	step.KindSelection:  renderSelection,
	step.KindRegister:   renderRegister,
	step.KindCleanup:    renderCleanup,
}

// Default hardware for the lightweight processing steps.
const (
	processingInstanceType = "ml.m5.xlarge"
	processingVolumeSizeGB = 30
	trainingVolumeSizeGB   = 100
	trainingMaxRuntimeSecs = 86400
)

// datasetPath is the absolute object-store location of the raw dataset.
func (rc *renderContext) datasetPath() string {
	return rc.run.InputDataPath + "/" + rc.model.Dataset.InputDataLocation
}

// stepOutputPath is the object-store prefix a named step writes its results to.
func (rc *renderContext) stepOutputPath(name string) string {
	return rc.run.OutputDataPath + "/" + name
}

// processingArguments builds the common CreateProcessingJob-shaped payload.
// Entry points are the repository's runtime scripts baked into the step
// image; per-step settings travel in the container environment.
func (rc *renderContext) processingArguments(entrypoint string, s *step.Step, env map[string]string, instanceType string, instanceCount int) map[string]any {
	if s.KeepAlivePeriod > 0 {
		env["KEEP_ALIVE_PERIOD_IN_SECONDS"] = strconv.Itoa(int(s.KeepAlivePeriod.Seconds()))
	}
	if len(s.PreExecutionCommands) > 0 {
		env["PRE_EXECUTION_COMMANDS"] = strings.Join(s.PreExecutionCommands, " && ")
	}

	return map[string]any{
		"AppSpecification": map[string]any{
			"ImageUri":            rc.image,
			"ContainerEntrypoint": []string{"python3", "/opt/ml/code/" + entrypoint},
		},
		"ProcessingResources": map[string]any{
			"ClusterConfig": map[string]any{
				"InstanceCount":  instanceCount,
				"InstanceType":   instanceType,
				"VolumeSizeInGB": processingVolumeSizeGB,
			},
		},
		"Environment": env,
		"RoleArn":     rc.run.RoleARN,
	}
}

func renderPreprocess(rc *renderContext, s *step.Step) (map[string]any, error) {
	env := map[string]string{
		"INPUT_DATA_PATH":   rc.datasetPath(),
		"OUTPUT_DATA_PATH":  rc.stepOutputPath(s.Name),
		"DATASET_NAME":      rc.model.Dataset.Name,
		"MODEL_INPUT_KEY":   rc.model.Dataset.ModelInputKey,
		"TARGET_OUTPUT_KEY": rc.model.Dataset.TargetOutputKey,
	}
	return rc.processingArguments("preprocess.py", s, env, processingInstanceType, 1), nil
}

func renderFinetune(rc *renderContext, s *step.Step) (map[string]any, error) {
	m := s.Model
	if m == nil || m.Finetuning == nil {
		return nil, fmt.Errorf("finetune step without a finetuning config")
	}
	ft := m.Finetuning

	image := ft.Parameters.TrainingImage
	if image == "" {
		image = rc.image
	}

	channel := func(name, relPath string) map[string]any {
		return map[string]any{
			"ChannelName": name,
			"DataSource": map[string]any{
				"S3DataSource": map[string]any{
					"S3DataType":             "S3Prefix",
					"S3Uri":                  rc.run.InputDataPath + "/" + relPath,
					"S3DataDistributionType": "FullyReplicated",
				},
			},
		}
	}

	resources := map[string]any{
		"InstanceCount":  ft.Parameters.NumInstances,
		"InstanceType":   ft.Parameters.InstanceType,
		"VolumeSizeInGB": trainingVolumeSizeGB,
	}
	if s.KeepAlivePeriod > 0 {
		resources["KeepAlivePeriodInSeconds"] = int(s.KeepAlivePeriod.Seconds())
	}

	return map[string]any{
		"AlgorithmSpecification": map[string]any{
			"TrainingImage":     image,
			"TrainingInputMode": "File",
		},
		// The training service accepts hyperparameters as strings only.
		"HyperParameters": map[string]string{
			"model_id":          m.ModelID,
			"model_version":     m.ModelVersion,
			"instruction_tuned": ft.Parameters.InstructionTuned,
			"chat_dataset":      ft.Parameters.ChatDataset,
			"epoch":             ft.Parameters.Epoch,
			"max_input_length":  ft.Parameters.MaxInputLength,
			"accept_eula":       "true",
		},
		"InputDataConfig": []any{
			channel("training", ft.TrainDataPath),
			channel("validation", ft.ValidationDataPath),
		},
		// Uncompressed output so the deploy step can serve the artifact
		// directly from this prefix.
		"OutputDataConfig": map[string]any{
			"S3OutputPath":    rc.stepOutputPath(s.Name),
			"CompressionType": "NONE",
		},
		"ResourceConfig": resources,
		"StoppingCondition": map[string]any{
			"MaxRuntimeInSeconds": trainingMaxRuntimeSecs,
		},
		"RoleArn": rc.run.RoleARN,
	}, nil
}

func renderDeploy(rc *renderContext, s *step.Step) (map[string]any, error) {
	m := s.Model
	if m == nil {
		return nil, fmt.Errorf("deploy step without a model")
	}

	env := map[string]string{
		"MODEL_ID":      m.ModelID,
		"MODEL_VERSION": m.ModelVersion,
		"ENDPOINT_NAME": m.EndpointName,
		"INSTANCE_TYPE": m.Deployment.InstanceType,
		"NUM_INSTANCES": strconv.Itoa(m.Deployment.NumInstances),
	}
	if m.IsFinetuning() {
		// Serve the tuned artifact written by the upstream finetune step
		// instead of the hub model.
		env["MODEL_ARTIFACTS_PATH"] = rc.stepOutputPath(step.FinetuneName(m))
	}
	return rc.processingArguments("deploy.py", s, env, processingInstanceType, 1), nil
}

func renderEvaluate(rc *renderContext, s *step.Step) (map[string]any, error) {
	m := s.Model
	if m == nil {
		return nil, fmt.Errorf("evaluate step without a model")
	}

	algorithms, err := json.Marshal(rc.model.Algorithms)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize algorithms config: %w", err)
	}

	env := map[string]string{
		"ENDPOINT_NAME":           m.EndpointName,
		"MODEL_ID":                m.ModelID,
		"MODEL_VERSION":           m.ModelVersion,
		"DATASET_NAME":            rc.model.Dataset.Name,
		"PROCESSED_DATA_PATH":     rc.stepOutputPath(step.PreprocessName),
		"OUTPUT_DATA_PATH":        rc.stepOutputPath(s.Name),
		"ALGORITHMS":              string(algorithms),
		"MODEL_OUTPUT_EXPRESSION": m.Evaluation.Output,
		"CONTENT_TEMPLATE":        m.Evaluation.ContentTemplate,
	}
	return rc.processingArguments("evaluation.py", s, env, processingInstanceType, 1), nil
}

func renderSelection(rc *renderContext, s *step.Step) (map[string]any, error) {
	env := map[string]string{
		// The selection entrypoint scans every evaluation_* prefix under
		// the run output path and writes the winner under its own.
		"EVALUATION_RESULTS_PATH": rc.run.OutputDataPath,
		"OUTPUT_DATA_PATH":        rc.stepOutputPath(s.Name),
	}
	return rc.processingArguments("selection.py", s, env, processingInstanceType, 1), nil
}

func renderRegister(rc *renderContext, s *step.Step) (map[string]any, error) {
	env := map[string]string{
		"BEST_MODEL_PATH":          rc.stepOutputPath(step.SelectionName),
		"OUTPUT_DATA_PATH":         rc.stepOutputPath(s.Name),
		"MODEL_PACKAGE_GROUP_NAME": rc.group,
		"MODEL_APPROVAL_STATUS":    "PendingManualApproval",
	}
	return rc.processingArguments("register.py", s, env, processingInstanceType, 1), nil
}

func renderCleanup(rc *renderContext, s *step.Step) (map[string]any, error) {
	m := s.Model
	if m == nil {
		return nil, fmt.Errorf("cleanup step without a model")
	}
	env := map[string]string{
		"ENDPOINT_NAME": m.EndpointName,
		"MODEL_ID":      m.ModelID,
	}
	return rc.processingArguments("cleanup.py", s, env, processingInstanceType, 1), nil
}
