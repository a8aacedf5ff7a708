package step

import (
	"time"

	"github.com/evalgrid/evalgrid/internal/config"
)

// Kind identifies one entry of the fixed step vocabulary.
type Kind string

const (
	// KindPreprocess prepares the shared evaluation dataset.
	KindPreprocess Kind = "preprocess"
	// KindFinetune runs a managed training job adapting a base model.
	KindFinetune Kind = "finetune"
	// KindDeploy provisions an inference endpoint for a model variant.
	KindDeploy Kind = "deploy"
	// KindEvaluate scores a live endpoint against the shared dataset.
	KindEvaluate Kind = "evaluate"
	// KindSelection picks the best variant from all evaluation results.
	KindSelection Kind = "selection"
	// KindRegister registers the winning model package.
	KindRegister Kind = "register"
	// KindCleanup tears down a variant's endpoint after registration.
	KindCleanup Kind = "cleanup"
)

// Step is one unit of remote execution in the assembled pipeline graph.
// Steps carry declarative settings only; nothing here runs locally.
type Step struct {
	// Name is the unique step name, also used as the node ID in the graph.
	Name string
	// Kind selects the argument renderer for the step.
	Kind Kind
	// Model is the variant this step belongs to. It is nil for the shared
	// steps (preprocess, selection, register).
	Model *config.ModelSpec
	// DependsOn lists the names of steps that must complete first.
	DependsOn []string

	// KeepAlivePeriod keeps the remote compute warm between retries of
	// long-running steps. Zero means the service default.
	KeepAlivePeriod time.Duration
	// PreExecutionCommands run in the step container before the step's
	// entrypoint, e.g. to install the evaluation library.
	PreExecutionCommands []string
}

// Shared step names, fixed by convention.
const (
	PreprocessName   = "preprocess"
	SelectionName    = "model_selection"
	RegistrationName = "best_model_registration"
)

// FinetuneName returns the finetune step name for a model variant.
func FinetuneName(m *config.ModelSpec) string { return "finetune_" + m.Name }

// DeployName returns the deploy step name for a model variant.
func DeployName(m *config.ModelSpec) string { return "deploy_" + m.Name }

// EvaluationName returns the evaluation step name for a model variant.
func EvaluationName(m *config.ModelSpec) string { return "evaluation_" + m.Name }

// CleanupName returns the cleanup step name for a model variant.
func CleanupName(m *config.ModelSpec) string { return "cleanup_" + m.Name }
