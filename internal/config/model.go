package config

// Model is the unified representation of the entire pipeline description:
// which models to evaluate, against which dataset, with which algorithms.
type Model struct {
	Pipeline   Pipeline        `yaml:"pipeline"`
	Dataset    Dataset         `yaml:"dataset"`
	Algorithms []Algorithm     `yaml:"algorithms"`
	Models     []ModelSpec     `yaml:"models"`
}

// Pipeline holds pipeline-level settings.
type Pipeline struct {
	// Name is the name the pipeline is created (or updated) under in the
	// orchestration service.
	Name string `yaml:"name"`
	// ImageURI optionally overrides the container image used for the
	// processing-type steps. Empty selects the built-in default.
	ImageURI string `yaml:"image_uri"`
	// ModelPackageGroup is the registry group the winning model is
	// registered under. Empty selects the built-in default.
	ModelPackageGroup string `yaml:"model_package_group"`
}

// Dataset describes the held-out evaluation dataset.
type Dataset struct {
	// Name is a human-readable dataset identifier, passed to the evaluation
	// library so reports can reference it.
	Name string `yaml:"name"`
	// InputDataLocation is the dataset path relative to the input data root.
	InputDataLocation string `yaml:"input_data_location"`
	// ModelInputKey is the dataset field holding the prompt.
	ModelInputKey string `yaml:"model_input_key"`
	// TargetOutputKey is the dataset field holding the reference answer.
	TargetOutputKey string `yaml:"target_output_key"`
}

// Algorithm names one scoring routine from the external evaluation library.
type Algorithm struct {
	// Name is the algorithm identifier, e.g. "FactualKnowledge".
	Name string `yaml:"name"`
	// Module is the library module providing the algorithm. Optional.
	Module string `yaml:"module"`
	// Config holds algorithm-specific settings, passed through verbatim.
	Config map[string]string `yaml:"config"`
}

// ModelSpec describes a single model variant under evaluation: where it
// comes from, how to host it, and whether to adapt it first.
type ModelSpec struct {
	// Name is the unique, human-readable instance name for this variant.
	// It is used to derive step names for the variant's branch.
	Name string `yaml:"name"`
	// ModelID identifies the base model in the model hub.
	ModelID string `yaml:"model_id"`
	// ModelVersion pins the model hub version, e.g. "2.*".
	ModelVersion string `yaml:"model_version"`
	// EndpointName is the inference endpoint the variant is served under.
	EndpointName string `yaml:"endpoint_name"`

	Deployment Deployment `yaml:"deployment_config"`

	// Finetuning, when present, inserts a fine-tune step ahead of deployment
	// and deploys the tuned artifact instead of the hub model.
	Finetuning *Finetuning `yaml:"finetuning"`

	// Evaluation holds per-model overrides for the evaluation runner.
	Evaluation Evaluation `yaml:"evaluation_config"`

	// CleanupEndpoint requests endpoint teardown once the best model has
	// been registered.
	CleanupEndpoint bool `yaml:"cleanup_endpoint"`
}

// Deployment is the hardware spec the hosting service provisions.
type Deployment struct {
	InstanceType string `yaml:"instance_type"`
	NumInstances int    `yaml:"num_instances"`
}

// Finetuning describes a managed training job adapting the base model.
type Finetuning struct {
	// TrainDataPath and ValidationDataPath are relative to the input data root.
	TrainDataPath      string `yaml:"train_data_path"`
	ValidationDataPath string `yaml:"validation_data_path"`

	Parameters FinetuningParameters `yaml:"parameters"`
}

// FinetuningParameters are the training job's hyperparameters and hardware.
// Hyperparameter values are strings because that is how the training service
// accepts them.
type FinetuningParameters struct {
	InstructionTuned string `yaml:"instruction_tuned"`
	ChatDataset      string `yaml:"chat_dataset"`
	Epoch            string `yaml:"epoch"`
	MaxInputLength   string `yaml:"max_input_length"`
	InstanceType     string `yaml:"instance_type"`
	NumInstances     int    `yaml:"num_instances"`
	// TrainingImage optionally overrides the training container image.
	TrainingImage string `yaml:"training_image"`
}

// Evaluation holds the settings the evaluation library needs to talk to a
// deployed endpoint.
type Evaluation struct {
	// Output is the expression extracting generated text from an endpoint
	// response, e.g. "[0].generation.content".
	Output string `yaml:"output"`
	// ContentTemplate is the request body template, with $prompt substituted.
	ContentTemplate string `yaml:"content_template"`
}

// FindModel returns the model spec with the given instance name, or nil.
func (m *Model) FindModel(name string) *ModelSpec {
	for i := range m.Models {
		if m.Models[i].Name == name {
			return &m.Models[i]
		}
	}
	return nil
}

// IsFinetuning reports whether this variant requires a fine-tune step.
func (s *ModelSpec) IsFinetuning() bool {
	return s.Finetuning != nil
}
