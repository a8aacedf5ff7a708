package config

import (
	"fmt"
	"strings"
)

// Validate performs a strict integrity check on a loaded model. It collects
// every problem it finds rather than stopping at the first, so a bad
// configuration file can be fixed in one pass.
func (m *Model) Validate() error {
	var errs []string

	if m.Pipeline.Name == "" {
		errs = append(errs, "pipeline.name is required")
	}
	if m.Dataset.InputDataLocation == "" {
		errs = append(errs, "dataset.input_data_location is required")
	}
	if len(m.Algorithms) == 0 {
		errs = append(errs, "at least one entry under 'algorithms' is required")
	}
	for i, a := range m.Algorithms {
		if a.Name == "" {
			errs = append(errs, fmt.Sprintf("algorithms[%d]: name is required", i))
		}
	}

	if len(m.Models) == 0 {
		errs = append(errs, "at least one entry under 'models' is required")
	}

	seenNames := make(map[string]struct{})
	seenEndpoints := make(map[string]struct{})
	for i, s := range m.Models {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("models[%d]", i)
			errs = append(errs, fmt.Sprintf("%s: name is required", label))
		}
		if _, dup := seenNames[s.Name]; dup && s.Name != "" {
			errs = append(errs, fmt.Sprintf("%s: duplicate model name", label))
		}
		seenNames[s.Name] = struct{}{}

		if s.ModelID == "" {
			errs = append(errs, fmt.Sprintf("%s: model_id is required", label))
		}
		if s.ModelVersion == "" {
			errs = append(errs, fmt.Sprintf("%s: model_version is required", label))
		}
		if s.EndpointName == "" {
			errs = append(errs, fmt.Sprintf("%s: endpoint_name is required", label))
		} else {
			if _, dup := seenEndpoints[s.EndpointName]; dup {
				errs = append(errs, fmt.Sprintf("%s: endpoint_name '%s' is used by another model", label, s.EndpointName))
			}
			seenEndpoints[s.EndpointName] = struct{}{}
		}

		if s.Deployment.InstanceType == "" {
			errs = append(errs, fmt.Sprintf("%s: deployment_config.instance_type is required", label))
		}
		if s.Deployment.NumInstances <= 0 {
			errs = append(errs, fmt.Sprintf("%s: deployment_config.num_instances must be positive", label))
		}

		if ft := s.Finetuning; ft != nil {
			if ft.TrainDataPath == "" {
				errs = append(errs, fmt.Sprintf("%s: finetuning.train_data_path is required", label))
			}
			if ft.ValidationDataPath == "" {
				errs = append(errs, fmt.Sprintf("%s: finetuning.validation_data_path is required", label))
			}
			if ft.Parameters.InstanceType == "" {
				errs = append(errs, fmt.Sprintf("%s: finetuning.parameters.instance_type is required", label))
			}
			if ft.Parameters.NumInstances <= 0 {
				errs = append(errs, fmt.Sprintf("%s: finetuning.parameters.num_instances must be positive", label))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid pipeline configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
