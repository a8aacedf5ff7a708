package definition

import "encoding/json"

// SchemaVersion is the pipeline definition schema the service accepts.
const SchemaVersion = "2020-12-01"

// Document is the top-level pipeline definition submitted to the
// orchestration service.
type Document struct {
	Version  string            `json:"Version"`
	Metadata map[string]string `json:"Metadata"`
	Steps    []Step            `json:"Steps"`
}

// Step is one remote-execution step in the definition. Arguments is the
// service-side request payload for the step's job type; DependsOn carries
// the graph edges.
type Step struct {
	Name      string         `json:"Name"`
	Type      string         `json:"Type"`
	DependsOn []string       `json:"DependsOn,omitempty"`
	Arguments map[string]any `json:"Arguments"`
}

// Step types understood by the orchestration service.
const (
	TypeTraining   = "Training"
	TypeProcessing = "Processing"
)

// JSON returns the document serialized the way the service expects it.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
