package yaml

import (
	"bytes"
	"context"
	"fmt"
	"os"

	goyaml "gopkg.in/yaml.v3"

	"github.com/evalgrid/evalgrid/internal/config"
	"github.com/evalgrid/evalgrid/internal/ctxlog"
)

// Loader implements config.Loader for YAML pipeline descriptions.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements the config.Loader interface. Decoding is strict: keys that
// do not map to a known field are an error, so typos fail loudly instead of
// silently dropping part of a pipeline.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading pipeline configuration.", "path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	model := &config.Model{}
	dec := goyaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(model); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Pipeline configuration loaded.",
		"pipeline", model.Pipeline.Name,
		"models", len(model.Models),
		"algorithms", len(model.Algorithms),
	)
	return model, nil
}
