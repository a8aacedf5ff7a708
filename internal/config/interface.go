package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads a pipeline description from the given path and translates
	// it into the format-agnostic model. Implementations must return a model
	// that has already passed Validate.
	Load(ctx context.Context, path string) (*Model, error)
}
