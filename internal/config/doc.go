// Package config defines the typed, format-agnostic model for an evaluation
// pipeline description, along with the Loader interface for reading it from
// a configuration document.
//
// The `config.Model` is the single source of truth for the `builder` and
// `definition` packages. Concrete implementations of the Loader interface,
// such as for YAML, are provided in separate packages.
package config
