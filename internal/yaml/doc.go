// Package yaml provides the YAML implementation of the config.Loader
// interface. It is the only package that knows the on-disk configuration
// format; everything downstream works with the config.Model.
package yaml
