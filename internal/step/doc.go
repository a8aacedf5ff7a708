// Package step defines the fixed vocabulary of remote-execution steps the
// builder assembles into a pipeline graph, and the naming conventions tying
// step names to model variants.
package step
