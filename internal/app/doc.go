// Package app wires the configuration loader, the step-graph builder, the
// definition renderer and the platform clients into one runnable
// application. It owns the run lifecycle: load, build, render, preflight,
// submit, and optionally wait for the remote execution to finish.
package app
