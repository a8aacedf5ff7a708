// Package dag provides a generic, concurrency-safe directed acyclic graph
// used to hold the pipeline step topology. It knows nothing about steps or
// the orchestration service; it only answers topological questions (edges,
// cycle detection, deterministic ordering) for the builder and the
// definition renderer.
package dag
