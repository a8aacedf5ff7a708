/*
Package definition renders a built pipeline graph into the declarative
definition document the orchestration service accepts (the SageMaker
pipeline definition schema, version 2020-12-01).

Rendering is pure: it touches no network and no clock, so two renders of the
same graph and run inputs produce byte-identical documents. Each step kind
has an argument renderer registered in a kind-indexed table; a kind without
a renderer is a programmer error surfaced at render time, not a document
silently missing a step.

The fine-tune kind renders as a Training step. Every other kind renders as a
Processing step running one of the repository's runtime entrypoints, with
the step's settings carried in the container environment. Data flows between
steps through the run-scoped output prefix; ordering flows through
DependsOn.
*/
package definition
