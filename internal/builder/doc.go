/*
Package builder is responsible for the architectural construction of the
pipeline step graph. It acts as the bridge between the static configuration
model (defined in the 'config' package) and the declarative pipeline
definition handed to the orchestration service (the 'definition' package).

The primary artifact produced by this package is a validated *Graph.

The graph construction is a multi-phase process:

 1. Step creation: the builder emits one shared preprocess step, then one
    branch per configured model: an optional finetune step, a deploy step,
    and an evaluate step. After the branches it emits the selection and
    registration join steps and one cleanup step per model that requested
    endpoint teardown.

 2. Dependency linking: each branch is wired finetune -> deploy -> evaluate,
    with every evaluate step additionally depending on the shared preprocess
    step. All evaluate steps fan into selection, selection into registration,
    and registration into every cleanup step. This topology work is delegated
    to the generic, thread-safe `dag` package.

 3. Validation: the builder checks that every declared dependency resolves to
    an existing step and invokes the DAG's cycle detection, then computes the
    deterministic topological ordering the definition renderer emits steps in.

Nothing in this package executes: every step is a declarative description of
work the external orchestration service performs remotely.
*/
package builder
