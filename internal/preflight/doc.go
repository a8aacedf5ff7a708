// Package preflight validates the external prerequisites of a pipeline run
// before anything is submitted: the dataset and fine-tuning data locations
// must exist in the object store, and the account's default artifact bucket
// can be resolved when the caller did not name an input data root. Failing
// here is cheap; failing inside a remote training job is not.
package preflight
