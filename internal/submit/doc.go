// Package submit hands an assembled pipeline definition to the managed
// orchestration service and tracks the resulting execution. It is the only
// package in the repository that talks to the pipeline service; everything
// it does maps one-to-one onto service API calls, behind a narrow interface
// so tests can run against a fake.
package submit
