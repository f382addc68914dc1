// Package services sits between the HTTP handlers and the pipeline.
//
// PipelineService applies per-request overrides to the configured run,
// executes the pipeline, writes the configured outputs and keeps the latest
// successful result in memory for the read endpoints. Runs never overlap: a
// request that arrives while a run is executing is rejected with
// ErrRunInProgress.
//
// HealthService reports liveness together with the outcome of the last run.
package services
