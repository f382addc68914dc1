// Package operations runs the sales pipeline as a set of dependent steps.
//
// Core components:
//
// Step: one unit of work (ingest, calendar, rates, normalize, aggregate).
// Steps publish their results into the OperationState context under the
// ContextKey* names and read the results of the steps they depend on.
//
// Registry: holds the registered steps and orders them topologically.
//
// Manager: executes the steps of one run sequentially. Each step gets its
// own timeout and runs once. When a step fails the steps that depend on it
// are marked skipped and the run stops.
//
// Pipeline: wires the five sales steps and converts the final state into a
// typed RunResult.
//
// Example usage:
//
//	pipeline, err := operations.NewSalesPipeline(cfg, operations.Dependencies{Logger: logger})
//	if err != nil {
//		return err
//	}
//	result, err := pipeline.Run(ctx)
package operations
