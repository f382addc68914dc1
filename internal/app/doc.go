// Package app wires the sales pipeline HTTP service together.
//
// NewApplication initializes OpenTelemetry, builds the pipeline and health
// services and mounts them on a chi router together with the /metrics
// scrape endpoint. Start serves in the background, Stop shuts the server
// and the telemetry providers down, and Run blocks until SIGINT or SIGTERM.
package app
