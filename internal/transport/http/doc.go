// Package http implements the HTTP handlers of the sales pipeline service.
//
// Handlers stay thin: they decode and validate requests, delegate to the
// services package and render JSON with chi/render. Every error response is
// an RFC 7807 problem produced by errors.ErrorHandler.
//
//	GET  /api/health                     liveness and last run status
//	GET  /api/version                    build information
//	POST /api/runs                       execute a run with optional overrides
//	GET  /api/summary                    summary of the latest run
//	GET  /api/calendar                   calendar of the latest run
//	GET  /api/rates                      rate resolution of the latest run
//	GET  /api/summary/export?format=csv  download the latest summary
package http
