// Package shared holds code used across packages that belongs to no single
// pipeline component.
//
// The testutil subpackage provides sales CSV fixtures and a capturing slog
// handler for tests:
//
//	folder := testutil.SalesFolder(t, testutil.JanFebSales()...)
//	logger, logs := testutil.NewTestLogger(t)
//	...
//	logs.AssertLogged(t, slog.LevelWarn, "Skipping unparseable file")
package shared
