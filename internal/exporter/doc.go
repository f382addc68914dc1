// Package exporter writes the results of a sales pipeline run.
//
// Formats:
//
//	csv      summary.csv and calendar.csv with a UTF-8 BOM
//	xlsx     sales_summary.xlsx with Summary, Calendar and Rates sheets
//	parquet  summary.parquet and calendar.parquet, SNAPPY compressed
//
// When a spreadsheet id is configured the summary is also published to a
// Google Sheet. All files go through files.Manager, which writes to a
// temporary file and renames it into place.
//
// Example usage:
//
//	exp := exporter.NewExporter(cfg.Output, logger)
//	report, err := exp.Export(ctx, exporter.ReportFromRun(result))
package exporter
