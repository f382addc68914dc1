package config

import (
	"time"

	"salesetl/pkg/contracts"
)

// Application constants
const (
	AppName    = "salesetl"
	AppVersion = contracts.Version

	// DefaultRatesURL lists units of each currency per one unit of {base}.
	DefaultRatesURL      = "https://open.er-api.com/v6/latest/{base}"
	DefaultRatesTimeout  = 30 * time.Second
	DefaultRatesCacheTTL = time.Hour

	// Calendar bounds used when no sales date could be observed.
	DefaultCalendarStart = "2024-01-01"
	DefaultCalendarEnd   = "2026-12-31"

	// Output file names
	SummaryCSVFile      = "summary.csv"
	CalendarCSVFile     = "calendar.csv"
	WorkbookFile        = "sales_summary.xlsx"
	SummaryParquetFile  = "summary.parquet"
	CalendarParquetFile = "calendar.parquet"
)
