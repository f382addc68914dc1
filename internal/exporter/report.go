package exporter

import (
	"salesetl/internal/operations"
	"salesetl/internal/rates"
	"salesetl/pkg/contracts/domain"
)

// Report is the part of a run that is written to outputs
type Report struct {
	BaseCurrency string
	Summary      []domain.SummaryRow
	Calendar     []domain.CalendarDay
	Rates        *rates.Resolution
}

// ReportFromRun extracts the exportable tables of a pipeline run
func ReportFromRun(result *operations.RunResult) Report {
	if result == nil {
		return Report{}
	}
	return Report{
		BaseCurrency: result.BaseCurrency,
		Summary:      result.Summary,
		Calendar:     result.Calendar,
		Rates:        result.Rates,
	}
}
