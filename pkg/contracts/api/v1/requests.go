// Package api contains the request and response contracts of the sales
// pipeline HTTP API. Version v1 is the current stable API version.
package api

import (
	"time"

	"salesetl/pkg/contracts/domain"
)

// RunRequest overrides parts of the configured run. Zero values keep the
// configured setting.
type RunRequest struct {
	FiscalStartMonth *int   `json:"fiscal_start_month,omitempty" validate:"omitempty,min=1,max=12"`
	BaseCurrency     string `json:"base_currency,omitempty" validate:"omitempty,currency"`
}

// RunResponse summarizes a finished run
type RunResponse struct {
	ID                  string            `json:"id"`
	Status              string            `json:"status"`
	BaseCurrency        string            `json:"base_currency"`
	FiscalStartMonth    int               `json:"fiscal_start_month"`
	RateSource          domain.RateSource `json:"rate_source,omitempty"`
	FilesIngested       int               `json:"files_ingested"`
	FilesFailed         int               `json:"files_failed"`
	RowsIngested        int               `json:"rows_ingested"`
	RowsDropped         int               `json:"rows_dropped"`
	SummaryRows         int               `json:"summary_rows"`
	UnmatchedCurrencies []string          `json:"unmatched_currencies,omitempty"`
	OutputFiles         []string          `json:"output_files,omitempty"`
	StartedAt           time.Time         `json:"started_at"`
	DurationMS          int64             `json:"duration_ms"`
	Error               string            `json:"error,omitempty"`
}

// SummaryResponse is the summary table of the latest run
type SummaryResponse struct {
	RunID        string              `json:"run_id"`
	BaseCurrency string              `json:"base_currency"`
	Rows         []domain.SummaryRow `json:"rows"`
}

// CalendarResponse is the calendar dimension of the latest run
type CalendarResponse struct {
	RunID            string               `json:"run_id"`
	FiscalStartMonth int                  `json:"fiscal_start_month"`
	Days             []domain.CalendarDay `json:"days"`
}

// RatesResponse is the rate resolution of the latest run
type RatesResponse struct {
	RunID          string                `json:"run_id"`
	Base           string                `json:"base"`
	Source         domain.RateSource     `json:"source"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
	Rates          []domain.ExchangeRate `json:"rates"`
}
