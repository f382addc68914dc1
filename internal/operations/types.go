package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StageIDIngest    = "ingest"
	StageIDCalendar  = "calendar"
	StageIDRates     = "rates"
	StageIDNormalize = "normalize"
	StageIDAggregate = "aggregate"
)

// Pipeline step names
const (
	StageNameIngest    = "Sales Ingestion"
	StageNameCalendar  = "Calendar Generation"
	StageNameRates     = "Exchange Rate Resolution"
	StageNameNormalize = "Currency Normalization"
	StageNameAggregate = "Sales Aggregation"
)

// Context keys for step outputs
const (
	ContextKeySalesRows      = "sales_rows"
	ContextKeyIngestReport   = "ingest_report"
	ContextKeyCalendarDays   = "calendar_days"
	ContextKeyRateResolution = "rate_resolution"
	ContextKeyNormalizedRows = "normalized_rows"
	ContextKeySummaryRows    = "summary_rows"
)

// Default timeouts
const (
	DefaultStageTimeout     = 10 * time.Minute
	DefaultIngestTimeout    = 30 * time.Minute
	DefaultAggregateTimeout = 10 * time.Minute
)

// OperationRequest represents a request to execute the pipeline
type OperationRequest struct {
	ID         string                 `json:"id"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from a pipeline execution
type OperationResponse struct {
	ID       string                 `json:"id"`
	Status   OperationStatusValue   `json:"status"`
	Duration time.Duration          `json:"duration"`
	Steps    map[string]*StepState  `json:"steps"`
	Error    string                 `json:"error,omitempty"`
	Context  map[string]interface{} `json:"-"`
}
