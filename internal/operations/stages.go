package operations

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"salesetl/internal/config"
	"salesetl/internal/dataprocessing"
	apperrors "salesetl/internal/errors"
	"salesetl/internal/infrastructure"
	"salesetl/internal/rates"
	"salesetl/pkg/contracts/domain"
)

// Ingestor reads the sales extracts of a folder
type Ingestor interface {
	Ingest(ctx context.Context, folder string) (*dataprocessing.IngestResult, error)
}

// RateResolver picks the exchange-rate table for a base currency
type RateResolver interface {
	Resolve(ctx context.Context, base string) *rates.Resolution
}

// setStepMetadata records a value on the running step's state
func setStepMetadata(state *OperationState, stepID, key string, value interface{}) {
	if s := state.GetStage(stepID); s != nil {
		s.SetMetadata(key, value)
	}
}

// IngestStage discovers and parses the sales files
type IngestStage struct {
	BaseStage
	ingestor Ingestor
	cfg      config.PipelineConfig
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
}

// NewIngestStage creates the ingestion step
func NewIngestStage(ingestor Ingestor, cfg config.PipelineConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *IngestStage {
	return &IngestStage{
		BaseStage: NewBaseStage(StageIDIngest, StageNameIngest, nil),
		ingestor:  ingestor,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Validate checks the pipeline configuration before any file is read
func (s *IngestStage) Validate(state *OperationState) error {
	if s.ingestor == nil {
		return fmt.Errorf("no ingestor configured")
	}
	if err := s.cfg.Validate(); err != nil {
		return apperrors.NewConfigError("invalid pipeline configuration", err)
	}
	return nil
}

// Execute implements Step
func (s *IngestStage) Execute(ctx context.Context, state *OperationState) error {
	result, err := s.ingestor.Ingest(ctx, s.cfg.FolderPath)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeySalesRows, result.Rows)
	state.SetContext(ContextKeyIngestReport, result)

	failed := result.FailedFiles()
	setStepMetadata(state, s.ID(), "files", len(result.Files))
	setStepMetadata(state, s.ID(), "failed_files", failed)
	setStepMetadata(state, s.ID(), "rows", len(result.Rows))
	setStepMetadata(state, s.ID(), "dropped_rows", result.DroppedRows)

	if s.metrics != nil {
		s.metrics.FilesIngested.Add(ctx, int64(len(result.Files)-failed),
			metric.WithAttributes(attribute.String("outcome", "parsed")))
		s.metrics.FilesIngested.Add(ctx, int64(failed),
			metric.WithAttributes(attribute.String("outcome", "failed")))
		s.metrics.RowsIngested.Add(ctx, int64(len(result.Rows)))
	}

	s.logger.InfoContext(ctx, "Ingested sales rows",
		slog.Int("files", len(result.Files)),
		slog.Int("failed_files", failed),
		slog.Int("rows", len(result.Rows)))
	return nil
}

// CalendarStage builds the calendar dimension over the ingested date range
type CalendarStage struct {
	BaseStage
	fiscalStartMonth int
	logger           *slog.Logger
}

// NewCalendarStage creates the calendar step
func NewCalendarStage(fiscalStartMonth int, logger *slog.Logger) *CalendarStage {
	return &CalendarStage{
		BaseStage:        NewBaseStage(StageIDCalendar, StageNameCalendar, []string{StageIDIngest}),
		fiscalStartMonth: fiscalStartMonth,
		logger:           logger,
	}
}

// Execute implements Step
func (s *CalendarStage) Execute(ctx context.Context, state *OperationState) error {
	report, err := ContextValue[*dataprocessing.IngestResult](state, ContextKeyIngestReport)
	if err != nil {
		return err
	}

	days := dataprocessing.BuildCalendar(report.Dates(), s.fiscalStartMonth)
	state.SetContext(ContextKeyCalendarDays, days)
	setStepMetadata(state, s.ID(), "days", len(days))

	if len(days) > 0 {
		s.logger.InfoContext(ctx, "Built calendar",
			slog.String("start", days[0].Date.Format("2006-01-02")),
			slog.String("end", days[len(days)-1].Date.Format("2006-01-02")),
			slog.Int("days", len(days)))
	}
	return nil
}

// RatesStage resolves the exchange-rate table for the base currency
type RatesStage struct {
	BaseStage
	resolver RateResolver
	base     string
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
}

// NewRatesStage creates the rate resolution step
func NewRatesStage(resolver RateResolver, base string, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *RatesStage {
	return &RatesStage{
		BaseStage: NewBaseStage(StageIDRates, StageNameRates, nil),
		resolver:  resolver,
		base:      base,
		logger:    logger,
		metrics:   metrics,
	}
}

// Validate implements Step
func (s *RatesStage) Validate(state *OperationState) error {
	if s.resolver == nil {
		return fmt.Errorf("no rate resolver configured")
	}
	return nil
}

// Execute implements Step. Resolution never fails; a fallback is recorded
// on the step metadata.
func (s *RatesStage) Execute(ctx context.Context, state *OperationState) error {
	resolution := s.resolver.Resolve(ctx, s.base)
	state.SetContext(ContextKeyRateResolution, resolution)

	setStepMetadata(state, s.ID(), "source", string(resolution.Source))
	setStepMetadata(state, s.ID(), "currencies", len(resolution.Rates))
	if resolution.FallbackReason != "" {
		setStepMetadata(state, s.ID(), "fallback_reason", resolution.FallbackReason)
	}

	if s.metrics != nil {
		s.metrics.RateResolutions.Add(ctx, 1,
			metric.WithAttributes(attribute.String("source", string(resolution.Source))))
	}
	return nil
}

// NormalizeStage converts every sale into the base currency
type NormalizeStage struct {
	BaseStage
	logger *slog.Logger
}

// NewNormalizeStage creates the currency normalization step
func NewNormalizeStage(logger *slog.Logger) *NormalizeStage {
	return &NormalizeStage{
		BaseStage: NewBaseStage(StageIDNormalize, StageNameNormalize, []string{StageIDIngest, StageIDRates}),
		logger:    logger,
	}
}

// Execute implements Step
func (s *NormalizeStage) Execute(ctx context.Context, state *OperationState) error {
	sales, err := ContextValue[[]domain.SalesRow](state, ContextKeySalesRows)
	if err != nil {
		return err
	}
	resolution, err := ContextValue[*rates.Resolution](state, ContextKeyRateResolution)
	if err != nil {
		return err
	}

	normalized := dataprocessing.NormalizeCurrency(sales, resolution.Rates)
	state.SetContext(ContextKeyNormalizedRows, normalized)
	setStepMetadata(state, s.ID(), "rows", len(normalized))

	if unmatched := dataprocessing.UnmatchedCurrencies(normalized); len(unmatched) > 0 {
		setStepMetadata(state, s.ID(), "unmatched_currencies", unmatched)
		s.logger.WarnContext(ctx, "Currencies without a rate defaulted to 1.0",
			slog.Any("currencies", unmatched),
			slog.String("rate_source", string(resolution.Source)))
	}
	return nil
}

// AggregateStage groups normalized sales into the summary table
type AggregateStage struct {
	BaseStage
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewAggregateStage creates the aggregation step
func NewAggregateStage(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *AggregateStage {
	return &AggregateStage{
		BaseStage: NewBaseStage(StageIDAggregate, StageNameAggregate, []string{StageIDNormalize, StageIDCalendar}),
		logger:    logger,
		metrics:   metrics,
	}
}

// Execute implements Step
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	normalized, err := ContextValue[[]domain.NormalizedSalesRow](state, ContextKeyNormalizedRows)
	if err != nil {
		return err
	}
	days, err := ContextValue[[]domain.CalendarDay](state, ContextKeyCalendarDays)
	if err != nil {
		return err
	}

	summary := dataprocessing.Aggregate(normalized, days)
	state.SetContext(ContextKeySummaryRows, summary)
	setStepMetadata(state, s.ID(), "groups", len(summary))

	outside := 0
	for _, row := range summary {
		if !row.InCalendar {
			outside++
		}
	}
	if outside > 0 {
		s.logger.WarnContext(ctx, "Summary groups outside the calendar range",
			slog.Int("groups", outside))
	}

	if s.metrics != nil {
		s.metrics.SummaryRows.Add(ctx, int64(len(summary)))
	}
	return nil
}
