package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/dataprocessing"
	"salesetl/internal/infrastructure"
	"salesetl/internal/rates"
	"salesetl/pkg/contracts/domain"
)

// Dependencies are the collaborators of a sales pipeline. Nil fields are
// built from the configuration.
type Dependencies struct {
	Ingestor Ingestor
	Resolver RateResolver
	Tracer   *OperationTracer
	Logger   *slog.Logger
	Config   *Config
}

// Pipeline runs ingestion, calendar, rates, normalization and aggregation
// as one operation
type Pipeline struct {
	cfg     config.PipelineConfig
	manager *Manager
	logger  *slog.Logger
}

// RunResult is the typed outcome of one pipeline run. On failure it holds
// whatever the completed steps produced.
type RunResult struct {
	ID                  string                       `json:"id"`
	Status              OperationStatusValue         `json:"status"`
	BaseCurrency        string                       `json:"base_currency"`
	FiscalStartMonth    int                          `json:"fiscal_start_month"`
	Summary             []domain.SummaryRow          `json:"summary"`
	Calendar            []domain.CalendarDay         `json:"-"`
	Rates               *rates.Resolution            `json:"rates,omitempty"`
	Ingest              *dataprocessing.IngestResult `json:"ingest,omitempty"`
	Normalized          []domain.NormalizedSalesRow  `json:"-"`
	UnmatchedCurrencies []string                     `json:"unmatched_currencies,omitempty"`
	Steps               map[string]*StepState        `json:"steps"`
	StartedAt           time.Time                    `json:"started_at"`
	Duration            time.Duration                `json:"duration"`
	Error               string                       `json:"error,omitempty"`
}

// NewSalesPipeline wires the five pipeline steps
func NewSalesPipeline(cfg *config.Config, deps Dependencies) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if deps.Ingestor == nil {
		deps.Ingestor = dataprocessing.NewSalesIngestor(cfg.Pipeline, logger)
	}
	if deps.Resolver == nil {
		deps.Resolver = rates.NewResolver(cfg.Rates, logger)
	}

	stepLogger := infrastructure.WithComponent(logger, "pipeline")
	metrics := deps.Tracer.Metrics()

	registry := NewRegistry()
	steps := []Step{
		NewIngestStage(deps.Ingestor, cfg.Pipeline, stepLogger, metrics),
		NewCalendarStage(cfg.Pipeline.FiscalStartMonth, stepLogger),
		NewRatesStage(deps.Resolver, cfg.Pipeline.BaseCurrency, stepLogger, metrics),
		NewNormalizeStage(stepLogger),
		NewAggregateStage(stepLogger, metrics),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, fmt.Errorf("failed to register step %s: %w", step.ID(), err)
		}
	}
	if err := registry.ValidateDependencies(); err != nil {
		return nil, err
	}

	manager := NewManager(registry, deps.Config, logger)
	manager.SetTracer(deps.Tracer)

	return &Pipeline{
		cfg:     cfg.Pipeline,
		manager: manager,
		logger:  stepLogger,
	}, nil
}

// Manager returns the operation manager behind the pipeline
func (p *Pipeline) Manager() *Manager {
	return p.manager
}

// Run executes the pipeline once. The returned error keeps the failing
// step's cause, so apperrors.TypeOf classifies it.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	startedAt := time.Now()
	resp, err := p.manager.Execute(ctx, OperationRequest{
		Parameters: map[string]interface{}{
			"folder_path":        p.cfg.FolderPath,
			"fiscal_start_month": p.cfg.FiscalStartMonth,
			"base_currency":      p.cfg.BaseCurrency,
		},
	})

	result := &RunResult{
		ID:               resp.ID,
		Status:           resp.Status,
		BaseCurrency:     p.cfg.BaseCurrency,
		FiscalStartMonth: p.cfg.FiscalStartMonth,
		Steps:            resp.Steps,
		StartedAt:        startedAt,
		Duration:         resp.Duration,
		Error:            resp.Error,
	}
	fillResult(result, resp.Context)

	p.logger.InfoContext(ctx, "Pipeline run finished",
		slog.String("run_id", result.ID),
		slog.String("status", string(result.Status)),
		slog.Int("summary_rows", len(result.Summary)),
		slog.Duration("duration", result.Duration))

	return result, err
}

// fillResult copies step outputs into the typed result
func fillResult(result *RunResult, values map[string]interface{}) {
	if v, ok := values[ContextKeyIngestReport].(*dataprocessing.IngestResult); ok {
		result.Ingest = v
	}
	if v, ok := values[ContextKeyCalendarDays].([]domain.CalendarDay); ok {
		result.Calendar = v
	}
	if v, ok := values[ContextKeyRateResolution].(*rates.Resolution); ok {
		result.Rates = v
	}
	if v, ok := values[ContextKeyNormalizedRows].([]domain.NormalizedSalesRow); ok {
		result.Normalized = v
		result.UnmatchedCurrencies = dataprocessing.UnmatchedCurrencies(v)
	}
	if v, ok := values[ContextKeySummaryRows].([]domain.SummaryRow); ok {
		result.Summary = v
	}
}
