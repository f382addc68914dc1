package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
	"salesetl/internal/exporter"
	"salesetl/internal/infrastructure"
	"salesetl/internal/operations"
	api "salesetl/pkg/contracts/api/v1"
)

// RunRecord is a finished run together with the files it produced
type RunRecord struct {
	Result     *operations.RunResult
	Export     *exporter.ExportReport
	FinishedAt time.Time
}

// PipelineService runs the sales pipeline on demand. One run executes at a
// time and only the latest results are kept in memory.
type PipelineService struct {
	cfg      *config.Config
	deps     operations.Dependencies
	exporter *exporter.Exporter
	logger   *slog.Logger

	runMu sync.Mutex

	mu         sync.RWMutex
	latest     *RunRecord
	lastRun    *RunRecord
	runTimeout time.Duration
}

// NewPipelineService creates the service. A nil exporter skips writing
// output files.
func NewPipelineService(cfg *config.Config, deps operations.Dependencies, exp *exporter.Exporter, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	deps.Logger = logger
	return &PipelineService{
		cfg:        cfg,
		deps:       deps,
		exporter:   exp,
		logger:     infrastructure.WithComponent(logger, "pipeline_service"),
		runTimeout: cfg.Server.RunTimeout,
	}
}

// Run executes one pipeline run with the request's overrides applied.
// It fails with ErrRunInProgress while another run is executing.
func (s *PipelineService) Run(ctx context.Context, req api.RunRequest) (*RunRecord, error) {
	if !s.runMu.TryLock() {
		return nil, apperrors.ErrRunInProgress
	}
	defer s.runMu.Unlock()

	cfg := *s.cfg
	if req.FiscalStartMonth != nil {
		cfg.Pipeline.FiscalStartMonth = *req.FiscalStartMonth
	}
	if req.BaseCurrency != "" {
		cfg.Pipeline.BaseCurrency = req.BaseCurrency
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid run overrides", err)
	}

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	pipeline, err := operations.NewSalesPipeline(&cfg, s.deps)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Starting pipeline run",
		slog.String("folder", cfg.Pipeline.FolderPath),
		slog.Int("fiscal_start_month", cfg.Pipeline.FiscalStartMonth),
		slog.String("base_currency", cfg.Pipeline.BaseCurrency))

	result, runErr := pipeline.Run(ctx)
	record := &RunRecord{Result: result}

	if runErr == nil && s.exporter != nil {
		report, err := s.exporter.Export(ctx, exporter.ReportFromRun(result))
		record.Export = report
		if err != nil {
			s.logger.ErrorContext(ctx, "Export failed",
				slog.String("run_id", result.ID),
				slog.String("error", err.Error()))
			runErr = err
		}
	}
	record.FinishedAt = time.Now().UTC()

	s.mu.Lock()
	s.lastRun = record
	if runErr == nil {
		s.latest = record
	}
	s.mu.Unlock()

	return record, runErr
}

// Latest returns the most recent successful run
func (s *PipelineService) Latest() (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// LastRun returns the most recent run whatever its outcome
func (s *PipelineService) LastRun() (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastRun != nil
}

// Running reports whether a run is executing
func (s *PipelineService) Running() bool {
	if s.runMu.TryLock() {
		s.runMu.Unlock()
		return false
	}
	return true
}

// NewRunResponse builds the API summary of a run record
func NewRunResponse(record *RunRecord) api.RunResponse {
	if record == nil || record.Result == nil {
		return api.RunResponse{}
	}
	result := record.Result

	resp := api.RunResponse{
		ID:                  result.ID,
		Status:              string(result.Status),
		BaseCurrency:        result.BaseCurrency,
		FiscalStartMonth:    result.FiscalStartMonth,
		SummaryRows:         len(result.Summary),
		UnmatchedCurrencies: result.UnmatchedCurrencies,
		StartedAt:           result.StartedAt,
		DurationMS:          result.Duration.Milliseconds(),
		Error:               result.Error,
	}
	if result.Rates != nil {
		resp.RateSource = result.Rates.Source
	}
	if result.Ingest != nil {
		resp.FilesIngested = len(result.Ingest.Files) - result.Ingest.FailedFiles()
		resp.FilesFailed = result.Ingest.FailedFiles()
		resp.RowsIngested = len(result.Ingest.Rows)
		resp.RowsDropped = result.Ingest.DroppedRows
	}
	if record.Export != nil {
		resp.OutputFiles = record.Export.Files
	}
	return resp
}
