package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "salesetl/internal/errors"
	"salesetl/internal/exporter"
	"salesetl/internal/middleware"
	"salesetl/internal/services"
	api "salesetl/pkg/contracts/api/v1"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// RunHandler executes pipeline runs and serves the results of the latest one
type RunHandler struct {
	service      RunService
	validator    *middleware.RequestValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(service RunService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *RunHandler {
	return &RunHandler{
		service:      service,
		validator:    middleware.NewRequestValidator(),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "run_handler")),
	}
}

// Routes mounts the run and result endpoints
func (h *RunHandler) Routes(r chi.Router) {
	r.With(middleware.ContentTypeValidator("application/json")).Post("/runs", h.StartRun)

	r.Group(func(r chi.Router) {
		r.Use(h.LatestRunCtx)
		r.Get("/summary", h.GetSummary)
		r.Get("/summary/export", h.ExportSummary)
		r.Get("/calendar", h.GetCalendar)
		r.Get("/rates", h.GetRates)
	})
}

// StartRun handles POST /api/runs
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req api.RunRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	record, err := h.service.Run(r.Context(), req)
	if err != nil {
		if record != nil && record.Result != nil {
			h.logger.WarnContext(r.Context(), "Run finished with error",
				slog.String("run_id", record.Result.ID),
				slog.String("status", string(record.Result.Status)))
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, services.NewRunResponse(record))
}

type latestRunKey struct{}

// LatestRunCtx loads the latest successful run into the request context and
// answers 404 before the first run
func (h *RunHandler) LatestRunCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		record, ok := h.service.Latest()
		if !ok {
			h.errorHandler.HandleError(w, r, apierrors.ErrRunNotFound)
			return
		}
		ctx := contextWithRun(r.Context(), record)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSummary handles GET /api/summary
func (h *RunHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	result := runFromContext(r.Context()).Result
	render.JSON(w, r, api.SummaryResponse{
		RunID:        result.ID,
		BaseCurrency: result.BaseCurrency,
		Rows:         result.Summary,
	})
}

// GetCalendar handles GET /api/calendar
func (h *RunHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	result := runFromContext(r.Context()).Result
	render.JSON(w, r, api.CalendarResponse{
		RunID:            result.ID,
		FiscalStartMonth: result.FiscalStartMonth,
		Days:             result.Calendar,
	})
}

// GetRates handles GET /api/rates
func (h *RunHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	result := runFromContext(r.Context()).Result
	resp := api.RatesResponse{RunID: result.ID}
	if res := result.Rates; res != nil {
		resp.Base = res.Base
		resp.Source = res.Source
		resp.FallbackReason = res.FallbackReason
		resp.Rates = res.Rates
	}
	render.JSON(w, r, resp)
}

// ExportSummary handles GET /api/summary/export?format=csv|xlsx
func (h *RunHandler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = exporter.FormatCSV
	}

	report := exporter.ReportFromRun(runFromContext(r.Context()).Result)

	var (
		buf         bytes.Buffer
		err         error
		contentType string
		filename    string
	)
	switch format {
	case exporter.FormatCSV:
		contentType, filename = contentTypeCSV, "summary.csv"
		err = exporter.EncodeCSV(&buf, exporter.WriteOptions{
			Headers:   exporter.SummaryHeaders(report.BaseCurrency),
			Records:   exporter.SummaryRecords(report.Summary),
			BOMPrefix: true,
		})
	case exporter.FormatXLSX:
		contentType, filename = contentTypeXLSX, "sales_summary.xlsx"
		err = exporter.WriteWorkbook(&buf, report)
	default:
		h.errorHandler.HandleError(w, r, apierrors.UnsupportedFormat(format))
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewStorageError("failed to render export", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to write export response",
			slog.String("error", err.Error()))
	}
}
