package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
	"salesetl/internal/files"
	"salesetl/pkg/contracts/domain"
)

// Date layouts accepted in the date column, tried in order.
var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	time.DateTime,
	time.RFC3339,
}

// FileOutcome records what happened to one discovered file.
type FileOutcome struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Parsed bool   `json:"parsed"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// IngestResult is the output of one ingestion pass.
type IngestResult struct {
	Rows        []domain.SalesRow `json:"-"`
	Files       []FileOutcome     `json:"files"`
	DroppedRows int               `json:"dropped_rows"`
}

// FailedFiles counts files excluded because they did not parse.
func (r *IngestResult) FailedFiles() int {
	n := 0
	for _, f := range r.Files {
		if !f.Parsed {
			n++
		}
	}
	return n
}

// Dates returns the sale date of every ingested row.
func (r *IngestResult) Dates() []time.Time {
	dates := make([]time.Time, len(r.Rows))
	for i, row := range r.Rows {
		dates[i] = row.Date
	}
	return dates
}

// SalesIngestor turns a folder of sales extracts into typed sales rows.
type SalesIngestor struct {
	discovery       *files.Discovery
	logger          *slog.Logger
	workers         int
	skipInvalidRows bool
}

// NewSalesIngestor creates an ingestor using the worker count and row policy
// of cfg.
func NewSalesIngestor(cfg config.PipelineConfig, logger *slog.Logger) *SalesIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &SalesIngestor{
		discovery:       files.NewDiscovery(""),
		logger:          logger.With("component", "sales_ingestor"),
		workers:         workers,
		skipInvalidRows: cfg.SkipInvalidRows,
	}
}

// Ingest parses every .csv file in folder. Files that cannot be parsed are
// logged and excluded. Rows keep file discovery order, then line order.
//
// A missing folder is a CONFIG error and absent expected columns a SCHEMA
// error. A value that cannot be converted fails the run with a
// DataQualityError unless invalid rows are being skipped.
func (s *SalesIngestor) Ingest(ctx context.Context, folder string) (*IngestResult, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, apperrors.NewConfigError("input folder not found", err).WithContext("folder", folder)
	}
	if !info.IsDir() {
		return nil, apperrors.NewConfigError("input folder is not a directory", nil).WithContext("folder", folder)
	}

	found, err := s.discovery.FindCSVFiles(folder)
	if err != nil {
		return nil, apperrors.NewConfigError("cannot list input folder", err).WithContext("folder", folder)
	}
	s.logger.InfoContext(ctx, "Discovered sales files",
		slog.String("folder", folder),
		slog.Int("file_count", len(found)))

	parsed, err := s.parseAll(ctx, found)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{Files: make([]FileOutcome, 0, len(found))}
	for i, f := range found {
		outcome := FileOutcome{Name: f.Name, Path: f.Path}
		pr := parsed[i]
		if !pr.OK() {
			outcome.Error = pr.Err.Error()
			result.Files = append(result.Files, outcome)
			s.logger.WarnContext(ctx, "Skipping unparseable file",
				slog.String("file", f.Path),
				slog.String("reason", pr.Err.Error()))
			continue
		}

		rows, dropped, err := s.typeRows(ctx, f.Name, NormalizeColumns(pr.Table))
		if err != nil {
			return nil, err
		}
		outcome.Parsed = true
		outcome.Rows = len(rows)
		result.Files = append(result.Files, outcome)
		result.Rows = append(result.Rows, rows...)
		result.DroppedRows += dropped
	}

	s.logger.InfoContext(ctx, "Ingestion complete",
		slog.Int("files", len(found)),
		slog.Int("failed_files", result.FailedFiles()),
		slog.Int("rows", len(result.Rows)),
		slog.Int("dropped_rows", result.DroppedRows))
	return result, nil
}

// parseAll parses files concurrently. Results are stored by discovery index
// so the merge order does not depend on scheduling.
func (s *SalesIngestor) parseAll(ctx context.Context, found []files.FileInfo) ([]ParseResult, error) {
	results := make([]ParseResult, len(found))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range found {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ParseFile(f.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *SalesIngestor) typeRows(ctx context.Context, file string, table Table) ([]domain.SalesRow, int, error) {
	index, missing := table.Index(ExpectedColumns)
	if len(missing) > 0 {
		return nil, 0, apperrors.NewSchemaError(file, missing)
	}

	rows := make([]domain.SalesRow, 0, len(table.Rows))
	dropped := 0
	for i, record := range table.Rows {
		line := 0
		if i < len(table.Lines) {
			line = table.Lines[i]
		}
		raw := domain.RawSalesRow{
			Date:      record[index[ColumnDate]],
			OrderID:   record[index[ColumnOrderID]],
			Store:     record[index[ColumnStore]],
			SKU:       record[index[ColumnSKU]],
			Qty:       record[index[ColumnQty]],
			UnitPrice: record[index[ColumnUnitPrice]],
			Currency:  record[index[ColumnCurrency]],
		}

		row, err := CoerceRow(raw, file, line)
		if err != nil {
			if !s.skipInvalidRows {
				return nil, 0, err
			}
			dropped++
			s.logger.WarnContext(ctx, "Dropping invalid row",
				slog.String("file", file),
				slog.Int("line", line),
				slog.String("error", err.Error()))
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped, nil
}

// CoerceRow converts a raw record into a typed SalesRow, deriving Amount
// and upper-casing Currency.
func CoerceRow(raw domain.RawSalesRow, file string, line int) (domain.SalesRow, error) {
	date, err := ParseDate(raw.Date)
	if err != nil {
		return domain.SalesRow{}, apperrors.NewDataQualityError(file, line, ColumnDate, raw.Date, err)
	}

	qty, err := parseQty(raw.Qty)
	if err != nil {
		return domain.SalesRow{}, apperrors.NewDataQualityError(file, line, ColumnQty, raw.Qty, err)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(raw.UnitPrice))
	if err != nil {
		return domain.SalesRow{}, apperrors.NewDataQualityError(file, line, ColumnUnitPrice, raw.UnitPrice, err)
	}

	return domain.SalesRow{
		Date:       date,
		OrderID:    strings.TrimSpace(raw.OrderID),
		Store:      strings.TrimSpace(raw.Store),
		SKU:        strings.TrimSpace(raw.SKU),
		Qty:        qty,
		UnitPrice:  price,
		Currency:   strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Amount:     decimal.NewFromInt(qty).Mul(price),
		SourceFile: file,
		SourceLine: line,
	}, nil
}

// ParseDate parses a sale date and truncates it to a UTC calendar date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", value)
}

func parseQty(value string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, errors.New("quantity is not a whole number")
	}
	if !d.BigInt().IsInt64() {
		return 0, errors.New("quantity out of range")
	}
	return d.IntPart(), nil
}
