package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
)

// SheetsPublisher replaces the contents of one sheet of a Google
// spreadsheet with the run summary
type SheetsPublisher struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

// NewSheetsPublisher creates a publisher for the configured spreadsheet.
// A custom endpoint is used without authentication.
func NewSheetsPublisher(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (*SheetsPublisher, error) {
	if !cfg.Enabled() {
		return nil, apperrors.NewConfigError("sheets publishing requires a spreadsheet_id", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create sheets client", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = SheetSummary
	}

	return &SheetsPublisher{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// Publish clears the target sheet and writes the summary table into it.
// It returns the number of rows written including the header.
func (p *SheetsPublisher) Publish(ctx context.Context, report Report) (int64, error) {
	values := make([][]interface{}, 0, len(report.Summary)+1)
	header := SummaryHeaders(report.BaseCurrency)
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	values = append(values, headerRow)
	for _, record := range SummaryRecords(report.Summary) {
		row := make([]interface{}, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		values = append(values, row)
	}

	if _, err := p.service.Spreadsheets.Values.Clear(
		p.spreadsheetID,
		p.sheetName,
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do(); err != nil {
		return 0, apperrors.NewNetworkError(fmt.Sprintf("failed to clear sheet %s", p.sheetName), err)
	}

	resp, err := p.service.Spreadsheets.Values.Update(
		p.spreadsheetID,
		p.sheetName+"!A1",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, apperrors.NewNetworkError(fmt.Sprintf("failed to update sheet %s", p.sheetName), err)
	}

	p.logger.InfoContext(ctx, "Published summary to spreadsheet",
		slog.String("spreadsheet_id", p.spreadsheetID),
		slog.String("sheet", p.sheetName),
		slog.Int64("updated_rows", resp.UpdatedRows))

	return resp.UpdatedRows, nil
}
