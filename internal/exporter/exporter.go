package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
	"salesetl/internal/files"
)

// Output formats
const (
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatParquet = "parquet"
)

// ExportReport lists what an export produced
type ExportReport struct {
	Files           []string  `json:"files"`
	SheetsPublished bool      `json:"sheets_published"`
	SheetRows       int64     `json:"sheet_rows,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Exporter writes run results to the output directory in the configured
// formats and optionally publishes them to a spreadsheet
type Exporter struct {
	cfg    config.OutputConfig
	files  *files.Manager
	csv    *CSVWriter
	logger *slog.Logger
}

// NewExporter creates an exporter rooted at cfg.Dir
func NewExporter(cfg config.OutputConfig, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	fm := files.NewManager(cfg.Dir, logger)
	return &Exporter{
		cfg:    cfg,
		files:  fm,
		csv:    NewCSVWriter(fm, logger),
		logger: logger,
	}
}

// Export writes every configured format. Files are written atomically, so a
// failed export leaves earlier outputs in place.
func (e *Exporter) Export(ctx context.Context, report Report) (*ExportReport, error) {
	if err := e.files.EnsureDirectory(); err != nil {
		return nil, apperrors.NewStorageError("failed to create output directory", err)
	}

	out := &ExportReport{}
	formats := e.cfg.Formats
	if len(formats) == 0 {
		formats = []string{FormatCSV}
	}

	for _, format := range formats {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		written, err := e.writeFormat(format, report)
		if err != nil {
			return out, err
		}
		out.Files = append(out.Files, written...)
	}

	if e.cfg.Sheets.Enabled() {
		publisher, err := NewSheetsPublisher(ctx, e.cfg.Sheets, e.logger)
		if err != nil {
			return out, err
		}
		rows, err := publisher.Publish(ctx, report)
		if err != nil {
			return out, err
		}
		out.SheetsPublished = true
		out.SheetRows = rows
	}

	out.CompletedAt = time.Now().UTC()
	e.logger.InfoContext(ctx, "Export completed",
		slog.Any("files", out.Files),
		slog.Bool("sheets_published", out.SheetsPublished))

	return out, nil
}

func (e *Exporter) writeFormat(format string, report Report) ([]string, error) {
	type output struct {
		name  string
		write func(io.Writer) error
	}

	var outputs []output
	switch format {
	case FormatCSV:
		summary, err := e.csv.WriteSimpleCSV(config.SummaryCSVFile,
			SummaryHeaders(report.BaseCurrency), SummaryRecords(report.Summary))
		if err != nil {
			return nil, apperrors.NewStorageError("failed to write "+config.SummaryCSVFile, err)
		}
		calendar, err := e.csv.WriteSimpleCSV(config.CalendarCSVFile,
			CalendarHeaders, CalendarRecords(report.Calendar))
		if err != nil {
			return nil, apperrors.NewStorageError("failed to write "+config.CalendarCSVFile, err)
		}
		return []string{summary, calendar}, nil
	case FormatXLSX:
		outputs = []output{{config.WorkbookFile, func(w io.Writer) error {
			return WriteWorkbook(w, report)
		}}}
	case FormatParquet:
		outputs = []output{
			{config.SummaryParquetFile, func(w io.Writer) error {
				return WriteSummaryParquet(w, report.Summary, report.BaseCurrency)
			}},
			{config.CalendarParquetFile, func(w io.Writer) error {
				return WriteCalendarParquet(w, report.Calendar)
			}},
		}
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported output format %q", format), nil)
	}

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		path, err := e.files.WriteFile(o.name, o.write)
		if err != nil {
			return paths, apperrors.NewStorageError("failed to write "+o.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
