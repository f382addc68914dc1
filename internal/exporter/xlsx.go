package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SheetSummary  = "Summary"
	SheetCalendar = "Calendar"
	SheetRates    = "Rates"
)

// numFmtMoney is the built-in "0.00" number format
const numFmtMoney = 2

// WriteWorkbook writes the summary, calendar and rates of a report as one
// XLSX workbook
func WriteWorkbook(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{SheetCalendar, SheetRates} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	summary := make([][]interface{}, len(report.Summary))
	for i, row := range report.Summary {
		cells := []interface{}{nil, nil, nil, nil, nil}
		if row.InCalendar {
			cells = []interface{}{row.Year, row.FiscalYear, row.FiscalPeriod, row.Month, row.MonthName}
		}
		summary[i] = append(cells,
			row.Store, row.SKU, row.Orders, row.Units,
			row.Sales.Round(2).InexactFloat64(),
			row.SalesBase.Round(2).InexactFloat64(),
		)
	}
	if err := writeSheet(f, SheetSummary, SummaryHeaders(report.BaseCurrency), summary, headerStyle); err != nil {
		return err
	}
	if err := f.SetColStyle(SheetSummary, "J:K", moneyStyle); err != nil {
		return fmt.Errorf("style money columns: %w", err)
	}

	calendar := make([][]interface{}, len(report.Calendar))
	for i, d := range report.Calendar {
		calendar[i] = []interface{}{
			d.DateKey(), d.Year, d.Month, d.MonthName, d.Quarter, d.Week, d.FiscalYear, d.FiscalPeriod,
		}
	}
	if err := writeSheet(f, SheetCalendar, CalendarHeaders, calendar, headerStyle); err != nil {
		return err
	}

	rateRecords := RateRecords(report.Rates)
	rateRows := make([][]interface{}, len(rateRecords))
	for i, r := range rateRecords {
		rateRows[i] = []interface{}{r[0], report.Rates.Rates[i].RateToBase.InexactFloat64(), r[2], r[3]}
	}
	if err := writeSheet(f, SheetRates, RatesHeaders, rateRows, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeSheet writes a bold, frozen header row followed by rows
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
