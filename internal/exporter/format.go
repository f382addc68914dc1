package exporter

import (
	"strconv"

	"github.com/shopspring/decimal"

	"salesetl/internal/rates"
	"salesetl/pkg/contracts/domain"
)

// formatMoney formats an amount with exactly 2 decimal places so that 13.4
// appears as 13.40
func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatInt formats an integer for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// SummaryHeaders returns the summary columns for a base currency
func SummaryHeaders(baseCurrency string) []string {
	return []string{
		"year", "fiscal_year", "fiscal_period", "month", "month_name",
		"store", "sku", "orders", "units", "sales", domain.SalesBaseColumn(baseCurrency),
	}
}

// summaryRecord renders one summary row. Groups outside the calendar have
// empty calendar cells.
func summaryRecord(row domain.SummaryRow) []string {
	calendar := []string{"", "", "", "", ""}
	if row.InCalendar {
		calendar = []string{
			formatInt(int64(row.Year)),
			formatInt(int64(row.FiscalYear)),
			formatInt(int64(row.FiscalPeriod)),
			formatInt(int64(row.Month)),
			row.MonthName,
		}
	}
	return append(calendar,
		row.Store,
		row.SKU,
		formatInt(int64(row.Orders)),
		formatInt(row.Units),
		formatMoney(row.Sales),
		formatMoney(row.SalesBase),
	)
}

// SummaryRecords renders every summary row
func SummaryRecords(rows []domain.SummaryRow) [][]string {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = summaryRecord(row)
	}
	return records
}

// CalendarHeaders are the calendar dimension columns
var CalendarHeaders = []string{
	"date", "year", "month", "month_name", "quarter", "week", "fiscal_year", "fiscal_period",
}

// CalendarRecords renders the calendar dimension
func CalendarRecords(days []domain.CalendarDay) [][]string {
	records := make([][]string, len(days))
	for i, d := range days {
		records[i] = []string{
			d.DateKey(),
			formatInt(int64(d.Year)),
			formatInt(int64(d.Month)),
			d.MonthName,
			formatInt(int64(d.Quarter)),
			formatInt(int64(d.Week)),
			formatInt(int64(d.FiscalYear)),
			formatInt(int64(d.FiscalPeriod)),
		}
	}
	return records
}

// RatesHeaders are the columns of the rates sheet
var RatesHeaders = []string{"currency", "rate_to_base", "base", "source"}

// RateRecords renders a rate resolution, one row per currency
func RateRecords(res *rates.Resolution) [][]string {
	if res == nil {
		return nil
	}
	records := make([][]string, len(res.Rates))
	for i, r := range res.Rates {
		records[i] = []string{r.Currency, r.RateToBase.String(), res.Base, string(res.Source)}
	}
	return records
}
