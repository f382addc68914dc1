package domain

import (
	"github.com/shopspring/decimal"
)

// SummaryRow is one aggregated line of the sales summary, keyed by the
// calendar attributes of the sale date plus store and sku.
//
// InCalendar is false for groups built from sales whose date did not match
// any calendar day. Their calendar fields are zero and must be read as null.
type SummaryRow struct {
	Year         int    `json:"year"`
	FiscalYear   int    `json:"fiscal_year"`
	FiscalPeriod int    `json:"fiscal_period"`
	Month        int    `json:"month"`
	MonthName    string `json:"month_name"`
	Store        string `json:"store"`
	SKU          string `json:"sku"`

	Orders    int             `json:"orders"`
	Units     int64           `json:"units"`
	Sales     decimal.Decimal `json:"sales"`
	SalesBase decimal.Decimal `json:"sales_base"`

	InCalendar bool `json:"in_calendar"`
}

// SalesBaseColumn is the name of the base-currency sales column in tabular
// outputs, e.g. "sales_USD".
func SalesBaseColumn(baseCurrency string) string {
	return "sales_" + baseCurrency
}
