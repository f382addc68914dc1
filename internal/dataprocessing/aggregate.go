package dataprocessing

import (
	"sort"

	"github.com/shopspring/decimal"

	"salesetl/pkg/contracts/domain"
)

type groupKey struct {
	inCalendar   bool
	year         int
	fiscalYear   int
	fiscalPeriod int
	month        int
	monthName    string
	store        string
	sku          string
}

// Aggregate joins sales to the calendar on date and sums them per
// (year, fiscal_year, fiscal_period, month, month_name, store, sku).
//
// Sales whose date has no calendar day form groups with null calendar
// fields (InCalendar false); those groups sort before all others. The rest
// sort by fiscal_year, fiscal_period, store, sku.
func Aggregate(sales []domain.NormalizedSalesRow, calendar []domain.CalendarDay) []domain.SummaryRow {
	days := make(map[string]domain.CalendarDay, len(calendar))
	for _, d := range calendar {
		days[d.DateKey()] = d
	}

	groups := make(map[groupKey]*domain.SummaryRow)
	var order []groupKey
	for _, row := range sales {
		key := groupKey{store: row.Store, sku: row.SKU}
		if day, ok := days[domain.DateKey(row.Date)]; ok {
			key.inCalendar = true
			key.year = day.Year
			key.fiscalYear = day.FiscalYear
			key.fiscalPeriod = day.FiscalPeriod
			key.month = day.Month
			key.monthName = day.MonthName
		}

		g, ok := groups[key]
		if !ok {
			g = &domain.SummaryRow{
				Year:         key.year,
				FiscalYear:   key.fiscalYear,
				FiscalPeriod: key.fiscalPeriod,
				Month:        key.month,
				MonthName:    key.monthName,
				Store:        key.store,
				SKU:          key.sku,
				Sales:        decimal.Zero,
				SalesBase:    decimal.Zero,
				InCalendar:   key.inCalendar,
			}
			groups[key] = g
			order = append(order, key)
		}

		if row.HasOrderID() {
			g.Orders++
		}
		g.Units += row.Qty
		g.Sales = g.Sales.Add(row.Amount)
		g.SalesBase = g.SalesBase.Add(row.AmountBase)
	}

	summary := make([]domain.SummaryRow, 0, len(order))
	for _, key := range order {
		summary = append(summary, *groups[key])
	}
	sort.SliceStable(summary, func(i, j int) bool {
		return summaryLess(summary[i], summary[j])
	})
	return summary
}

func summaryLess(a, b domain.SummaryRow) bool {
	if a.InCalendar != b.InCalendar {
		return !a.InCalendar
	}
	if a.FiscalYear != b.FiscalYear {
		return a.FiscalYear < b.FiscalYear
	}
	if a.FiscalPeriod != b.FiscalPeriod {
		return a.FiscalPeriod < b.FiscalPeriod
	}
	if a.Store != b.Store {
		return a.Store < b.Store
	}
	if a.SKU != b.SKU {
		return a.SKU < b.SKU
	}
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

// Totals sums units, sales and base-currency sales over summary rows.
func Totals(rows []domain.SummaryRow) (units int64, sales, salesBase decimal.Decimal) {
	sales, salesBase = decimal.Zero, decimal.Zero
	for _, r := range rows {
		units += r.Units
		sales = sales.Add(r.Sales)
		salesBase = salesBase.Add(r.SalesBase)
	}
	return units, sales, salesBase
}
