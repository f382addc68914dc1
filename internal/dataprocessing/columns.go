package dataprocessing

import (
	"strings"
)

// Canonical column names of a sales extract after header normalization.
const (
	ColumnDate      = "date"
	ColumnOrderID   = "orderid"
	ColumnStore     = "store"
	ColumnSKU       = "sku"
	ColumnQty       = "qty"
	ColumnUnitPrice = "unitprice"
	ColumnCurrency  = "currency"
)

// ExpectedColumns lists the seven input columns in file order.
var ExpectedColumns = []string{
	ColumnDate,
	ColumnOrderID,
	ColumnStore,
	ColumnSKU,
	ColumnQty,
	ColumnUnitPrice,
	ColumnCurrency,
}

// Table is a parsed delimited file with its header promoted to column names.
// Lines holds the 1-based source line of each row.
type Table struct {
	Columns []string
	Rows    [][]string
	Lines   []int
}

// NormalizeColumnName lower-cases a header and replaces spaces and hyphens
// with underscores. Surrounding whitespace is dropped.
func NormalizeColumnName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, name)
}

// NormalizeColumns returns a copy of t with every column name normalized.
// Rows are shared with t and must be treated as read-only.
func NormalizeColumns(t Table) Table {
	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = NormalizeColumnName(c)
	}
	return Table{Columns: columns, Rows: t.Rows, Lines: t.Lines}
}

// columnKey folds a normalized name to its lookup key so "order_id",
// "Order ID" and "OrderID" all resolve to the same column.
func columnKey(name string) string {
	return strings.ReplaceAll(NormalizeColumnName(name), "_", "")
}

// Index maps the expected columns to their positions in the table. The
// second return value lists expected columns that are absent, in order.
func (t Table) Index(expected []string) (map[string]int, []string) {
	positions := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		key := columnKey(c)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	index := make(map[string]int, len(expected))
	var missing []string
	for _, name := range expected {
		pos, ok := positions[columnKey(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		index[name] = pos
	}
	return index, missing
}
