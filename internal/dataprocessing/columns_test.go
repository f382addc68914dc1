package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Date", "date"},
		{"OrderID", "orderid"},
		{"Unit Price", "unit_price"},
		{"unit-price", "unit_price"},
		{"  SKU ", "sku"},
		{"already_normal", "already_normal"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumnName(tt.in))
		})
	}
}

func TestNormalizeColumns(t *testing.T) {
	rows := [][]string{{"a", "b"}, {"c", "d"}}
	in := Table{Columns: []string{"Store Name", "Unit-Price"}, Rows: rows, Lines: []int{2, 3}}

	out := NormalizeColumns(in)

	assert.Equal(t, []string{"store_name", "unit_price"}, out.Columns)
	assert.Equal(t, rows, out.Rows)
	assert.Equal(t, []int{2, 3}, out.Lines)
	assert.Equal(t, []string{"Store Name", "Unit-Price"}, in.Columns, "input is not modified")

	empty := NormalizeColumns(Table{})
	assert.Empty(t, empty.Columns)
	assert.Empty(t, empty.Rows)
}

func TestTableIndex(t *testing.T) {
	table := NormalizeColumns(Table{Columns: []string{
		"Currency", "Unit Price", "Qty", "SKU", "Store", "Order-ID", "Date",
	}})

	index, missing := table.Index(ExpectedColumns)
	assert.Empty(t, missing)
	assert.Equal(t, 6, index[ColumnDate])
	assert.Equal(t, 5, index[ColumnOrderID])
	assert.Equal(t, 1, index[ColumnUnitPrice])
	assert.Equal(t, 0, index[ColumnCurrency])

	partial := NormalizeColumns(Table{Columns: []string{"date", "store", "sku", "qty", "price", "currency", "extra"}})
	_, missing = partial.Index(ExpectedColumns)
	assert.Equal(t, []string{ColumnOrderID, ColumnUnitPrice}, missing)
}
