package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawSalesRow is one record of an input extract before any type coercion.
// Field names follow the canonical column spelling after header normalization.
type RawSalesRow struct {
	Date      string `json:"date"`
	OrderID   string `json:"orderid"`
	Store     string `json:"store"`
	SKU       string `json:"sku"`
	Qty       string `json:"qty"`
	UnitPrice string `json:"unitprice"`
	Currency  string `json:"currency"`
}

// SalesRow is a typed sales line. Amount is always derived from Qty and
// UnitPrice and Currency is always upper case.
type SalesRow struct {
	Date      time.Time       `json:"date" validate:"required"`
	OrderID   string          `json:"order_id,omitempty"`
	Store     string          `json:"store"`
	SKU       string          `json:"sku"`
	Qty       int64           `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`

	// Provenance, used for diagnostics only.
	SourceFile string `json:"source_file,omitempty"`
	SourceLine int    `json:"source_line,omitempty"`
}

// HasOrderID reports whether the row carries a non-null order id.
func (r SalesRow) HasOrderID() bool {
	return r.OrderID != ""
}

// NormalizedSalesRow is a SalesRow enriched with the rate that converts its
// amount into the base currency.
type NormalizedSalesRow struct {
	SalesRow
	RateToBase decimal.Decimal `json:"rate_to_base"`
	AmountBase decimal.Decimal `json:"amount_base"`
	// RateMatched is false when the currency had no entry in the rate table
	// and RateToBase was defaulted to 1.
	RateMatched bool `json:"rate_matched"`
}
