package domain

import (
	"github.com/shopspring/decimal"
)

// ExchangeRate expresses how many units of the base currency one unit of
// Currency is worth.
type ExchangeRate struct {
	Currency   string          `json:"currency" validate:"required,len=3"`
	RateToBase decimal.Decimal `json:"rate_to_base"`
}

// RateSource tells which table an exchange-rate resolution came from.
type RateSource string

const (
	RateSourceLive     RateSource = "live"
	RateSourceFallback RateSource = "fallback"
)
