package dataprocessing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"salesetl/pkg/contracts/domain"
)

// NormalizeCurrency attaches to every sales row the rate converting its
// amount into the base currency. A currency missing from rates is treated as
// already being in the base currency: its rate defaults to 1 and the row is
// marked unmatched. The output has exactly one row per input row, in order.
func NormalizeCurrency(sales []domain.SalesRow, rates []domain.ExchangeRate) []domain.NormalizedSalesRow {
	lookup := make(map[string]decimal.Decimal, len(rates))
	for _, r := range rates {
		code := strings.ToUpper(r.Currency)
		if _, dup := lookup[code]; !dup {
			lookup[code] = r.RateToBase
		}
	}

	out := make([]domain.NormalizedSalesRow, len(sales))
	for i, row := range sales {
		rate, ok := lookup[row.Currency]
		if !ok {
			rate = decimal.NewFromInt(1)
		}
		out[i] = domain.NormalizedSalesRow{
			SalesRow:    row,
			RateToBase:  rate,
			AmountBase:  row.Amount.Mul(rate),
			RateMatched: ok,
		}
	}
	return out
}

// UnmatchedCurrencies lists, sorted, the currencies that defaulted to rate 1.
func UnmatchedCurrencies(rows []domain.NormalizedSalesRow) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if !r.RateMatched {
			seen[r.Currency] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
