package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
	"salesetl/pkg/contracts/domain"
)

// FallbackBase is the currency the fallback table is expressed against.
const FallbackBase = "USD"

// QuotePerBase and QuoteToBase name the two ways a rates document can
// express its numbers.
const (
	QuotePerBase = "per_base"
	QuoteToBase  = "to_base"
)

const maxDocumentBytes = 1 << 20

var fallbackTable = []struct {
	currency string
	rate     string
}{
	{"USD", "1.0"},
	{"EUR", "1.08"},
	{"GBP", "1.27"},
	{"JPY", "0.0066"},
	{"CAD", "0.73"},
}

// FallbackRates returns the static rate table used when the live source is
// unavailable. The values are relative to FallbackBase.
func FallbackRates() []domain.ExchangeRate {
	out := make([]domain.ExchangeRate, len(fallbackTable))
	for i, r := range fallbackTable {
		out[i] = domain.ExchangeRate{Currency: r.currency, RateToBase: decimal.RequireFromString(r.rate)}
	}
	return out
}

// Resolution is the rate table chosen for a run. Rates come entirely from
// one source; live and fallback values are never mixed.
type Resolution struct {
	Base           string                `json:"base"`
	Source         domain.RateSource     `json:"source"`
	Rates          []domain.ExchangeRate `json:"rates"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
	// BaseMismatch is set when fallback rates were used for a base other
	// than FallbackBase. Base amounts are then not reconciled.
	BaseMismatch bool      `json:"base_mismatch"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// Lookup returns the rate for a currency code.
func (r *Resolution) Lookup(currency string) (decimal.Decimal, bool) {
	currency = strings.ToUpper(currency)
	for _, rate := range r.Rates {
		if rate.Currency == currency {
			return rate.RateToBase, true
		}
	}
	return decimal.Decimal{}, false
}

// ratesDocument is the shape of the live rates endpoint. Both the
// "base_code" and legacy "base" spellings are accepted.
type ratesDocument struct {
	Result   string                     `json:"result"`
	BaseCode string                     `json:"base_code"`
	Base     string                     `json:"base"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// Resolver fetches live exchange rates and falls back to a static table on
// any failure.
type Resolver struct {
	client  *http.Client
	url     string
	timeout time.Duration
	quote   string
	offline bool
	logger  *slog.Logger
	now     func() time.Time
}

// NewResolver creates a resolver for the configured rate source.
func NewResolver(cfg config.RatesConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRatesTimeout
	}
	quote := cfg.Quote
	if quote == "" {
		quote = QuotePerBase
	}
	return &Resolver{
		client:  &http.Client{Timeout: timeout},
		url:     cfg.URL,
		timeout: timeout,
		quote:   quote,
		offline: cfg.Offline,
		logger:  logger.With("component", "rate_resolver"),
		now:     time.Now,
	}
}

// Resolve returns the rate table for base. It never fails: when the live
// fetch fails for any reason the whole fallback table is returned instead,
// with the reason recorded on the resolution.
func (r *Resolver) Resolve(ctx context.Context, base string) *Resolution {
	base = strings.ToUpper(strings.TrimSpace(base))

	var reason string
	if r.offline {
		reason = "offline mode"
	} else {
		rates, err := r.fetch(ctx, base)
		if err == nil {
			r.logger.InfoContext(ctx, "Resolved live exchange rates",
				slog.String("base", base),
				slog.Int("currencies", len(rates)))
			return &Resolution{
				Base:       base,
				Source:     domain.RateSourceLive,
				Rates:      rates,
				ResolvedAt: r.now().UTC(),
			}
		}
		reason = err.Error()
	}

	res := &Resolution{
		Base:           base,
		Source:         domain.RateSourceFallback,
		Rates:          FallbackRates(),
		FallbackReason: reason,
		BaseMismatch:   base != FallbackBase,
		ResolvedAt:     r.now().UTC(),
	}
	r.logger.WarnContext(ctx, "Using fallback exchange rates",
		slog.String("base", base),
		slog.String("reason", reason))
	if res.BaseMismatch {
		r.logger.WarnContext(ctx, "Fallback rates are not expressed in the base currency; base amounts are not reconciled",
			slog.String("base", base),
			slog.String("fallback_base", FallbackBase))
	}
	return res
}

func (r *Resolver) fetch(ctx context.Context, base string) ([]domain.ExchangeRate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url := strings.ReplaceAll(r.url, "{base}", base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("build rates request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("fetch rates", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("rates source returned status %d", resp.StatusCode), nil)
	}

	var doc ratesDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentBytes)).Decode(&doc); err != nil {
		return nil, apperrors.NewParsingError("decode rates document", err)
	}
	return r.convert(doc, base)
}

// convert validates a rates document and expresses every rate as units of
// base per unit of currency.
func (r *Resolver) convert(doc ratesDocument, base string) ([]domain.ExchangeRate, error) {
	if doc.Result != "" && !strings.EqualFold(doc.Result, "success") {
		return nil, apperrors.NewParsingError(fmt.Sprintf("rates document result %q", doc.Result), nil)
	}
	if len(doc.Rates) == 0 {
		return nil, apperrors.NewParsingError("rates document has no rates", nil)
	}
	docBase := doc.BaseCode
	if docBase == "" {
		docBase = doc.Base
	}
	if docBase != "" && !strings.EqualFold(docBase, base) {
		return nil, apperrors.NewParsingError(fmt.Sprintf("rates document base %s does not match %s", docBase, base), nil)
	}

	one := decimal.NewFromInt(1)
	out := make([]domain.ExchangeRate, 0, len(doc.Rates)+1)
	seen := make(map[string]bool, len(doc.Rates))
	for code, value := range doc.Rates {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		if !value.IsPositive() {
			return nil, apperrors.NewParsingError(fmt.Sprintf("rate for %s is not positive", code), nil)
		}

		rate := value
		switch {
		case code == base:
			rate = one
		case r.quote == QuotePerBase:
			rate = one.Div(value)
		}
		out = append(out, domain.ExchangeRate{Currency: code, RateToBase: rate})
	}
	if len(out) == 0 {
		return nil, apperrors.NewParsingError("rates document has no usable currency codes", nil)
	}
	if !seen[base] {
		out = append(out, domain.ExchangeRate{Currency: base, RateToBase: one})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}
