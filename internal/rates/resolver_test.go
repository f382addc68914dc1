package rates

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/internal/config"
	"salesetl/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestResolver(url string, mutate func(*config.RatesConfig)) *Resolver {
	cfg := config.RatesConfig{URL: url, Timeout: 2 * time.Second, Quote: QuotePerBase}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewResolver(cfg, testLogger())
}

func assertFallback(t *testing.T, res *Resolution) {
	t.Helper()
	assert.Equal(t, domain.RateSourceFallback, res.Source)
	assert.NotEmpty(t, res.FallbackReason)

	want := map[string]string{"USD": "1", "EUR": "1.08", "GBP": "1.27", "JPY": "0.0066", "CAD": "0.73"}
	require.Len(t, res.Rates, len(want))
	for _, r := range res.Rates {
		assert.True(t, r.RateToBase.Equal(decimal.RequireFromString(want[r.Currency])), r.Currency)
	}
}

func TestFallbackRates(t *testing.T) {
	rates := FallbackRates()
	require.Len(t, rates, 5)
	assert.Equal(t, "USD", rates[0].Currency)

	// Callers get a fresh slice every time.
	rates[0].Currency = "XXX"
	assert.Equal(t, "USD", FallbackRates()[0].Currency)
}

func TestResolve_Live(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":"success","base_code":"USD","rates":{"USD":1,"EUR":0.8,"GBP":0.5,"JPY":150}}`)
	}))
	defer server.Close()

	res := newTestResolver(server.URL+"/latest/{base}", nil).Resolve(context.Background(), "usd")

	assert.Equal(t, "/latest/USD", gotPath)
	assert.Equal(t, "USD", res.Base)
	assert.Equal(t, domain.RateSourceLive, res.Source)
	assert.Empty(t, res.FallbackReason)
	assert.False(t, res.BaseMismatch)
	require.Len(t, res.Rates, 4)

	// Sorted by code, quoted per unit of base so inverted.
	assert.Equal(t, []string{"EUR", "GBP", "JPY", "USD"},
		[]string{res.Rates[0].Currency, res.Rates[1].Currency, res.Rates[2].Currency, res.Rates[3].Currency})
	eur, ok := res.Lookup("eur")
	require.True(t, ok)
	assert.Equal(t, "1.25", eur.String())
	gbp, _ := res.Lookup("GBP")
	assert.Equal(t, "2", gbp.String())
	usd, _ := res.Lookup("USD")
	assert.True(t, usd.Equal(decimal.NewFromInt(1)))

	_, ok = res.Lookup("XYZ")
	assert.False(t, ok)
}

func TestResolve_LiveToBaseQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"base":"EUR","rates":{"USD":"0.92","GBP":1.17}}`)
	}))
	defer server.Close()

	res := newTestResolver(server.URL, func(c *config.RatesConfig) { c.Quote = QuoteToBase }).
		Resolve(context.Background(), "EUR")

	assert.Equal(t, domain.RateSourceLive, res.Source)
	require.Len(t, res.Rates, 3, "base currency is added with rate 1")
	usd, _ := res.Lookup("USD")
	assert.Equal(t, "0.92", usd.String())
	eur, ok := res.Lookup("EUR")
	require.True(t, ok)
	assert.True(t, eur.Equal(decimal.NewFromInt(1)))
}

func TestResolve_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			reason: "status 500",
		},
		{
			name: "malformed document",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"rates": [1, 2`)
			},
			reason: "decode",
		},
		{
			name: "missing rates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"result":"success","base_code":"USD"}`)
			},
			reason: "no rates",
		},
		{
			name: "error result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"result":"error","error-type":"unsupported-code"}`)
			},
			reason: "result",
		},
		{
			name: "non-positive rate",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"base_code":"USD","rates":{"USD":1,"EUR":0}}`)
			},
			reason: "not positive",
		},
		{
			name: "different base",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"base_code":"EUR","rates":{"USD":1.08}}`)
			},
			reason: "does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			res := newTestResolver(server.URL, nil).Resolve(context.Background(), "USD")
			assertFallback(t, res)
			assert.Contains(t, res.FallbackReason, tt.reason)
			assert.False(t, res.BaseMismatch)
		})
	}
}

func TestResolve_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	res := newTestResolver(server.URL, func(c *config.RatesConfig) { c.Timeout = 50 * time.Millisecond }).
		Resolve(context.Background(), "USD")

	assertFallback(t, res)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assertFallback(t, newTestResolver(url, nil).Resolve(context.Background(), "USD"))
}

func TestResolve_Offline(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	res := newTestResolver(server.URL, func(c *config.RatesConfig) { c.Offline = true }).
		Resolve(context.Background(), "USD")

	assertFallback(t, res)
	assert.Equal(t, "offline mode", res.FallbackReason)
	assert.False(t, called)
}

func TestResolve_FallbackBaseMismatch(t *testing.T) {
	res := newTestResolver("http://127.0.0.1:0", func(c *config.RatesConfig) { c.Offline = true }).
		Resolve(context.Background(), "EUR")

	assertFallback(t, res)
	assert.Equal(t, "EUR", res.Base)
	assert.True(t, res.BaseMismatch)
}
