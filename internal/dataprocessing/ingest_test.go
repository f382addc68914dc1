package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
	"salesetl/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newTestIngestor(workers int, skipInvalid bool) *SalesIngestor {
	return NewSalesIngestor(config.PipelineConfig{Workers: workers, SkipInvalidRows: skipInvalid}, testLogger())
}

// writeScenarioFiles lays out the two-month example used across tests.
func writeScenarioFiles(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "sales_jan.csv", salesHeader+"2025-01-15,O1,S1,SKU1,2,10.00,USD\n")
	writeFile(t, dir, "sales_feb.csv", salesHeader+"2025-02-10,O2,S1,SKU1,1,5.00,EUR\n")
}

func TestIngest_TypesRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv",
		"Date,Order ID,Store,SKU,Qty,Unit-Price,CURRENCY\n"+
			"2025-01-15,O1, S1 ,SKU1,2,10.00,usd\n"+
			"2025/01/16,,S2,SKU2,3,1.25,Eur\n")

	result, err := newTestIngestor(2, false).Ingest(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	first := result.Rows[0]
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "O1", first.OrderID)
	assert.Equal(t, "S1", first.Store)
	assert.Equal(t, int64(2), first.Qty)
	assert.Equal(t, "USD", first.Currency)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "sales.csv", first.SourceFile)
	assert.Equal(t, 2, first.SourceLine)

	second := result.Rows[1]
	assert.False(t, second.HasOrderID())
	assert.Equal(t, "EUR", second.Currency)
	assert.True(t, second.Amount.Equal(decimal.RequireFromString("3.75")))

	require.Len(t, result.Files, 1)
	assert.True(t, result.Files[0].Parsed)
	assert.Equal(t, 2, result.Files[0].Rows)
}

func TestIngest_DiscoveryOrder(t *testing.T) {
	dir := t.TempDir()
	// Enough files to exercise the worker pool out of order.
	for i := 9; i >= 0; i-- {
		writeFile(t, dir, fmt.Sprintf("sales_%02d.csv", i),
			salesHeader+fmt.Sprintf("2025-01-%02d,O%d,S1,SKU1,1,1.00,USD\n2025-01-%02d,O%d-b,S1,SKU1,1,1.00,USD\n", i+1, i, i+1, i))
	}

	result, err := newTestIngestor(4, false).Ingest(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Rows, 20)
	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("O%d", i), result.Rows[2*i].OrderID)
		assert.Equal(t, fmt.Sprintf("O%d-b", i), result.Rows[2*i+1].OrderID)
	}
}

func TestIngest_MalformedFileIsolated(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFiles(t, dir)

	baseline, err := newTestIngestor(2, false).Ingest(context.Background(), dir)
	require.NoError(t, err)

	writeFile(t, dir, "sales_bad.csv", "this is not\x00 a \"sales extract\nat all")
	writeFile(t, dir, "notes.txt", "ignored")

	result, err := newTestIngestor(2, false).Ingest(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, baseline.Rows, result.Rows)
	assert.Equal(t, 1, result.FailedFiles())
	require.Len(t, result.Files, 3)
	assert.Equal(t, "sales_bad.csv", result.Files[0].Name)
	assert.False(t, result.Files[0].Parsed)
	assert.NotEmpty(t, result.Files[0].Error)
}

func TestIngest_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFiles(t, dir)

	first, err := newTestIngestor(1, false).Ingest(context.Background(), dir)
	require.NoError(t, err)
	second, err := newTestIngestor(8, false).Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, first.Rows, second.Rows)
}

func TestIngest_EmptyFolder(t *testing.T) {
	result, err := newTestIngestor(1, false).Ingest(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Empty(t, result.Files)
}

func TestIngest_MissingFolder(t *testing.T) {
	_, err := newTestIngestor(1, false).Ingest(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIngest_MissingColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "Date,OrderID,Store,SKU,Quantity,UnitPrice,Currency\n2025-01-15,O1,S1,SKU1,2,10.00,USD\n")

	_, err := newTestIngestor(1, false).Ingest(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, err.Error(), "qty")
}

func TestIngest_CoercionFailure(t *testing.T) {
	content := salesHeader +
		"2025-01-15,O1,S1,SKU1,2,10.00,USD\n" +
		"2025-01-16,O2,S1,SKU1,two,10.00,USD\n" +
		"2025-01-17,O3,S1,SKU1,1,4.00,USD\n"

	t.Run("fails the run by default", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "sales.csv", content)

		_, err := newTestIngestor(1, false).Ingest(context.Background(), dir)
		require.Error(t, err)

		var dq *apperrors.DataQualityError
		require.True(t, errors.As(err, &dq))
		assert.Equal(t, "sales.csv", dq.File)
		assert.Equal(t, 3, dq.Line)
		assert.Equal(t, ColumnQty, dq.Column)
		assert.Equal(t, "two", dq.Value)
	})

	t.Run("drops the row when configured", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "sales.csv", content)

		result, err := newTestIngestor(1, true).Ingest(context.Background(), dir)
		require.NoError(t, err)
		assert.Len(t, result.Rows, 2)
		assert.Equal(t, 1, result.DroppedRows)
		assert.Equal(t, "O3", result.Rows[1].OrderID)
	})
}

func TestIngest_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFiles(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestIngestor(1, false).Ingest(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCoerceRow(t *testing.T) {
	tests := []struct {
		name       string
		raw        func(r *domain.RawSalesRow)
		wantColumn string
	}{
		{name: "valid"},
		{name: "rfc3339 date", raw: func(r *domain.RawSalesRow) { r.Date = "2025-01-15T10:30:00Z" }},
		{name: "datetime", raw: func(r *domain.RawSalesRow) { r.Date = "2025-01-15 10:30:00" }},
		{name: "qty with zero fraction", raw: func(r *domain.RawSalesRow) { r.Qty = "2.0" }},
		{name: "bad date", raw: func(r *domain.RawSalesRow) { r.Date = "15/01/2025" }, wantColumn: ColumnDate},
		{name: "empty date", raw: func(r *domain.RawSalesRow) { r.Date = "" }, wantColumn: ColumnDate},
		{name: "fractional qty", raw: func(r *domain.RawSalesRow) { r.Qty = "1.5" }, wantColumn: ColumnQty},
		{name: "empty qty", raw: func(r *domain.RawSalesRow) { r.Qty = "" }, wantColumn: ColumnQty},
		{name: "bad price", raw: func(r *domain.RawSalesRow) { r.UnitPrice = "ten" }, wantColumn: ColumnUnitPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.RawSalesRow{Date: "2025-01-15", OrderID: "O1", Store: "S1", SKU: "SKU1", Qty: "2", UnitPrice: "10.00", Currency: "usd"}
			if tt.raw != nil {
				tt.raw(&r)
			}

			row, err := CoerceRow(r, "f.csv", 7)
			if tt.wantColumn != "" {
				var dq *apperrors.DataQualityError
				require.True(t, errors.As(err, &dq))
				assert.Equal(t, tt.wantColumn, dq.Column)
				assert.Equal(t, 7, dq.Line)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 15, row.Date.Day())
			assert.Equal(t, 0, row.Date.Hour())
			assert.Equal(t, "USD", row.Currency)
			assert.True(t, row.Amount.Equal(row.UnitPrice.Mul(decimal.NewFromInt(row.Qty))))
		})
	}
}
