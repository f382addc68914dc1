package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"salesetl/pkg/contracts/domain"
)

// Parquet schemas are static, so the base-currency amount is stored as
// sales_base next to a base_currency column. Money columns are DECIMAL(18,2)
// stored as cents.
type summaryParquetRow struct {
	Year         *int32  `parquet:"name=year, type=INT32, repetitiontype=OPTIONAL"`
	FiscalYear   *int32  `parquet:"name=fiscal_year, type=INT32, repetitiontype=OPTIONAL"`
	FiscalPeriod *int32  `parquet:"name=fiscal_period, type=INT32, repetitiontype=OPTIONAL"`
	Month        *int32  `parquet:"name=month, type=INT32, repetitiontype=OPTIONAL"`
	MonthName    *string `parquet:"name=month_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Store        string  `parquet:"name=store, type=BYTE_ARRAY, convertedtype=UTF8"`
	SKU          string  `parquet:"name=sku, type=BYTE_ARRAY, convertedtype=UTF8"`
	Orders       int64   `parquet:"name=orders, type=INT64"`
	Units        int64   `parquet:"name=units, type=INT64"`
	Sales        int64   `parquet:"name=sales, type=INT64, convertedtype=DECIMAL, scale=2, precision=18"`
	SalesBase    int64   `parquet:"name=sales_base, type=INT64, convertedtype=DECIMAL, scale=2, precision=18"`
	BaseCurrency string  `parquet:"name=base_currency, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type calendarParquetRow struct {
	Date         int32  `parquet:"name=date, type=INT32, convertedtype=DATE"`
	Year         int32  `parquet:"name=year, type=INT32"`
	Month        int32  `parquet:"name=month, type=INT32"`
	MonthName    string `parquet:"name=month_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quarter      int32  `parquet:"name=quarter, type=INT32"`
	Week         int32  `parquet:"name=week, type=INT32"`
	FiscalYear   int32  `parquet:"name=fiscal_year, type=INT32"`
	FiscalPeriod int32  `parquet:"name=fiscal_period, type=INT32"`
}

func cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func epochDays(t time.Time) int32 {
	return int32(t.UTC().Unix() / 86400)
}

func int32Ptr(v int) *int32 {
	i := int32(v)
	return &i
}

// WriteSummaryParquet writes summary rows as a SNAPPY-compressed Parquet file
func WriteSummaryParquet(w io.Writer, rows []domain.SummaryRow, baseCurrency string) error {
	pw, err := writer.NewParquetWriter(writerfile.NewWriterFile(w), new(summaryParquetRow), 1)
	if err != nil {
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		pr := &summaryParquetRow{
			Store:        row.Store,
			SKU:          row.SKU,
			Orders:       int64(row.Orders),
			Units:        row.Units,
			Sales:        cents(row.Sales),
			SalesBase:    cents(row.SalesBase),
			BaseCurrency: baseCurrency,
		}
		if row.InCalendar {
			monthName := row.MonthName
			pr.Year = int32Ptr(row.Year)
			pr.FiscalYear = int32Ptr(row.FiscalYear)
			pr.FiscalPeriod = int32Ptr(row.FiscalPeriod)
			pr.Month = int32Ptr(row.Month)
			pr.MonthName = &monthName
		}
		if err := pw.Write(pr); err != nil {
			return fmt.Errorf("parquet write: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet finalize: %w", err)
	}
	return nil
}

// WriteCalendarParquet writes the calendar dimension as a Parquet file
func WriteCalendarParquet(w io.Writer, days []domain.CalendarDay) error {
	pw, err := writer.NewParquetWriter(writerfile.NewWriterFile(w), new(calendarParquetRow), 1)
	if err != nil {
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, d := range days {
		pr := &calendarParquetRow{
			Date:         epochDays(d.Date),
			Year:         int32(d.Year),
			Month:        int32(d.Month),
			MonthName:    d.MonthName,
			Quarter:      int32(d.Quarter),
			Week:         int32(d.Week),
			FiscalYear:   int32(d.FiscalYear),
			FiscalPeriod: int32(d.FiscalPeriod),
		}
		if err := pw.Write(pr); err != nil {
			return fmt.Errorf("parquet write: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet finalize: %w", err)
	}
	return nil
}
