// Package dataprocessing holds the transformation steps of the sales
// pipeline.
//
// # Steps
//
//  1. SalesIngestor reads every .csv extract of a folder, normalizes the
//     headers with NormalizeColumns and types each record into a SalesRow.
//     A file that does not parse is logged and excluded; the other files
//     are unaffected.
//  2. BuildCalendar generates the calendar dimension over the months spanned
//     by the sales dates, with fiscal year and period for a configurable
//     fiscal start month.
//  3. NormalizeCurrency converts every amount into the base currency using
//     a resolved rate table. Unknown currencies keep a rate of 1.
//  4. Aggregate joins the normalized sales to the calendar and sums orders,
//     units and sales per fiscal period, store and sku.
//
// # Usage
//
//	ingestor := dataprocessing.NewSalesIngestor(cfg.Pipeline, logger)
//	result, err := ingestor.Ingest(ctx, cfg.Pipeline.FolderPath)
//	if err != nil {
//	    return err
//	}
//	calendar := dataprocessing.BuildCalendar(result.Dates(), cfg.Pipeline.FiscalStartMonth)
//	normalized := dataprocessing.NormalizeCurrency(result.Rows, resolution.Rates)
//	summary := dataprocessing.Aggregate(normalized, calendar)
//
// Money values are shopspring/decimal throughout so sums reconcile exactly.
package dataprocessing
