// Package rates resolves the exchange-rate table a pipeline run converts
// amounts with. A live JSON document is fetched once, bounded by a timeout;
// on any failure the static fallback table is used in its entirety.
package rates
