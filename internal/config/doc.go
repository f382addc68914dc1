// Package config loads and validates the salesetl configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default() values
//	2. A YAML file (explicit path, $SALES_CONFIG_FILE, or salesetl.yaml / configs/salesetl.yaml)
//	3. SALES_* environment variables, optionally seeded from a .env file
//
// # Environment Variables
//
// Variables follow the section layout of the YAML file:
//
//	SALES_PIPELINE_FOLDER_PATH=/srv/extracts
//	SALES_PIPELINE_FISCAL_START_MONTH=7
//	SALES_PIPELINE_BASE_CURRENCY=USD
//	SALES_RATES_TIMEOUT=30s
//	SALES_OUTPUT_FORMATS=csv,xlsx,parquet
//	SALES_LOGGING_LEVEL=debug
//
// # Validation
//
// Validation runs through go-playground/validator tags. The fiscal start month
// must be within 1..12 and the base currency must be a three-letter upper case
// code; violations are reported with the offending field path.
//
// The PipelineConfig section is the run configuration passed explicitly to
// every pipeline component; nothing in the pipeline reads configuration from
// globals.
package config
