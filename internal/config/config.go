package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment override, e.g. SALES_PIPELINE_BASE_CURRENCY.
const EnvPrefix = "SALES"

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Rates     RatesConfig     `yaml:"rates" envconfig:"RATES"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PipelineConfig is the run configuration handed to every pipeline component.
// It is read-only for the duration of a run.
type PipelineConfig struct {
	FolderPath       string `yaml:"folder_path" envconfig:"FOLDER_PATH" validate:"required"`
	FiscalStartMonth int    `yaml:"fiscal_start_month" envconfig:"FISCAL_START_MONTH" validate:"min=1,max=12"`
	BaseCurrency     string `yaml:"base_currency" envconfig:"BASE_CURRENCY" validate:"required,len=3,alpha,uppercase"`
	Workers          int    `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
	// SkipInvalidRows drops rows that fail type coercion instead of failing the run.
	SkipInvalidRows bool `yaml:"skip_invalid_rows" envconfig:"SKIP_INVALID_ROWS"`
}

// RatesConfig configures the exchange-rate source
type RatesConfig struct {
	// URL may contain a {base} placeholder that is replaced by the base currency.
	URL     string        `yaml:"url" envconfig:"URL" validate:"required"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	// Quote is "per_base" when the document lists units of foreign currency per
	// unit of base (the rates are inverted), or "to_base" when it already lists
	// units of base per unit of foreign currency.
	Quote   string `yaml:"quote" envconfig:"QUOTE" validate:"oneof=per_base to_base"`
	Offline bool   `yaml:"offline" envconfig:"OFFLINE"`
	// CacheTTL keeps live rates for repeated runs of a long-lived process.
	// Zero disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" validate:"gte=0"`
}

// OutputConfig configures where and how run results are written
type OutputConfig struct {
	Dir     string       `yaml:"dir" envconfig:"DIR" validate:"required"`
	Formats []string     `yaml:"formats" envconfig:"FORMATS" validate:"dive,oneof=csv xlsx parquet"`
	Sheets  SheetsConfig `yaml:"sheets" envconfig:"SHEETS"`
}

// SheetsConfig configures publishing the summary to a Google spreadsheet.
// Publishing is off while SpreadsheetID is empty.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required_with=SpreadsheetID"`
	Endpoint        string `yaml:"endpoint" envconfig:"ENDPOINT"`
}

// Enabled reports whether a target spreadsheet is configured
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RunTimeout      time.Duration   `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig configures OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// SALES_* environment variables, in increasing order of precedence. A .env
// file in the working directory is loaded into the environment first when
// present. An empty path falls back to the well-known config locations.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are set override; unset ones keep file and default values.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the first config file found in the common locations
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"salesetl.yaml",
		"configs/salesetl.yaml",
		"../configs/salesetl.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// normalize canonicalizes values that users commonly write loosely
func (c *Config) normalize() {
	c.Pipeline.BaseCurrency = strings.ToUpper(strings.TrimSpace(c.Pipeline.BaseCurrency))
	c.Pipeline.FolderPath = strings.TrimSpace(c.Pipeline.FolderPath)
	for i, f := range c.Output.Formats {
		c.Output.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	c.Logging.Format = "json"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section against its validation tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describeValidation(err)
	}
	return nil
}

// Validate checks the run configuration on its own
func (p PipelineConfig) Validate() error {
	if err := validate.Struct(p); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			FolderPath:       "data/sales",
			FiscalStartMonth: 1,
			BaseCurrency:     "USD",
			Workers:          4,
		},
		Rates: RatesConfig{
			URL:      DefaultRatesURL,
			Timeout:  DefaultRatesTimeout,
			Quote:    "per_base",
			CacheTTL: DefaultRatesCacheTTL,
		},
		Output: OutputConfig{
			Dir:     "data/output",
			Formats: []string{"csv"},
			Sheets: SheetsConfig{
				SheetName: "Summary",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/salesetl.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      10 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			ServiceName:    AppName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
