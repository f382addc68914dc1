package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
	"salesetl/internal/exporter"
	"salesetl/internal/infrastructure"
	"salesetl/internal/operations"
	"salesetl/internal/services"
	api "salesetl/pkg/contracts/api/v1"
)

// Exit codes
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitConfig  = 3
	exitDataErr = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	configPath      string
	folder          string
	fiscalStart     int
	base            string
	outDir          string
	formats         string
	skipInvalidRows bool
	offline         bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, map[string]bool, error) {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file (defaults to salesetl.yaml or configs/salesetl.yaml)")
	fs.StringVar(&f.folder, "folder", "", "folder holding the sales CSV files")
	fs.IntVar(&f.fiscalStart, "fiscal-start", 0, "first month of the fiscal year (1-12)")
	fs.StringVar(&f.base, "base", "", "base currency code, e.g. USD")
	fs.StringVar(&f.outDir, "out", "", "output directory")
	fs.StringVar(&f.formats, "formats", "", "comma separated output formats: csv,xlsx,parquet")
	fs.BoolVar(&f.skipInvalidRows, "skip-invalid-rows", false, "drop rows that fail type coercion instead of failing the run")
	fs.BoolVar(&f.offline, "offline", false, "skip the exchange-rate fetch and use fallback rates")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// apply overlays the flags given on the command line onto cfg
func (f *cliFlags) apply(cfg *config.Config, set map[string]bool) {
	if set["folder"] {
		cfg.Pipeline.FolderPath = strings.TrimSpace(f.folder)
	}
	if set["fiscal-start"] {
		cfg.Pipeline.FiscalStartMonth = f.fiscalStart
	}
	if set["base"] {
		cfg.Pipeline.BaseCurrency = strings.ToUpper(strings.TrimSpace(f.base))
	}
	if set["out"] {
		cfg.Output.Dir = f.outDir
	}
	if set["formats"] {
		cfg.Output.Formats = cfg.Output.Formats[:0]
		for _, format := range strings.Split(f.formats, ",") {
			if format = strings.ToLower(strings.TrimSpace(format)); format != "" {
				cfg.Output.Formats = append(cfg.Output.Formats, format)
			}
		}
	}
	if set["skip-invalid-rows"] {
		cfg.Pipeline.SkipInvalidRows = f.skipInvalidRows
	}
	if set["offline"] {
		cfg.Rates.Offline = f.offline
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, set, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitConfig
	}
	flags.apply(cfg, set)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return exitConfig
	}

	// stdout carries the run summary only
	logger := infrastructure.NewLogger(cfg.Logging, stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return exitFailed
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		logger.Error("Failed to initialize operation tracer", slog.String("error", err.Error()))
		return exitFailed
	}

	svc := services.NewPipelineService(cfg,
		operations.Dependencies{Tracer: tracer},
		exporter.NewExporter(cfg.Output, logger),
		logger)

	record, runErr := svc.Run(ctx, api.RunRequest{})
	if record != nil && record.Result != nil {
		if err := json.NewEncoder(stdout).Encode(services.NewRunResponse(record)); err != nil {
			logger.Error("Failed to write run summary", slog.String("error", err.Error()))
		}
	}
	if runErr != nil {
		logger.Error("Run failed",
			slog.String("type", string(apperrors.TypeOf(runErr))),
			slog.String("error", runErr.Error()))
		return exitCode(runErr)
	}
	return exitOK
}

// exitCode maps a run error to the process exit status
func exitCode(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeConfig:
		return exitConfig
	case apperrors.ErrTypeSchema, apperrors.ErrTypeDataQuality:
		return exitDataErr
	default:
		return exitFailed
	}
}
