package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"capboard/internal/config"
	"capboard/internal/datasource"
	"capboard/internal/exporter"
	"capboard/internal/infrastructure"
	"capboard/internal/marketmetrics"
	"capboard/internal/services"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	formatBoth = "both"
)

type options struct {
	configPath string
	source     string
	dataDir    string
	outDir     string
	top        int
	period     string
	format     string
	entities   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config.yaml (defaults to config.yaml or configs/config.yaml when present)")
	flag.StringVar(&opts.source, "source", "", "price source: fixture | synthetic (defaults to the configured source)")
	flag.StringVar(&opts.dataDir, "data", "", "fixture directory with one <TICKER>.csv or .xlsx per entity")
	flag.StringVar(&opts.outDir, "out", "", "output directory for the report files (defaults to data/reports next to the executable)")
	flag.IntVar(&opts.top, "top", 0, "rows in the market cap table (defaults to metrics.top_n)")
	flag.StringVar(&opts.period, "period", "", "volatility period: 1y | 2y | 3y | all")
	flag.StringVar(&opts.format, "format", formatBoth, "output format: csv | xlsx | both")
	flag.StringVar(&opts.entities, "entities", "", "comma separated names or tickers to report on (defaults to the whole universe)")
	flag.Parse()

	if opts.configPath == "" {
		opts.configPath = config.FindConfigFile()
	}
	if opts.outDir == "" {
		paths, err := config.GetPaths()
		if err != nil {
			slog.Error("Failed to resolve application paths", "error", err)
			os.Exit(1)
		}
		opts.outDir = paths.ReportsDir
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if err := run(context.Background(), cfg, opts, logger, os.Stdout); err != nil {
		logger.Error("Report generation failed", "error", err)
		os.Exit(1)
	}
}

// run builds one dashboard and writes its tables to opts.outDir
func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger, out io.Writer) error {
	opts.format = strings.ToLower(opts.format)
	switch opts.format {
	case formatCSV, formatXLSX, formatBoth:
	default:
		return fmt.Errorf("unknown format %q: use csv, xlsx or both", opts.format)
	}

	// an empty period keeps metrics.default_period
	var period marketmetrics.Period
	if opts.period != "" {
		p, err := marketmetrics.ParsePeriod(opts.period)
		if err != nil {
			return err
		}
		period = p
	}
	if opts.top < 0 {
		return errors.New("top must be positive")
	}

	dataCfg := cfg.Data
	if opts.source != "" {
		dataCfg.Source = strings.ToLower(opts.source)
	}
	if opts.dataDir != "" {
		dataCfg.FixtureDir = opts.dataDir
		if opts.source == "" {
			dataCfg.Source = config.SourceFixture
		}
	}

	universe, err := datasource.UniverseFor(dataCfg)
	if err != nil {
		return err
	}

	source, err := datasource.New(dataCfg, logger)
	if err != nil {
		return err
	}

	svc, err := services.NewDashboardService(source, universe, cfg.Metrics, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	dash, err := svc.Build(ctx, services.BuildOptions{
		Top:      opts.top,
		Period:   period,
		Entities: strings.Split(opts.entities, ","),
	})
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}

	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tables := exporter.DashboardTables(dash)
	prefix := "marketcap_" + dash.GeneratedAt.Format("20060102_150405")

	var written []string
	if opts.format == formatCSV || opts.format == formatBoth {
		files, err := exporter.WriteDashboardCSV(exporter.NewCSVWriter(opts.outDir, logger), "", prefix, tables)
		if err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		written = append(written, files...)
	}
	if opts.format == formatXLSX || opts.format == formatBoth {
		path := filepath.Join(opts.outDir, prefix+".xlsx")
		if err := exporter.SaveXLSX(path, exporter.InfoFor(dash), tables); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		written = append(written, path)
	}

	logger.Info("Report generated",
		slog.String("report_id", dash.ID.String()),
		slog.String("provenance", string(dash.Provenance)),
		slog.Int("entities", dash.Entities),
		slog.Int("files", len(written)),
		slog.Duration("duration", time.Since(start)))

	printSummary(out, dash, written)
	return nil
}

func printSummary(out io.Writer, dash *services.Dashboard, written []string) {
	fmt.Fprintf(out, "Market cap report %s\n", dash.ID)
	fmt.Fprintf(out, "  source:     %s (%s)\n", dash.Source, dash.Provenance)
	fmt.Fprintf(out, "  period:     %s\n", dash.Period)
	if len(dash.Selected) > 0 {
		fmt.Fprintf(out, "  selected:   %s\n", strings.Join(dash.Selected, ", "))
	}
	fmt.Fprintf(out, "  entities:   %d analyzed, %d skipped, %d exclusions\n", dash.Entities, len(dash.Skipped), len(dash.Failures))
	if len(dash.MarketCaps) > 0 {
		top := dash.MarketCaps[0]
		fmt.Fprintf(out, "  largest:    %s at %.2fT USD\n", top.Entity, top.MarketCap)
	}
	if dash.Provenance == datasource.ProvenanceSynthetic {
		fmt.Fprintln(out, "  note:       synthetic prices, not market data")
	}
	for _, f := range written {
		fmt.Fprintf(out, "  wrote:      %s\n", f)
	}
}
