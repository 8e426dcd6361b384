// Command forecaster runs the batch forecasting pipeline and writes the
// full set of report artifacts to the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"fincast/internal/config"
	"fincast/internal/dataset"
	"fincast/internal/exporter"
	"fincast/internal/infrastructure"
	"fincast/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile = flag.String("config", "config.yaml", "path to YAML config file")
		enriched   = flag.String("enriched", "", "override path to the enriched observations CSV")
		links      = flag.String("links", "", "override path to the impact links CSV")
		outDir     = flag.String("out", "", "override output directory")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *enriched != "" {
		cfg.Paths.EnrichedData = *enriched
	}
	if *links != "" {
		cfg.Paths.ImpactLinks = *links
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	data, err := dataset.LoadEnriched(cfg.Paths.EnrichedData)
	if err != nil {
		return fmt.Errorf("load enriched data: %w", err)
	}
	impactLinks, err := dataset.LoadImpactLinks(cfg.Paths.ImpactLinks)
	if err != nil {
		return fmt.Errorf("load impact links: %w", err)
	}

	logger.InfoContext(ctx, "dataset loaded",
		"observations", len(data.Observations),
		"events", len(data.Events),
		"impact_links", len(impactLinks),
	)

	service := services.NewForecastService(ctx, data, impactLinks, logger,
		services.WithConcurrency(cfg.Forecast.Concurrency),
		services.WithTarget(cfg.Forecast.TargetValue, cfg.Forecast.TargetYear),
	)

	report, err := service.Run(ctx, cfg.Forecast.Years())
	if err != nil {
		return fmt.Errorf("batch forecast: %w", err)
	}

	if err := writeArtifacts(service, report, cfg.Paths.OutputDir); err != nil {
		return err
	}

	printReport(report, cfg.Paths.OutputDir)
	return nil
}

func writeArtifacts(service *services.ForecastService, report *services.Report, outDir string) error {
	matrix := service.Matrix()

	if err := exporter.WriteMatrixCSV(matrix, filepath.Join(outDir, "association_matrix.csv")); err != nil {
		return err
	}
	if err := exporter.WriteMatrixJSON(matrix, filepath.Join(outDir, "association_matrix.json")); err != nil {
		return err
	}
	if err := exporter.WriteEvidenceJSON(matrix, filepath.Join(outDir, "association_evidence.json")); err != nil {
		return err
	}

	for _, result := range report.Forecasts {
		name := fmt.Sprintf("scenarios_%s.csv", slug(result.Indicator))
		if err := exporter.WriteScenariosCSV(result.Table, filepath.Join(outDir, name)); err != nil {
			return err
		}
	}

	if err := exporter.WriteSummaryCSV(report.Summary, filepath.Join(outDir, "forecast_summary.csv")); err != nil {
		return err
	}
	if err := exporter.WriteValidationCSV(report.Validation, filepath.Join(outDir, "validation_results.csv")); err != nil {
		return err
	}
	if err := exporter.WriteGrowthCSV(report.Growth, filepath.Join(outDir, "growth_analysis.csv")); err != nil {
		return err
	}
	if err := exporter.WriteDriversCSV(report.Drivers, filepath.Join(outDir, "key_drivers.csv")); err != nil {
		return err
	}

	workbook := filepath.Join(outDir, "forecast_report.xlsx")
	return exporter.WriteReportWorkbook(report, exporter.NewMatrixSheetWriter(matrix), workbook)
}

func printReport(report *services.Report, outDir string) {
	fmt.Printf("Forecast years:      %v\n", report.Years)
	fmt.Printf("Indicators forecast: %d\n", len(report.Forecasts))
	for _, failure := range report.Failures {
		fmt.Printf("  skipped %s: %s\n", failure.Indicator, failure.Reason)
	}
	fmt.Printf("Validation pass rate: %.1f%%\n", report.PassRate)

	gap := report.TargetGap
	if gap.Target > 0 {
		fmt.Printf("Target %.0f%%: forecast %.1f%%, gap %+.1fpp (%s)\n",
			gap.Target, gap.Forecast, gap.Gap, gap.Status)
	}
	for _, m := range report.Milestones {
		fmt.Printf("  %.0f%% reached in %.1f\n", m.Target, m.Year)
	}

	fmt.Printf("Artifacts written to %s\n", outDir)
}

// slug turns an indicator name into a file-name friendly token
func slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}
