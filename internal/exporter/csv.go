// Package exporter persists the forecasting outputs: the association
// matrix, per-indicator scenario tables, the cross-indicator summary,
// growth and driver tables, and validation results. Formats are CSV,
// JSON and a multi-sheet Excel workbook.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"fincast/internal/association"
	"fincast/internal/forecast"
	"fincast/internal/impact"
	"fincast/internal/scenario"
	"fincast/internal/services"
)

// WriteMatrixCSV saves the association matrix as a labeled 2-D table:
// one row per event, one column per indicator.
func WriteMatrixCSV(matrix *association.Matrix, outputPath string) error {
	file, err := createOutputFile(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	indicators := matrix.Indicators()
	header := append([]string{""}, indicators...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write matrix header: %w", err)
	}

	for _, event := range matrix.Events() {
		record := make([]string, 0, len(indicators)+1)
		record = append(record, event)
		for _, indicator := range indicators {
			record = append(record, formatFloat(matrix.Impact(event, indicator), 1))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write matrix row for %s: %w", event, err)
		}
	}

	return nil
}

// WriteScenariosCSV saves one indicator's scenario table
func WriteScenariosCSV(table forecast.ScenarioTable, outputPath string) error {
	file, err := createOutputFile(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"year",
		"base", "base_lower", "base_upper",
		"optimistic", "optimistic_lower", "optimistic_upper",
		"pessimistic", "pessimistic_lower", "pessimistic_upper",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write scenarios header: %w", err)
	}

	for _, p := range table.Points {
		record := []string{
			strconv.Itoa(p.Year),
			formatFloat(p.Base, 2), formatFloat(p.BaseLower, 2), formatFloat(p.BaseUpper, 2),
			formatFloat(p.Optimistic, 2), formatFloat(p.OptimisticLower, 2), formatFloat(p.OptimisticUpper, 2),
			formatFloat(p.Pessimistic, 2), formatFloat(p.PessimisticLower, 2), formatFloat(p.PessimisticUpper, 2),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write scenarios row for %d: %w", p.Year, err)
		}
	}

	return nil
}

// WriteSummaryCSV saves the flattened cross-indicator summary
func WriteSummaryCSV(rows []services.SummaryRow, outputPath string) error {
	file, err := createOutputFile(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Year", "Indicator", "Pillar", "Latest Historical",
		"Base Forecast", "Optimistic Forecast", "Pessimistic Forecast",
		"Base Range", "Growth (Base)",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Year),
			row.Indicator,
			row.Pillar,
			formatFloat(row.LatestHistorical, 1),
			formatFloat(row.BaseForecast, 1),
			formatFloat(row.OptimisticForecast, 1),
			formatFloat(row.PessimisticForecast, 1),
			row.BaseRange,
			row.Growth,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	return nil
}

// WriteValidationCSV saves the back-validation results
func WriteValidationCSV(results []impact.ValidationResult, outputPath string) error {
	file, err := createOutputFile(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"event", "indicator", "actual_change", "predicted_impact", "error", "error_pct", "validation"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write validation header: %w", err)
	}

	for _, r := range results {
		errorPct := ""
		if r.ErrorPct != nil {
			errorPct = formatFloat(*r.ErrorPct, 1)
		}
		record := []string{
			r.Event,
			r.Indicator,
			formatFloat(r.ActualChange, 2),
			formatFloat(r.PredictedImpact, 2),
			formatFloat(r.Error, 2),
			errorPct,
			r.Validation,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write validation row: %w", err)
		}
	}

	return nil
}

// WriteGrowthCSV saves the long-form growth table
func WriteGrowthCSV(rows []scenario.GrowthRow, outputPath string) error {
	file, err := createOutputFile(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"indicator", "scenario", "year", "forecast", "growth_pp", "growth_pct", "cumulative_growth_pp"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write growth header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Indicator,
			row.Scenario,
			strconv.Itoa(row.Year),
			formatFloat(row.Forecast, 2),
			formatFloat(row.GrowthPP, 2),
			formatFloat(row.GrowthPct, 2),
			formatFloat(row.CumulativeGrowth, 2),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write growth row: %w", err)
		}
	}

	return nil
}

// WriteDriversCSV saves the key-driver ranking
func WriteDriversCSV(drivers []scenario.Driver, outputPath string) error {
	file, err := createOutputFile(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"indicator", "event", "impact_pp", "magnitude", "direction"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write drivers header: %w", err)
	}

	for _, d := range drivers {
		record := []string{
			d.Indicator,
			d.Event,
			formatFloat(d.ImpactPP, 1),
			d.Magnitude,
			d.Direction,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write drivers row: %w", err)
		}
	}

	return nil
}

func createOutputFile(outputPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return file, nil
}

// formatFloat formats a value for CSV output with fixed precision
func formatFloat(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}
