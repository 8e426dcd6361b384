package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"fincast/internal/forecast"
	"fincast/internal/services"
)

// Workbook sheet names
const (
	sheetMatrix     = "Association Matrix"
	sheetSummary    = "Forecast Summary"
	sheetValidation = "Validation"
	sheetDrivers    = "Key Drivers"
)

// WriteReportWorkbook saves the full batch report as one Excel workbook
// with the matrix, summary, validation and driver tables on separate
// sheets, plus one scenario sheet per forecast indicator.
func WriteReportWorkbook(report *services.Report, matrixExporter MatrixSheetWriter, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := matrixExporter.writeSheet(f, sheetMatrix); err != nil {
		return fmt.Errorf("write matrix sheet: %w", err)
	}

	if err := writeSummarySheet(f, report.Summary); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	if err := writeValidationSheet(f, report); err != nil {
		return fmt.Errorf("write validation sheet: %w", err)
	}
	if err := writeDriversSheet(f, report); err != nil {
		return fmt.Errorf("write drivers sheet: %w", err)
	}

	for _, result := range report.Forecasts {
		if err := writeScenarioSheet(f, result); err != nil {
			return fmt.Errorf("write scenario sheet for %s: %w", result.Indicator, err)
		}
	}

	// Drop the default sheet excelize creates
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// MatrixSheetWriter renders the association matrix onto a workbook sheet
type MatrixSheetWriter struct {
	Matrix matrixTable
}

// matrixTable is the minimal matrix surface the workbook needs
type matrixTable interface {
	Events() []string
	Indicators() []string
	Impact(event, indicator string) float64
}

// NewMatrixSheetWriter wraps a matrix for workbook export
func NewMatrixSheetWriter(matrix matrixTable) MatrixSheetWriter {
	return MatrixSheetWriter{Matrix: matrix}
}

func (w MatrixSheetWriter) writeSheet(f *excelize.File, sheet string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	indicators := w.Matrix.Indicators()
	header := append([]interface{}{""}, toInterfaces(indicators)...)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, event := range w.Matrix.Events() {
		row := make([]interface{}, 0, len(indicators)+1)
		row = append(row, event)
		for _, indicator := range indicators {
			row = append(row, w.Matrix.Impact(event, indicator))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, rows []services.SummaryRow) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	header := []interface{}{
		"Year", "Indicator", "Pillar", "Latest Historical",
		"Base Forecast", "Optimistic Forecast", "Pessimistic Forecast",
		"Base Range", "Growth (Base)",
	}
	if err := f.SetSheetRow(sheetSummary, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		record := []interface{}{
			row.Year, row.Indicator, row.Pillar, row.LatestHistorical,
			row.BaseForecast, row.OptimisticForecast, row.PessimisticForecast,
			row.BaseRange, row.Growth,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &record); err != nil {
			return err
		}
	}
	return nil
}

func writeValidationSheet(f *excelize.File, report *services.Report) error {
	if _, err := f.NewSheet(sheetValidation); err != nil {
		return err
	}

	header := []interface{}{"Event", "Indicator", "Actual Change", "Predicted Impact", "Error", "Error %", "Validation"}
	if err := f.SetSheetRow(sheetValidation, "A1", &header); err != nil {
		return err
	}

	for i, r := range report.Validation {
		var errorPct interface{}
		if r.ErrorPct != nil {
			errorPct = *r.ErrorPct
		}
		record := []interface{}{
			r.Event, r.Indicator, r.ActualChange, r.PredictedImpact, r.Error, errorPct, r.Validation,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetValidation, cell, &record); err != nil {
			return err
		}
	}

	// Pass rate footer
	cell, err := excelize.CoordinatesToCellName(1, len(report.Validation)+3)
	if err != nil {
		return err
	}
	footer := []interface{}{"Pass Rate", report.PassRate}
	return f.SetSheetRow(sheetValidation, cell, &footer)
}

func writeDriversSheet(f *excelize.File, report *services.Report) error {
	if _, err := f.NewSheet(sheetDrivers); err != nil {
		return err
	}

	header := []interface{}{"Indicator", "Event", "Impact (pp)", "Magnitude", "Direction"}
	if err := f.SetSheetRow(sheetDrivers, "A1", &header); err != nil {
		return err
	}

	for i, d := range report.Drivers {
		record := []interface{}{d.Indicator, d.Event, d.ImpactPP, d.Magnitude, d.Direction}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetDrivers, cell, &record); err != nil {
			return err
		}
	}
	return nil
}

func writeScenarioSheet(f *excelize.File, result forecast.IndicatorForecast) error {
	sheet := sheetNameFor(result.Indicator)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{
		"Year",
		"Base", "Base Lower", "Base Upper",
		"Optimistic", "Optimistic Lower", "Optimistic Upper",
		"Pessimistic", "Pessimistic Lower", "Pessimistic Upper",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, p := range result.Table.Points {
		record := []interface{}{
			p.Year,
			p.Base, p.BaseLower, p.BaseUpper,
			p.Optimistic, p.OptimisticLower, p.OptimisticUpper,
			p.Pessimistic, p.PessimisticLower, p.PessimisticUpper,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &record); err != nil {
			return err
		}
	}
	return nil
}

// sheetNameFor truncates indicator names to Excel's 31-character sheet
// name limit.
func sheetNameFor(indicator string) string {
	if len(indicator) > 31 {
		return indicator[:31]
	}
	return indicator
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
