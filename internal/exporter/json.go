package exporter

import (
	"encoding/json"
	"fmt"

	"fincast/internal/association"
)

// matrixDocument is the JSON shape of the association matrix: nested maps
// keyed by indicator then event, mirroring the columnar CSV layout.
type matrixDocument struct {
	Events     []string                      `json:"events"`
	Indicators []string                      `json:"indicators"`
	Impacts    map[string]map[string]float64 `json:"impacts"`
}

// WriteMatrixJSON saves the association matrix as JSON
func WriteMatrixJSON(matrix *association.Matrix, outputPath string) error {
	doc := matrixDocument{
		Events:     matrix.Events(),
		Indicators: matrix.Indicators(),
		Impacts:    make(map[string]map[string]float64, len(matrix.Indicators())),
	}
	for _, indicator := range doc.Indicators {
		column := make(map[string]float64, len(doc.Events))
		for _, event := range doc.Events {
			column[event] = matrix.Impact(event, indicator)
		}
		doc.Impacts[indicator] = column
	}

	return writeJSONFile(doc, outputPath)
}

// evidenceEntry pairs a cell key with its stored evidence
type evidenceEntry struct {
	Event     string               `json:"event"`
	Indicator string               `json:"indicator"`
	Evidence  association.Evidence `json:"evidence"`
}

// WriteEvidenceJSON saves the evidence store backing every nonzero matrix
// cell, in deterministic key order.
func WriteEvidenceJSON(matrix *association.Matrix, outputPath string) error {
	keys := matrix.SortedKeys()
	entries := make([]evidenceEntry, 0, len(keys))
	for _, key := range keys {
		ev, ok := matrix.Evidence(key.Event, key.Indicator)
		if !ok {
			continue
		}
		entries = append(entries, evidenceEntry{
			Event:     key.Event,
			Indicator: key.Indicator,
			Evidence:  ev,
		})
	}

	return writeJSONFile(entries, outputPath)
}

func writeJSONFile(v interface{}, outputPath string) error {
	file, err := createOutputFile(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode JSON to %s: %w", outputPath, err)
	}
	return nil
}
