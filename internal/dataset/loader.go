package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted in the enriched dataset. Upstream exports use
// ISO dates; a few older extracts carry full timestamps.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// LoadEnriched reads the enriched observation/event CSV and splits it into
// the two typed tables. Rows with an unknown record type, an unparseable
// date, or a missing indicator are skipped rather than failing the load.
func LoadEnriched(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open enriched dataset: %w", err)
	}
	defer file.Close()

	ds, err := ReadEnriched(file)
	if err != nil {
		return nil, fmt.Errorf("read enriched dataset %s: %w", path, err)
	}
	return ds, nil
}

// ReadEnriched parses enriched records from any reader
func ReadEnriched(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := columnIndex(header)

	required := []string{"record_type", "indicator", "observation_date"}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	ds := &Dataset{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		date, err := parseDate(field(record, cols, "observation_date"))
		if err != nil {
			continue // skip rows with unparseable dates
		}
		indicator := field(record, cols, "indicator")
		if indicator == "" {
			continue
		}

		switch RecordType(field(record, cols, "record_type")) {
		case RecordObservation:
			value, err := strconv.ParseFloat(field(record, cols, "value_numeric"), 64)
			if err != nil {
				continue
			}
			ds.Observations = append(ds.Observations, Observation{
				Indicator: indicator,
				Date:      date,
				Value:     value,
				Gender:    parseGender(field(record, cols, "gender")),
				Location:  field(record, cols, "location"),
				Source:    field(record, cols, "source_name"),
			})
		case RecordEvent:
			ds.Events = append(ds.Events, Event{
				RecordID: field(record, cols, "record_id"),
				Name:     indicator,
				Date:     date,
				Category: field(record, cols, "category"),
				Source:   field(record, cols, "source_name"),
			})
		}
	}

	return ds, nil
}

// LoadImpactLinks reads the event-to-indicator impact link CSV
func LoadImpactLinks(path string) ([]ImpactLink, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open impact links: %w", err)
	}
	defer file.Close()

	links, err := ReadImpactLinks(file)
	if err != nil {
		return nil, fmt.Errorf("read impact links %s: %w", path, err)
	}
	return links, nil
}

// ReadImpactLinks parses impact links from any reader
func ReadImpactLinks(r io.Reader) ([]ImpactLink, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := columnIndex(header)

	for _, name := range []string{"parent_id", "related_indicator"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var links []ImpactLink
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		link := ImpactLink{
			ParentID:          field(record, cols, "parent_id"),
			RelatedIndicator:  field(record, cols, "related_indicator"),
			Direction:         Direction(field(record, cols, "impact_direction")),
			Magnitude:         Magnitude(field(record, cols, "impact_magnitude")),
			LagMonths:         defaultLagMonths,
			EvidenceBasis:     field(record, cols, "evidence_basis"),
			ComparableCountry: field(record, cols, "comparable_country"),
			Confidence:        field(record, cols, "confidence"),
		}
		if !link.IsValid() {
			continue
		}

		if raw := field(record, cols, "impact_estimate"); raw != "" {
			if estimate, err := strconv.ParseFloat(raw, 64); err == nil {
				link.Estimate = &estimate
			}
		}
		if raw := field(record, cols, "lag_months"); raw != "" {
			if lag, err := strconv.Atoi(raw); err == nil && lag >= 0 {
				link.LagMonths = lag
			}
		}

		links = append(links, link)
	}

	return links, nil
}

// defaultLagMonths applies when a link row leaves the lag column blank
const defaultLagMonths = 12

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return cols
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}

func parseGender(raw string) Gender {
	switch Gender(strings.ToLower(raw)) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	case GenderOverall:
		return GenderOverall
	default:
		return GenderUnknown
	}
}
