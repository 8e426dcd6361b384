// Package association builds the event-indicator association matrix: a
// dense table of signed impact magnitudes (percentage points) mapping each
// historical event to each tracked indicator, with a parallel evidence
// store carrying the qualitative metadata behind every nonzero cell.
package association

import (
	"sort"

	"fincast/internal/dataset"
)

// Key identifies one (event, indicator) cell. A struct key instead of a
// concatenated string keeps names containing arbitrary characters safe.
type Key struct {
	Event     string `json:"event"`
	Indicator string `json:"indicator"`
}

// Evidence carries the qualitative backing for a matrix cell
type Evidence struct {
	ImpactValue       float64           `json:"impact_value"`
	Direction         dataset.Direction `json:"direction"`
	Magnitude         dataset.Magnitude `json:"magnitude"`
	LagMonths         int               `json:"lag_months"`
	EvidenceBasis     string            `json:"evidence_basis"`
	ComparableCountry string            `json:"comparable_country"`
	Confidence        string            `json:"confidence"`
}

// EventImpact is one nonzero matrix entry for a given indicator column
type EventImpact struct {
	Event  string  `json:"event"`
	Impact float64 `json:"impact"`
}

// ImpactSummary is one row of the flattened nonzero-cell listing
type ImpactSummary struct {
	Event         string            `json:"event"`
	Indicator     string            `json:"indicator"`
	ImpactValue   float64           `json:"impact_value"`
	Direction     string            `json:"direction"`
	Magnitude     dataset.Magnitude `json:"magnitude"`
	LagMonths     int               `json:"lag_months"`
	EvidenceBasis string            `json:"evidence_basis"`
	Confidence    string            `json:"confidence"`
}

// Matrix is the immutable association matrix. A cell value of 0 means "no
// evidenced relationship"; zero-magnitude evidenced relationships are not
// representable, which is part of the upstream model's contract.
type Matrix struct {
	events     []string
	indicators []string
	cells      map[Key]float64
	evidence   map[Key]Evidence
}

// Events returns the row labels (event names) in dataset order
func (m *Matrix) Events() []string {
	out := make([]string, len(m.events))
	copy(out, m.events)
	return out
}

// Indicators returns the column labels (indicator names)
func (m *Matrix) Indicators() []string {
	out := make([]string, len(m.indicators))
	copy(out, m.indicators)
	return out
}

// HasIndicator reports whether the indicator is a column of the matrix
func (m *Matrix) HasIndicator(indicator string) bool {
	for _, name := range m.indicators {
		if name == indicator {
			return true
		}
	}
	return false
}

// Impact returns the signed impact for an (event, indicator) pair,
// defaulting to 0 when no relationship is evidenced
func (m *Matrix) Impact(event, indicator string) float64 {
	return m.cells[Key{Event: event, Indicator: indicator}]
}

// Evidence returns the stored evidence for an (event, indicator) pair
func (m *Matrix) Evidence(event, indicator string) (Evidence, bool) {
	ev, ok := m.evidence[Key{Event: event, Indicator: indicator}]
	return ev, ok
}

// Lag returns the effect onset lag in months for an (event, indicator)
// pair, falling back to the default when the pair carries no evidence.
func (m *Matrix) Lag(event, indicator string) int {
	if ev, ok := m.Evidence(event, indicator); ok {
		return ev.LagMonths
	}
	return DefaultLagMonths
}

// ColumnImpacts returns the nonzero entries of one indicator column in
// event-row order. An empty result means the indicator has no evidenced
// event relationships (or is not a column at all).
func (m *Matrix) ColumnImpacts(indicator string) []EventImpact {
	var impacts []EventImpact
	for _, event := range m.events {
		if impact := m.Impact(event, indicator); impact != 0 {
			impacts = append(impacts, EventImpact{Event: event, Impact: impact})
		}
	}
	return impacts
}

// Summary flattens every nonzero cell into one traceability row,
// ordered by event then indicator.
func (m *Matrix) Summary() []ImpactSummary {
	var rows []ImpactSummary
	for _, event := range m.events {
		for _, indicator := range m.indicators {
			impact := m.Impact(event, indicator)
			if impact == 0 {
				continue
			}

			row := ImpactSummary{
				Event:       event,
				Indicator:   indicator,
				ImpactValue: impact,
				Direction:   "Positive",
				// Fallbacks for cells whose evidence was never stored
				Magnitude:     dataset.MagnitudeMedium,
				LagMonths:     DefaultLagMonths,
				EvidenceBasis: "estimated",
				Confidence:    "medium",
			}
			if impact < 0 {
				row.Direction = "Negative"
			}
			if ev, ok := m.Evidence(event, indicator); ok {
				row.Magnitude = ev.Magnitude
				row.LagMonths = ev.LagMonths
				row.EvidenceBasis = ev.EvidenceBasis
				row.Confidence = ev.Confidence
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// NonZeroCount returns the number of evidenced relationships
func (m *Matrix) NonZeroCount() int {
	count := 0
	for _, impact := range m.cells {
		if impact != 0 {
			count++
		}
	}
	return count
}

// SortedKeys returns all evidenced cell keys in deterministic order,
// used by exporters that need stable output.
func (m *Matrix) SortedKeys() []Key {
	keys := make([]Key, 0, len(m.evidence))
	for key := range m.evidence {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Event == keys[j].Event {
			return keys[i].Indicator < keys[j].Indicator
		}
		return keys[i].Event < keys[j].Event
	})
	return keys
}
