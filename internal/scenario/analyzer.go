// Package scenario post-processes scenario tables into growth-rate tables,
// key-driver rankings, and a qualitative uncertainty assessment.
package scenario

import (
	"math"
	"sort"

	"fincast/internal/association"
	"fincast/internal/forecast"
)

// Driver magnitude classes by absolute impact in percentage points
const (
	DriverHighThreshold   = 10.0
	DriverMediumThreshold = 5.0
)

// SummaryEntry is one row of the long-form scenario summary
type SummaryEntry struct {
	Year             int     `json:"year"`
	Indicator        string  `json:"indicator"`
	Scenario         string  `json:"scenario"`
	Forecast         float64 `json:"forecast"`
	LowerBound       float64 `json:"lower_bound"`
	UpperBound       float64 `json:"upper_bound"`
	LatestHistorical float64 `json:"latest_historical"`
}

// GrowthRow is one row of the long-form growth table
type GrowthRow struct {
	Indicator        string  `json:"indicator"`
	Scenario         string  `json:"scenario"`
	Year             int     `json:"year"`
	Forecast         float64 `json:"forecast"`
	GrowthPP         float64 `json:"growth_pp"`
	GrowthPct        float64 `json:"growth_pct"`
	CumulativeGrowth float64 `json:"cumulative_growth_pp"`
}

// Driver is one event ranked by its forecast impact on an indicator
type Driver struct {
	Indicator string  `json:"indicator"`
	Event     string  `json:"event"`
	ImpactPP  float64 `json:"impact_pp"`
	Magnitude string  `json:"magnitude"`
	Direction string  `json:"direction"`
}

// Summarize flattens all indicator forecasts into one long-form table,
// one row per (indicator, scenario, year).
func Summarize(results []forecast.IndicatorForecast) []SummaryEntry {
	var entries []SummaryEntry
	for _, result := range results {
		for _, name := range forecast.Scenarios {
			for _, p := range result.Table.Points {
				lower, upper := p.Bounds(name)
				entries = append(entries, SummaryEntry{
					Year:             p.Year,
					Indicator:        result.Indicator,
					Scenario:         name,
					Forecast:         p.Value(name),
					LowerBound:       lower,
					UpperBound:       upper,
					LatestHistorical: result.LatestHistorical,
				})
			}
		}
	}
	return entries
}

// GrowthTable computes growth from the latest historical value to each
// forecast year, per scenario. Growth percent is 0 when the historical
// value is 0; the cumulative column repeats the per-(indicator, scenario)
// sum of growth_pp on every row of that group. Indicators without a
// historical value are omitted.
func GrowthTable(results []forecast.IndicatorForecast) []GrowthRow {
	var rows []GrowthRow
	for _, result := range results {
		if !result.HasHistorical {
			continue
		}
		latest := result.LatestHistorical

		for _, name := range forecast.Scenarios {
			groupStart := len(rows)
			cumulative := 0.0
			for _, p := range result.Table.Points {
				value := p.Value(name)
				growth := value - latest
				growthPct := 0.0
				if latest > 0 {
					growthPct = growth / latest * 100
				}
				cumulative += growth
				rows = append(rows, GrowthRow{
					Indicator: result.Indicator,
					Scenario:  name,
					Year:      p.Year,
					Forecast:  value,
					GrowthPP:  growth,
					GrowthPct: growthPct,
				})
			}
			for i := groupStart; i < len(rows); i++ {
				rows[i].CumulativeGrowth = cumulative
			}
		}
	}
	return rows
}

// KeyDrivers ranks the evidenced events of each indicator by impact,
// descending, and classifies the magnitude of each by absolute value.
func KeyDrivers(matrix *association.Matrix, indicators []string) []Driver {
	var drivers []Driver
	for _, indicator := range indicators {
		impacts := matrix.ColumnImpacts(indicator)
		sort.SliceStable(impacts, func(i, j int) bool {
			return impacts[i].Impact > impacts[j].Impact
		})

		for _, ei := range impacts {
			direction := "Positive"
			if ei.Impact < 0 {
				direction = "Negative"
			}
			drivers = append(drivers, Driver{
				Indicator: indicator,
				Event:     ei.Event,
				ImpactPP:  ei.Impact,
				Magnitude: classifyMagnitude(ei.Impact),
				Direction: direction,
			})
		}
	}
	return drivers
}

func classifyMagnitude(impact float64) string {
	switch abs := math.Abs(impact); {
	case abs >= DriverHighThreshold:
		return "High"
	case abs >= DriverMediumThreshold:
		return "Medium"
	default:
		return "Low"
	}
}

// Uncertainty is the qualitative uncertainty assessment attached to every
// forecast report.
type Uncertainty struct {
	DataQuality      map[string]string `json:"data_quality"`
	ModelUncertainty map[string]string `json:"model_uncertainty"`
	ExternalFactors  map[string]string `json:"external_factors"`
	Recommendations  []string          `json:"recommendations"`
}

// AssessUncertainty returns the standing qualitative assessment of the
// forecast's uncertainty sources.
func AssessUncertainty() Uncertainty {
	return Uncertainty{
		DataQuality: map[string]string{
			"historical_points": "Limited (5 Findex survey points)",
			"confidence":        "Medium",
			"impact":            "Wider confidence intervals",
		},
		ModelUncertainty: map[string]string{
			"trend_assumption":        "Linear continuation",
			"event_impact_validation": "Back-tested against realized pre/post changes",
			"lag_assumption":          "Based on comparable-country evidence",
		},
		ExternalFactors: map[string]string{
			"policy_changes":      "High uncertainty",
			"economic_conditions": "Medium uncertainty",
			"technology_adoption": "Low to medium uncertainty",
		},
		Recommendations: []string{
			"Monitor quarterly infrastructure data",
			"Update with the next survey round results",
			"Track actual vs forecast monthly",
		},
	}
}
