// Package target evaluates forecast curves against policy milestones and
// the fixed NFIS-II account-ownership target.
package target

import (
	"math"

	"fincast/internal/dataset"
)

// NFIS-II policy benchmark: 70% account ownership by 2025
const (
	NFISTargetValue = 70.0
	NFISTargetYear  = 2025
)

// Status labels for target-gap analysis
const (
	StatusOnTrack  = "On Track"
	StatusOffTrack = "Off Track"
)

// DefaultMilestones are the standard account-ownership milestones
func DefaultMilestones() []float64 {
	return []float64{50, 60, 70, 80, 90}
}

// Milestone is one interpolated target crossing
type Milestone struct {
	Target float64 `json:"target"`
	Year   float64 `json:"year"`
}

// Milestones scans consecutive year pairs of a forecast series for the
// first bracket where value[i] <= target <= value[i+1] and linearly
// interpolates the fractional crossing year, rounded to 0.1. Targets the
// series never brackets are omitted.
func Milestones(series []dataset.YearValue, targets []float64) []Milestone {
	if len(series) < 2 {
		return nil
	}

	var crossings []Milestone
	for _, target := range targets {
		for i := 0; i < len(series)-1; i++ {
			v1, v2 := series[i].Value, series[i+1].Value
			if v1 <= target && target <= v2 {
				year := float64(series[i].Year)
				if v2 != v1 {
					fraction := (target - v1) / (v2 - v1)
					year += fraction * float64(series[i+1].Year-series[i].Year)
				}
				crossings = append(crossings, Milestone{
					Target: target,
					Year:   math.Round(year*10) / 10,
				})
				break
			}
		}
	}
	return crossings
}

// GapAnalysis reports progress against a fixed policy target
type GapAnalysis struct {
	CurrentValue   float64 `json:"current_value"`
	Forecast       float64 `json:"forecast"`
	Target         float64 `json:"target"`
	Gap            float64 `json:"gap"`
	AchievementPct float64 `json:"achievement_pct"`
	Status         string  `json:"status"`
}

// AnalyzeTargetGap computes the gap between a forecast value and a policy
// target. Gap is target minus forecast, so a non-positive gap means the
// target is met.
func AnalyzeTargetGap(current, forecast, target float64) GapAnalysis {
	gap := target - forecast
	status := StatusOffTrack
	if gap <= 0 {
		status = StatusOnTrack
	}
	return GapAnalysis{
		CurrentValue:   current,
		Forecast:       forecast,
		Target:         target,
		Gap:            gap,
		AchievementPct: forecast / target * 100,
		Status:         status,
	}
}

// CAGR returns the compound annual growth rate in percent between two
// values over the given number of years. The second return is false when
// the rate is undefined (non-positive start or years).
func CAGR(start, end float64, years int) (float64, bool) {
	if start <= 0 || years <= 0 {
		return 0, false
	}
	return (math.Pow(end/start, 1/float64(years)) - 1) * 100, true
}
