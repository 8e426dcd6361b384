package impact

import (
	"context"
	"math"
)

// Validation outcome labels
const (
	ValidationPass = "PASS"
	ValidationFail = "FAIL"
)

// PassThresholdPct is the error percentage below which a predicted impact
// is considered validated against the realized change.
const PassThresholdPct = 50.0

// ValidationResult compares one predicted impact with the realized
// pre/post-event change of the indicator. ErrorPct is nil when the
// actual change is zero: the relative error is undefined there, and a
// nil keeps the result JSON-safe where an infinity would not be.
type ValidationResult struct {
	Event           string   `json:"event"`
	Indicator       string   `json:"indicator"`
	ActualChange    float64  `json:"actual_change"`
	PredictedImpact float64  `json:"predicted_impact"`
	Error           float64  `json:"error"`
	ErrorPct        *float64 `json:"error_pct,omitempty"`
	Validation      string   `json:"validation"`
}

// ValidateHistoricalImpacts back-tests the impact model for the given
// events and indicators. The actual change is the mean of the first
// observed post-event year minus the mean of the last observed pre-event
// year. Pairs lacking either side are skipped, not failed; a zero actual
// change cannot be scored and fails with no error percentage.
func (m *Modeler) ValidateHistoricalImpacts(ctx context.Context, events, indicators []string) []ValidationResult {
	var results []ValidationResult

	for _, eventName := range events {
		event, ok := m.data.EventByName(eventName)
		if !ok {
			continue
		}

		for _, indicator := range indicators {
			actual, ok := m.actualChange(event.Date.Year(), indicator)
			if !ok {
				m.logger.DebugContext(ctx, "validation skipped: no pre/post observation years",
					"event", eventName,
					"indicator", indicator,
				)
				continue
			}

			predicted := m.matrix.Impact(eventName, indicator)
			absErr := math.Abs(predicted - actual)

			result := ValidationResult{
				Event:           eventName,
				Indicator:       indicator,
				ActualChange:    actual,
				PredictedImpact: predicted,
				Error:           absErr,
			}
			if actual == 0 {
				result.Validation = ValidationFail
			} else {
				pct := absErr / math.Abs(actual) * 100
				result.ErrorPct = &pct
				if pct < PassThresholdPct {
					result.Validation = ValidationPass
				} else {
					result.Validation = ValidationFail
				}
			}

			results = append(results, result)
		}
	}

	return results
}

// PassRate returns the percentage of results marked PASS, and 0 for an
// empty result set.
func PassRate(results []ValidationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	passed := 0
	for _, r := range results {
		if r.Validation == ValidationPass {
			passed++
		}
	}
	return float64(passed) / float64(len(results)) * 100
}

// actualChange computes the realized indicator change around an event
// year: mean(first post-event year) - mean(last pre-event year). The
// second return is false when either side has no observed year.
func (m *Modeler) actualChange(eventYear int, indicator string) (float64, bool) {
	series := m.data.YearlySeries(indicator)
	if len(series) < 2 {
		return 0, false
	}

	var pre, post *float64
	for i := range series {
		yv := series[i]
		switch {
		case yv.Year < eventYear:
			pre = &series[i].Value // ascending order: ends at the last pre-event year
		case yv.Year > eventYear:
			if post == nil {
				post = &series[i].Value
			}
		}
	}

	if pre == nil || post == nil {
		return 0, false
	}
	return *post - *pre, true
}
