package forecast

import (
	"errors"
)

// ErrInsufficientData marks an indicator whose trend line cannot be fit
// because fewer than two historical years exist. Callers catch it per
// indicator and keep processing the rest of the batch.
var ErrInsufficientData = errors.New("insufficient historical data: need at least two yearly observations")

// Scenario names
const (
	ScenarioBase        = "base"
	ScenarioOptimistic  = "optimistic"
	ScenarioPessimistic = "pessimistic"
)

// Scenarios lists the scenario names in canonical order
var Scenarios = []string{ScenarioBase, ScenarioOptimistic, ScenarioPessimistic}

// Point is one year of the trend baseline with its 95% confidence band
type Point struct {
	Year     int     `json:"year"`
	Baseline float64 `json:"baseline"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// AugmentedPoint is one year of the event-augmented forecast
type AugmentedPoint struct {
	Year           int     `json:"year"`
	Baseline       float64 `json:"baseline"`
	EventAugmented float64 `json:"event_augmented"`
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
}

// Augmented is the event-augmented forecast for one indicator.
// HasEventSignal distinguishes "augmented, with the event signal summing
// to the curve" from "no evidenced events, series equals the baseline" --
// the two are indistinguishable from the numbers alone.
type Augmented struct {
	Indicator      string           `json:"indicator"`
	HasEventSignal bool             `json:"has_event_signal"`
	Points         []AugmentedPoint `json:"points"`
}

// ScenarioPoint is one forecast year across the three scenarios, all
// values clipped to [0,100]
type ScenarioPoint struct {
	Year             int     `json:"year"`
	Base             float64 `json:"base"`
	BaseLower        float64 `json:"base_lower"`
	BaseUpper        float64 `json:"base_upper"`
	Optimistic       float64 `json:"optimistic"`
	OptimisticLower  float64 `json:"optimistic_lower"`
	OptimisticUpper  float64 `json:"optimistic_upper"`
	Pessimistic      float64 `json:"pessimistic"`
	PessimisticLower float64 `json:"pessimistic_lower"`
	PessimisticUpper float64 `json:"pessimistic_upper"`
}

// Value returns the center value for the named scenario
func (p ScenarioPoint) Value(scenario string) float64 {
	switch scenario {
	case ScenarioOptimistic:
		return p.Optimistic
	case ScenarioPessimistic:
		return p.Pessimistic
	default:
		return p.Base
	}
}

// Bounds returns the band edges for the named scenario
func (p ScenarioPoint) Bounds(scenario string) (lower, upper float64) {
	switch scenario {
	case ScenarioOptimistic:
		return p.OptimisticLower, p.OptimisticUpper
	case ScenarioPessimistic:
		return p.PessimisticLower, p.PessimisticUpper
	default:
		return p.BaseLower, p.BaseUpper
	}
}

// ScenarioTable is the full scenario projection for one indicator
type ScenarioTable struct {
	Indicator      string          `json:"indicator"`
	HasEventSignal bool            `json:"has_event_signal"`
	Points         []ScenarioPoint `json:"points"`
}

// PointAt returns the scenario point for a given year
func (t ScenarioTable) PointAt(year int) (ScenarioPoint, bool) {
	for _, p := range t.Points {
		if p.Year == year {
			return p, true
		}
	}
	return ScenarioPoint{}, false
}

// IndicatorForecast bundles one indicator's scenario table with the batch
// metadata consumers need: its pillar label and latest historical value.
type IndicatorForecast struct {
	Indicator        string        `json:"indicator"`
	Pillar           string        `json:"pillar"`
	LatestHistorical float64       `json:"latest_historical"`
	HasHistorical    bool          `json:"has_historical"`
	Table            ScenarioTable `json:"table"`
}
