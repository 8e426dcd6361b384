package dataset

import (
	"time"
)

// RecordType distinguishes the two row kinds in the enriched dataset
type RecordType string

const (
	RecordObservation RecordType = "observation"
	RecordEvent       RecordType = "event"
)

// Gender is the disaggregation dimension carried by observations
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOverall Gender = "overall"
	GenderUnknown Gender = "unknown"
)

// Direction indicates whether an event pushes an indicator up or down
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Magnitude is the qualitative size class of an asserted impact
type Magnitude string

const (
	MagnitudeHigh   Magnitude = "high"
	MagnitudeMedium Magnitude = "medium"
	MagnitudeLow    Magnitude = "low"
)

// Observation is a single measured indicator value.
// Values are percentages in [0,100] for rate indicators; counts for
// transaction indicators.
type Observation struct {
	Indicator string    `json:"indicator"`
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Gender    Gender    `json:"gender"`
	Location  string    `json:"location"`
	Source    string    `json:"source"`
}

// IsValid checks that the observation carries the minimum usable fields
func (o Observation) IsValid() bool {
	return o.Indicator != "" && !o.Date.IsZero()
}

// Event is a discrete historical event (product launch, regulation,
// infrastructure milestone). Its Name comes from the enriched dataset's
// "indicator" column -- for event rows that column holds the event's
// display name, not a measured quantity. The overload is part of the
// upstream data contract and is preserved here.
type Event struct {
	RecordID string    `json:"record_id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Source   string    `json:"source"`
}

// IsValid checks that the event can participate in joins and effect curves
func (e Event) IsValid() bool {
	return e.RecordID != "" && e.Name != "" && !e.Date.IsZero()
}

// ImpactLink asserts a quantified relationship between one event and one
// indicator. The estimate is optional; when absent the magnitude class is
// converted to a default value downstream.
type ImpactLink struct {
	ParentID          string    `json:"parent_id"`
	RelatedIndicator  string    `json:"related_indicator"`
	Direction         Direction `json:"impact_direction"`
	Magnitude         Magnitude `json:"impact_magnitude"`
	Estimate          *float64  `json:"impact_estimate,omitempty"`
	LagMonths         int       `json:"lag_months"`
	EvidenceBasis     string    `json:"evidence_basis"`
	ComparableCountry string    `json:"comparable_country"`
	Confidence        string    `json:"confidence"`
}

// IsValid checks that the link can be resolved against an event table
func (l ImpactLink) IsValid() bool {
	return l.ParentID != "" && l.RelatedIndicator != ""
}

// YearValue is one point of a yearly-aggregated indicator series
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}
