package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincast/internal/association"
	"fincast/internal/dataset"
	"fincast/internal/forecast"
)

func sampleForecast() forecast.IndicatorForecast {
	return forecast.IndicatorForecast{
		Indicator:        "Account Ownership Rate",
		Pillar:           "Access",
		LatestHistorical: 49,
		HasHistorical:    true,
		Table: forecast.ScenarioTable{
			Indicator:      "Account Ownership Rate",
			HasEventSignal: true,
			Points: []forecast.ScenarioPoint{
				{
					Year: 2025,
					Base: 60, BaseLower: 55, BaseUpper: 65,
					Optimistic: 72, OptimisticLower: 66, OptimisticUpper: 78,
					Pessimistic: 48, PessimisticLower: 44, PessimisticUpper: 52,
				},
				{
					Year: 2026,
					Base: 65, BaseLower: 60, BaseUpper: 70,
					Optimistic: 78, OptimisticLower: 72, OptimisticUpper: 84,
					Pessimistic: 52, PessimisticLower: 48, PessimisticUpper: 56,
				},
			},
		},
	}
}

func TestSummarize(t *testing.T) {
	entries := Summarize([]forecast.IndicatorForecast{sampleForecast()})
	require.Len(t, entries, 6) // 3 scenarios x 2 years

	assert.Equal(t, forecast.ScenarioBase, entries[0].Scenario)
	assert.Equal(t, 60.0, entries[0].Forecast)
	assert.Equal(t, 55.0, entries[0].LowerBound)
	assert.Equal(t, 49.0, entries[0].LatestHistorical)

	assert.Equal(t, forecast.ScenarioOptimistic, entries[2].Scenario)
	assert.Equal(t, 72.0, entries[2].Forecast)
	assert.Equal(t, forecast.ScenarioPessimistic, entries[4].Scenario)
}

func TestGrowthTable(t *testing.T) {
	rows := GrowthTable([]forecast.IndicatorForecast{sampleForecast()})
	require.Len(t, rows, 6)

	base2025 := rows[0]
	assert.Equal(t, forecast.ScenarioBase, base2025.Scenario)
	assert.InDelta(t, 11.0, base2025.GrowthPP, 1e-9)
	assert.InDelta(t, 11.0/49*100, base2025.GrowthPct, 1e-9)

	// Cumulative growth is the group sum, repeated on every group row
	assert.InDelta(t, 11.0+16.0, rows[0].CumulativeGrowth, 1e-9)
	assert.InDelta(t, 11.0+16.0, rows[1].CumulativeGrowth, 1e-9)
	assert.InDelta(t, 23.0+29.0, rows[2].CumulativeGrowth, 1e-9) // optimistic group
}

func TestGrowthTableZeroHistorical(t *testing.T) {
	result := sampleForecast()
	result.LatestHistorical = 0

	rows := GrowthTable([]forecast.IndicatorForecast{result})
	require.NotEmpty(t, rows)
	assert.Equal(t, 60.0, rows[0].GrowthPP)
	assert.Equal(t, 0.0, rows[0].GrowthPct) // percent growth undefined from zero
}

func TestGrowthTableOmitsMissingHistory(t *testing.T) {
	result := sampleForecast()
	result.HasHistorical = false
	assert.Empty(t, GrowthTable([]forecast.IndicatorForecast{result}))
}

func TestKeyDrivers(t *testing.T) {
	events := []dataset.Event{
		{RecordID: "EV-001", Name: "Telebirr Launch", Date: time.Date(2021, 5, 11, 0, 0, 0, 0, time.UTC)},
		{RecordID: "EV-002", Name: "M-Pesa Ethiopia Launch", Date: time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)},
		{RecordID: "EV-003", Name: "Fayda Digital ID Rollout", Date: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	links := []dataset.ImpactLink{
		{ParentID: "EV-001", RelatedIndicator: "ACC_OWNERSHIP", Direction: dataset.DirectionIncrease, Magnitude: dataset.MagnitudeMedium},
		{ParentID: "EV-002", RelatedIndicator: "ACC_OWNERSHIP", Direction: dataset.DirectionIncrease, Magnitude: dataset.MagnitudeHigh},
		{ParentID: "EV-003", RelatedIndicator: "ACC_OWNERSHIP", Direction: dataset.DirectionDecrease, Magnitude: dataset.MagnitudeLow},
	}
	matrix := association.NewBuilder(events, links, nil).Build(context.Background(), nil)

	drivers := KeyDrivers(matrix, []string{"Account Ownership Rate"})
	require.Len(t, drivers, 3)

	// Sorted by signed impact, descending
	assert.Equal(t, "M-Pesa Ethiopia Launch", drivers[0].Event)
	assert.Equal(t, "High", drivers[0].Magnitude)
	assert.Equal(t, "Positive", drivers[0].Direction)

	assert.Equal(t, "Telebirr Launch", drivers[1].Event)
	assert.Equal(t, "Medium", drivers[1].Magnitude)

	assert.Equal(t, "Fayda Digital ID Rollout", drivers[2].Event)
	assert.Equal(t, "Low", drivers[2].Magnitude)
	assert.Equal(t, "Negative", drivers[2].Direction)
}

func TestClassifyMagnitude(t *testing.T) {
	assert.Equal(t, "High", classifyMagnitude(15))
	assert.Equal(t, "High", classifyMagnitude(-12))
	assert.Equal(t, "Medium", classifyMagnitude(8))
	assert.Equal(t, "Low", classifyMagnitude(3))
}

func TestAssessUncertainty(t *testing.T) {
	u := AssessUncertainty()
	assert.NotEmpty(t, u.DataQuality)
	assert.NotEmpty(t, u.ModelUncertainty)
	assert.NotEmpty(t, u.ExternalFactors)
	assert.NotEmpty(t, u.Recommendations)
}
