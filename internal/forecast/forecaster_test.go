package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincast/internal/association"
	"fincast/internal/dataset"
)

// linearObs emits one observation per year along value = start + step*(year-from)
func linearObs(indicator string, from, to int, start, step float64) []dataset.Observation {
	var obs []dataset.Observation
	for year := from; year <= to; year++ {
		obs = append(obs, dataset.Observation{
			Indicator: indicator,
			Date:      time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC),
			Value:     start + step*float64(year-from),
		})
	}
	return obs
}

func forecasterFixture(t *testing.T, observations []dataset.Observation, events []dataset.Event, links []dataset.ImpactLink) *Forecaster {
	t.Helper()
	data := &dataset.Dataset{Observations: observations, Events: events}
	matrix := association.NewBuilder(events, links, nil).Build(context.Background(), nil)
	return New(data, matrix, nil)
}

func telebirrAt(date time.Time) []dataset.Event {
	return []dataset.Event{{RecordID: "EV-001", Name: "Telebirr Launch", Date: date}}
}

func ownershipLink(magnitude dataset.Magnitude) []dataset.ImpactLink {
	return []dataset.ImpactLink{{
		ParentID:         "EV-001",
		RelatedIndicator: "ACC_OWNERSHIP",
		Direction:        dataset.DirectionIncrease,
		Magnitude:        magnitude,
		LagMonths:        12,
	}}
}

func TestBaselineLinearTrend(t *testing.T) {
	// Perfectly linear history: slope 5, zero residuals, zero band
	f := forecasterFixture(t, linearObs("Account Ownership Rate", 2018, 2022, 30, 5), nil, nil)

	points, err := f.Baseline(context.Background(), "Account Ownership Rate", []int{2025, 2026, 2027})
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 65.0, points[0].Baseline, 1e-6)
	assert.InDelta(t, 70.0, points[1].Baseline, 1e-6)
	assert.InDelta(t, 75.0, points[2].Baseline, 1e-6)
	assert.InDelta(t, points[0].Baseline, points[0].Lower, 1e-6)
	assert.InDelta(t, points[0].Baseline, points[0].Upper, 1e-6)
}

func TestBaselineInsufficientData(t *testing.T) {
	f := forecasterFixture(t, linearObs("Account Ownership Rate", 2021, 2021, 46, 0), nil, nil)

	_, err := f.Baseline(context.Background(), "Account Ownership Rate", DefaultYears())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestEventAugmentedFullRamp(t *testing.T) {
	// Event four years before the first target year contributes its full
	// impact in every target year.
	f := forecasterFixture(t,
		linearObs("Account Ownership Rate", 2018, 2022, 30, 5),
		telebirrAt(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)),
		ownershipLink(dataset.MagnitudeMedium),
	)

	augmented, err := f.EventAugmented(context.Background(), "Account Ownership Rate", []int{2025, 2026, 2027})
	require.NoError(t, err)
	require.True(t, augmented.HasEventSignal)
	require.Len(t, augmented.Points, 3)

	assert.InDelta(t, 65.0+association.ImpactMedium, augmented.Points[0].EventAugmented, 1e-6)
	assert.InDelta(t, 70.0+association.ImpactMedium, augmented.Points[1].EventAugmented, 1e-6)
	assert.InDelta(t, 75.0+association.ImpactMedium, augmented.Points[2].EventAugmented, 1e-6)
}

func TestEventAugmentedPartialRamp(t *testing.T) {
	// One year after the event the effect is roughly half the impact,
	// two years after it saturates.
	f := forecasterFixture(t,
		linearObs("Account Ownership Rate", 2018, 2022, 30, 5),
		telebirrAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		ownershipLink(dataset.MagnitudeMedium),
	)

	augmented, err := f.EventAugmented(context.Background(), "Account Ownership Rate", []int{2025, 2026})
	require.NoError(t, err)

	effect2025 := augmented.Points[0].EventAugmented - augmented.Points[0].Baseline
	effect2026 := augmented.Points[1].EventAugmented - augmented.Points[1].Baseline
	assert.InDelta(t, association.ImpactMedium/2, effect2025, 0.1)
	assert.InDelta(t, association.ImpactMedium, effect2026, 1e-6)
}

func TestEventAugmentedExcludesFutureEvents(t *testing.T) {
	// An event on the target date itself contributes nothing yet
	f := forecasterFixture(t,
		linearObs("Account Ownership Rate", 2018, 2022, 30, 5),
		telebirrAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		ownershipLink(dataset.MagnitudeHigh),
	)

	augmented, err := f.EventAugmented(context.Background(), "Account Ownership Rate", []int{2025})
	require.NoError(t, err)
	assert.InDelta(t, augmented.Points[0].Baseline, augmented.Points[0].EventAugmented, 1e-6)
}

func TestEventAugmentedFallbackWithoutEvents(t *testing.T) {
	f := forecasterFixture(t, linearObs("Account Ownership Rate", 2018, 2022, 30, 5), nil, nil)

	augmented, err := f.EventAugmented(context.Background(), "Account Ownership Rate", []int{2025, 2026})
	require.NoError(t, err)

	assert.False(t, augmented.HasEventSignal)
	for _, p := range augmented.Points {
		assert.Equal(t, p.Baseline, p.EventAugmented)
	}
}

func TestScenariosMultipliers(t *testing.T) {
	f := forecasterFixture(t,
		linearObs("Account Ownership Rate", 2018, 2022, 30, 5),
		telebirrAt(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)),
		ownershipLink(dataset.MagnitudeMedium),
	)

	table, err := f.Scenarios(context.Background(), "Account Ownership Rate", []int{2025})
	require.NoError(t, err)
	require.Len(t, table.Points, 1)

	p := table.Points[0]
	assert.InDelta(t, 73.0, p.Base, 1e-6)
	assert.InDelta(t, 73.0*OptimisticMultiplier, p.Optimistic, 1e-6)
	assert.InDelta(t, 73.0*PessimisticMultiplier, p.Pessimistic, 1e-6)
}

func TestScenariosClipping(t *testing.T) {
	// Steep history drives the optimistic scenario past 100
	f := forecasterFixture(t, linearObs("Digital Payment Usage Rate", 2018, 2022, 60, 5), nil, nil)

	table, err := f.Scenarios(context.Background(), "Digital Payment Usage Rate", []int{2027})
	require.NoError(t, err)

	p := table.Points[0]
	assert.Equal(t, 100.0, p.Base) // raw trend is 105
	assert.Equal(t, 100.0, p.Optimistic)
	assert.InDelta(t, 105.0*PessimisticMultiplier, p.Pessimistic, 1e-6)
}

func TestFitTrendDegenerate(t *testing.T) {
	// Two observations in the same year: flat line through the mean
	series := []dataset.YearValue{{Year: 2021, Value: 40}, {Year: 2021, Value: 50}}
	slope, intercept := fitTrend(series)
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 45.0, intercept)
}

func TestStddev(t *testing.T) {
	assert.Equal(t, 0.0, stddev(nil))
	assert.InDelta(t, 2.0, stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}
