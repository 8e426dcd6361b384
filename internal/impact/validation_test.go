package impact

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincast/internal/association"
	"fincast/internal/dataset"
)

func yearlyObs(indicator string, year int, value float64) dataset.Observation {
	return dataset.Observation{
		Indicator: indicator,
		Date:      time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC),
		Value:     value,
	}
}

func validationFixture(t *testing.T, observations []dataset.Observation) *Modeler {
	t.Helper()

	data := &dataset.Dataset{
		Observations: observations,
		Events: []dataset.Event{
			{RecordID: "EV-001", Name: "Telebirr Launch", Date: time.Date(2021, 5, 11, 0, 0, 0, 0, time.UTC)},
		},
	}
	links := []dataset.ImpactLink{{
		ParentID:         "EV-001",
		RelatedIndicator: "ACC_OWNERSHIP",
		Direction:        dataset.DirectionIncrease,
		Magnitude:        dataset.MagnitudeHigh, // predicted +15pp
		LagMonths:        12,
	}}
	matrix := association.NewBuilder(data.Events, links, nil).Build(context.Background(), nil)
	return NewModeler(data, matrix, nil)
}

func TestValidateHistoricalImpactsPass(t *testing.T) {
	// Last pre-event year 2020 at 35, first post-event year 2022 at 46:
	// actual change +11 against predicted +15 is a 36.4% error.
	m := validationFixture(t, []dataset.Observation{
		yearlyObs("Account Ownership Rate", 2017, 30),
		yearlyObs("Account Ownership Rate", 2020, 35),
		yearlyObs("Account Ownership Rate", 2022, 46),
	})

	results := m.ValidateHistoricalImpacts(context.Background(),
		[]string{"Telebirr Launch"}, []string{"Account Ownership Rate"})
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 11.0, r.ActualChange)
	assert.Equal(t, 15.0, r.PredictedImpact)
	assert.Equal(t, 4.0, r.Error)
	require.NotNil(t, r.ErrorPct)
	assert.InDelta(t, 36.36, *r.ErrorPct, 0.01)
	assert.Equal(t, ValidationPass, r.Validation)
}

func TestValidateHistoricalImpactsFail(t *testing.T) {
	// Actual change +5 against predicted +15 is a 200% error
	m := validationFixture(t, []dataset.Observation{
		yearlyObs("Account Ownership Rate", 2020, 35),
		yearlyObs("Account Ownership Rate", 2022, 40),
	})

	results := m.ValidateHistoricalImpacts(context.Background(),
		[]string{"Telebirr Launch"}, []string{"Account Ownership Rate"})
	require.Len(t, results, 1)

	require.NotNil(t, results[0].ErrorPct)
	assert.InDelta(t, 200.0, *results[0].ErrorPct, 0.01)
	assert.Equal(t, ValidationFail, results[0].Validation)
}

func TestValidateHistoricalImpactsZeroActualChange(t *testing.T) {
	m := validationFixture(t, []dataset.Observation{
		yearlyObs("Account Ownership Rate", 2020, 35),
		yearlyObs("Account Ownership Rate", 2022, 35),
	})

	results := m.ValidateHistoricalImpacts(context.Background(),
		[]string{"Telebirr Launch"}, []string{"Account Ownership Rate"})
	require.Len(t, results, 1)

	assert.Nil(t, results[0].ErrorPct) // relative error undefined
	assert.Equal(t, ValidationFail, results[0].Validation)

	// Unscorable rows must stay JSON-encodable
	raw, err := json.Marshal(results)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "error_pct")
}

func TestValidateHistoricalImpactsSkipsMissingSides(t *testing.T) {
	// No post-event observations at all
	m := validationFixture(t, []dataset.Observation{
		yearlyObs("Account Ownership Rate", 2017, 30),
		yearlyObs("Account Ownership Rate", 2020, 35),
	})

	results := m.ValidateHistoricalImpacts(context.Background(),
		[]string{"Telebirr Launch"}, []string{"Account Ownership Rate"})
	assert.Empty(t, results)

	// Unknown events are skipped too
	results = m.ValidateHistoricalImpacts(context.Background(),
		[]string{"No Such Event"}, []string{"Account Ownership Rate"})
	assert.Empty(t, results)
}

func TestPassRate(t *testing.T) {
	assert.Equal(t, 0.0, PassRate(nil))

	results := []ValidationResult{
		{Validation: ValidationPass},
		{Validation: ValidationFail},
		{Validation: ValidationPass},
		{Validation: ValidationPass},
	}
	assert.Equal(t, 75.0, PassRate(results))
}
