package impact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincast/internal/association"
	"fincast/internal/dataset"
)

func modelerFixture(t *testing.T, links []dataset.ImpactLink) (*Modeler, *dataset.Dataset) {
	t.Helper()

	data := &dataset.Dataset{
		Events: []dataset.Event{
			{RecordID: "EV-001", Name: "Telebirr Launch", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	matrix := association.NewBuilder(data.Events, links, nil).Build(context.Background(), nil)
	return NewModeler(data, matrix, nil), data
}

func stepLink(lagMonths int) dataset.ImpactLink {
	return dataset.ImpactLink{
		ParentID:         "EV-001",
		RelatedIndicator: "ACC_OWNERSHIP",
		Direction:        dataset.DirectionIncrease,
		Magnitude:        dataset.MagnitudeHigh,
		LagMonths:        lagMonths,
	}
}

func TestModelEventEffectStep(t *testing.T) {
	m, _ := modelerFixture(t, []dataset.ImpactLink{stepLink(12)})

	curve, err := m.ModelEventEffect("Telebirr Launch", "Account Ownership Rate", EffectStep)
	require.NoError(t, err)

	// Window is 2011-01 through 2027-12 inclusive
	assert.Len(t, curve.Values, 204)

	// Event 2020-01 plus 12-month lag puts the onset at 2021-01
	onset := (2021-2011)*12 + 0
	assert.Equal(t, 0.0, curve.Values[onset-1])
	assert.Equal(t, association.ImpactHigh, curve.Values[onset])
	assert.Equal(t, association.ImpactHigh, curve.Values[len(curve.Values)-1])
}

func TestModelEventEffectGradual(t *testing.T) {
	m, _ := modelerFixture(t, []dataset.ImpactLink{stepLink(12)})

	curve, err := m.ModelEventEffect("Telebirr Launch", "Account Ownership Rate", EffectGradual)
	require.NoError(t, err)

	onset := (2021 - 2011) * 12
	assert.InDelta(t, association.ImpactHigh/12, curve.Values[onset], 1e-9)
	assert.InDelta(t, association.ImpactHigh*6/12, curve.Values[onset+5], 1e-9)
	assert.InDelta(t, association.ImpactHigh, curve.Values[onset+11], 1e-9)
	assert.InDelta(t, association.ImpactHigh, curve.Values[onset+12], 1e-9) // holds after the ramp
}

func TestModelEventEffectPulse(t *testing.T) {
	m, _ := modelerFixture(t, []dataset.ImpactLink{stepLink(12)})

	curve, err := m.ModelEventEffect("Telebirr Launch", "Account Ownership Rate", EffectPulse)
	require.NoError(t, err)

	onset := (2021 - 2011) * 12
	assert.Equal(t, 0.0, curve.Values[onset-1])
	assert.Equal(t, association.ImpactHigh, curve.Values[onset])
	assert.Equal(t, association.ImpactHigh, curve.Values[onset+11])
	assert.Equal(t, 0.0, curve.Values[onset+12]) // pulse decays after twelve months
}

func TestModelEventEffectUnknowns(t *testing.T) {
	m, _ := modelerFixture(t, []dataset.ImpactLink{stepLink(12)})

	_, err := m.ModelEventEffect("No Such Event", "Account Ownership Rate", EffectStep)
	assert.Error(t, err)

	_, err = m.ModelEventEffect("Telebirr Launch", "Account Ownership Rate", EffectType("spike"))
	assert.Error(t, err)
}

func TestCurveAt(t *testing.T) {
	m, _ := modelerFixture(t, []dataset.ImpactLink{stepLink(12)})

	curve, err := m.ModelEventEffect("Telebirr Launch", "Account Ownership Rate", EffectStep)
	require.NoError(t, err)

	assert.Equal(t, 0.0, curve.At(time.Date(2020, 12, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, association.ImpactHigh, curve.At(time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0.0, curve.At(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))) // outside the window
	assert.Equal(t, time.Date(2027, 12, 1, 0, 0, 0, 0, time.UTC), curve.End())
}

func TestCumulativeEffect(t *testing.T) {
	links := []dataset.ImpactLink{
		stepLink(12),
		{
			ParentID:         "EV-001",
			RelatedIndicator: "ACC_MM_ACCOUNT",
			Direction:        dataset.DirectionIncrease,
			Magnitude:        dataset.MagnitudeLow,
			LagMonths:        12,
		},
	}
	m, _ := modelerFixture(t, links)

	total, err := m.CumulativeEffect(context.Background())
	require.NoError(t, err)

	// After both ramps complete, the curve carries the sum of both impacts
	last := total.Values[len(total.Values)-1]
	assert.InDelta(t, association.ImpactHigh+association.ImpactLow, last, 1e-9)
}
