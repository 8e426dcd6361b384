package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincast/internal/dataset"
)

func TestMilestonesInterpolation(t *testing.T) {
	series := []dataset.YearValue{
		{Year: 2025, Value: 70},
		{Year: 2026, Value: 80},
		{Year: 2027, Value: 90},
	}

	crossings := Milestones(series, []float64{75, 85, 95})
	require.Len(t, crossings, 2) // 95 is never bracketed

	assert.Equal(t, Milestone{Target: 75, Year: 2025.5}, crossings[0])
	assert.Equal(t, Milestone{Target: 85, Year: 2026.5}, crossings[1])
}

func TestMilestonesExactCrossing(t *testing.T) {
	series := []dataset.YearValue{
		{Year: 2025, Value: 70},
		{Year: 2026, Value: 80},
	}

	crossings := Milestones(series, []float64{70, 80})
	require.Len(t, crossings, 2)
	assert.Equal(t, 2025.0, crossings[0].Year)
	assert.Equal(t, 2026.0, crossings[1].Year)
}

func TestMilestonesFlatSegment(t *testing.T) {
	// A flat bracket cannot divide by the value delta; the crossing year
	// is the bracket start.
	series := []dataset.YearValue{
		{Year: 2025, Value: 70},
		{Year: 2026, Value: 70},
	}

	crossings := Milestones(series, []float64{70})
	require.Len(t, crossings, 1)
	assert.Equal(t, 2025.0, crossings[0].Year)
}

func TestMilestonesShortSeries(t *testing.T) {
	assert.Nil(t, Milestones([]dataset.YearValue{{Year: 2025, Value: 70}}, DefaultMilestones()))
	assert.Nil(t, Milestones(nil, DefaultMilestones()))
}

func TestAnalyzeTargetGap(t *testing.T) {
	// Forecast exceeds the 70% target: on track with a negative gap
	gap := AnalyzeTargetGap(49, 74.3, 70)
	assert.Equal(t, 49.0, gap.CurrentValue)
	assert.InDelta(t, -4.3, gap.Gap, 1e-9)
	assert.InDelta(t, 106.14, gap.AchievementPct, 0.01)
	assert.Equal(t, StatusOnTrack, gap.Status)

	gap = AnalyzeTargetGap(49, 55, 70)
	assert.InDelta(t, 15.0, gap.Gap, 1e-9)
	assert.Equal(t, StatusOffTrack, gap.Status)
}

func TestCAGR(t *testing.T) {
	rate, ok := CAGR(50, 100, 7)
	require.True(t, ok)
	assert.InDelta(t, 10.41, rate, 0.01)

	_, ok = CAGR(0, 100, 7)
	assert.False(t, ok)
	_, ok = CAGR(50, 100, 0)
	assert.False(t, ok)
}
