// Package forecast fits per-indicator trend baselines, augments them with
// cumulative event effects from the association matrix, and derives
// base/optimistic/pessimistic scenario projections clipped to the valid
// percentage range.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"fincast/internal/association"
	"fincast/internal/dataset"
)

// Contract constants. These are part of the externally observable model
// and must not drift.
const (
	// ConfidenceZ is the 95%-normal band multiplier
	ConfidenceZ = 1.96
	// RampYears is the linear ramp-up of an event's effect in the
	// yearly forecast: zero at the event date, full after two years
	RampYears = 2.0
	// OptimisticMultiplier scales the base scenario up 20%
	OptimisticMultiplier = 1.2
	// PessimisticMultiplier scales the base scenario down 20%
	PessimisticMultiplier = 0.8

	// Valid percentage range for all scenario outputs
	ClipFloor   = 0.0
	ClipCeiling = 100.0

	// daysPerYear converts day deltas to fractional years
	daysPerYear = 365.25
)

// DefaultYears returns the standard forecast horizon
func DefaultYears() []int {
	return []int{2025, 2026, 2027}
}

// Forecaster produces baseline, event-augmented, and scenario forecasts
// for individual indicators.
type Forecaster struct {
	data   *dataset.Dataset
	matrix *association.Matrix
	logger *slog.Logger
}

// New creates a forecaster over the given dataset and association matrix
func New(data *dataset.Dataset, matrix *association.Matrix, logger *slog.Logger) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{data: data, matrix: matrix, logger: logger}
}

// Baseline fits an ordinary least-squares trend on the indicator's yearly
// means and predicts at each target year. The confidence band is a
// symmetric 1.96 x stdev(residuals) around the trend. Returns
// ErrInsufficientData when fewer than two historical years exist.
func (f *Forecaster) Baseline(ctx context.Context, indicator string, years []int) ([]Point, error) {
	series := f.data.YearlySeries(indicator)
	if len(series) < 2 {
		return nil, fmt.Errorf("indicator %q: %w", indicator, ErrInsufficientData)
	}

	slope, intercept := fitTrend(series)

	// Residual spread of the fit over the historical years
	residuals := make([]float64, len(series))
	for i, yv := range series {
		residuals[i] = yv.Value - (slope*float64(yv.Year) + intercept)
	}
	band := ConfidenceZ * stddev(residuals)

	points := make([]Point, len(years))
	for i, year := range years {
		predicted := slope*float64(year) + intercept
		points[i] = Point{
			Year:     year,
			Baseline: predicted,
			Lower:    predicted - band,
			Upper:    predicted + band,
		}
	}

	f.logger.DebugContext(ctx, "fitted baseline trend",
		"indicator", indicator,
		"historical_years", len(series),
		"slope", slope,
		"band", band,
	)

	return points, nil
}

// EventAugmented adds cumulative event effects to the baseline. Each event
// with a nonzero matrix entry contributes impact x min(1, yearsSince/2)
// for target years strictly after the event date. The augmented band is
// built from the spread of the per-year total event effects, a deliberately
// different uncertainty source than the baseline's residuals.
//
// An indicator with no evidenced events gets HasEventSignal=false and a
// series identical to the baseline (including its band): an explicit
// fallback, not a silent zero fill.
func (f *Forecaster) EventAugmented(ctx context.Context, indicator string, years []int) (Augmented, error) {
	baseline, err := f.Baseline(ctx, indicator, years)
	if err != nil {
		return Augmented{}, err
	}

	impacts := f.matrix.ColumnImpacts(indicator)
	if len(impacts) == 0 {
		f.logger.InfoContext(ctx, "no evidenced event impacts, returning baseline",
			"indicator", indicator,
		)
		points := make([]AugmentedPoint, len(baseline))
		for i, p := range baseline {
			points[i] = AugmentedPoint{
				Year:           p.Year,
				Baseline:       p.Baseline,
				EventAugmented: p.Baseline,
				Lower:          p.Lower,
				Upper:          p.Upper,
			}
		}
		return Augmented{Indicator: indicator, HasEventSignal: false, Points: points}, nil
	}

	effects := make([]float64, len(years))
	for i, year := range years {
		effects[i] = f.yearEffect(indicator, impacts, year)
	}
	band := ConfidenceZ * stddev(effects)

	points := make([]AugmentedPoint, len(baseline))
	for i, p := range baseline {
		augmented := p.Baseline + effects[i]
		points[i] = AugmentedPoint{
			Year:           p.Year,
			Baseline:       p.Baseline,
			EventAugmented: augmented,
			Lower:          augmented - band,
			Upper:          augmented + band,
		}
	}

	return Augmented{Indicator: indicator, HasEventSignal: true, Points: points}, nil
}

// yearEffect sums the ramped contributions of all evidenced events at
// January 1st of the target year.
func (f *Forecaster) yearEffect(indicator string, impacts []association.EventImpact, year int) float64 {
	yearDate := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	total := 0.0
	for _, ei := range impacts {
		event, ok := f.data.EventByName(ei.Event)
		if !ok {
			continue
		}
		yearsSince := yearDate.Sub(event.Date).Hours() / 24 / daysPerYear
		if yearsSince <= 0 {
			continue // only events strictly in the past contribute
		}
		total += ei.Impact * math.Min(1, yearsSince/RampYears)
	}
	return total
}

// Scenarios derives the three scenario series from the event-augmented
// forecast: base is the augmented curve itself, optimistic and pessimistic
// scale the center and both band edges by their fixed multipliers. All
// nine columns are clipped to [0,100] independently, so the usual
// optimistic >= base >= pessimistic ordering can collapse where values
// saturate against the ceiling.
func (f *Forecaster) Scenarios(ctx context.Context, indicator string, years []int) (ScenarioTable, error) {
	augmented, err := f.EventAugmented(ctx, indicator, years)
	if err != nil {
		return ScenarioTable{}, err
	}

	points := make([]ScenarioPoint, len(augmented.Points))
	for i, p := range augmented.Points {
		points[i] = ScenarioPoint{
			Year:             p.Year,
			Base:             clip(p.EventAugmented),
			BaseLower:        clip(p.Lower),
			BaseUpper:        clip(p.Upper),
			Optimistic:       clip(p.EventAugmented * OptimisticMultiplier),
			OptimisticLower:  clip(p.Lower * OptimisticMultiplier),
			OptimisticUpper:  clip(p.Upper * OptimisticMultiplier),
			Pessimistic:      clip(p.EventAugmented * PessimisticMultiplier),
			PessimisticLower: clip(p.Lower * PessimisticMultiplier),
			PessimisticUpper: clip(p.Upper * PessimisticMultiplier),
		}
	}

	return ScenarioTable{
		Indicator:      indicator,
		HasEventSignal: augmented.HasEventSignal,
		Points:         points,
	}, nil
}

// fitTrend returns the OLS slope and intercept of value against year
func fitTrend(series []dataset.YearValue) (slope, intercept float64) {
	n := float64(len(series))
	var sumX, sumY, sumXY, sumXX float64
	for _, yv := range series {
		x := float64(yv.Year)
		sumX += x
		sumY += yv.Value
		sumXY += x * yv.Value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		// All observations share one year; flat line through the mean.
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// stddev is the population standard deviation
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

func clip(v float64) float64 {
	return math.Max(ClipFloor, math.Min(ClipCeiling, v))
}
