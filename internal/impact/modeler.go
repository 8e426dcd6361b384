// Package impact turns scalar association-matrix impacts into time-varying
// effect curves and back-validates predicted impacts against realized
// pre/post-event changes in the observed data.
package impact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fincast/internal/association"
	"fincast/internal/dataset"
)

// EffectType selects the shape of an event's effect curve
type EffectType string

const (
	// EffectStep applies the full impact abruptly once the lag elapses
	EffectStep EffectType = "step"
	// EffectGradual ramps linearly to the full impact over twelve months
	// after the lag, then holds indefinitely
	EffectGradual EffectType = "gradual"
	// EffectPulse applies the full impact for twelve months after the
	// lag, then returns to zero
	EffectPulse EffectType = "pulse"
)

// rampMonths is the gradual/pulse window length
const rampMonths = 12

// Analysis window bounds. Effect curves are monthly series with finite
// support over this fixed range.
var (
	windowStart = time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2027, time.December, 1, 0, 0, 0, 0, time.UTC)
)

// Curve is a monthly effect series over the analysis window. Index 0 is
// the first month of the window; values are instantaneous contributions
// in percentage points.
type Curve struct {
	Start  time.Time `json:"start"`
	Values []float64 `json:"values"`
}

// At returns the effect contribution at the month containing t, and 0
// outside the analysis window.
func (c Curve) At(t time.Time) float64 {
	idx := monthsBetween(c.Start, t)
	if idx < 0 || idx >= len(c.Values) {
		return 0
	}
	return c.Values[idx]
}

// End returns the first month of the last curve point
func (c Curve) End() time.Time {
	return c.Start.AddDate(0, len(c.Values)-1, 0)
}

// Modeler derives effect curves and validation results from an association
// matrix and the normalized dataset.
type Modeler struct {
	data   *dataset.Dataset
	matrix *association.Matrix
	logger *slog.Logger
}

// NewModeler creates a modeler over the given dataset and matrix
func NewModeler(data *dataset.Dataset, matrix *association.Matrix, logger *slog.Logger) *Modeler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Modeler{data: data, matrix: matrix, logger: logger}
}

// ModelEventEffect produces the effect curve for one (event, indicator)
// pair. The impact magnitude comes from the association matrix and the
// onset lag from the pair's evidence (default 12 months).
func (m *Modeler) ModelEventEffect(eventName, indicator string, effectType EffectType) (Curve, error) {
	event, ok := m.data.EventByName(eventName)
	if !ok {
		return Curve{}, fmt.Errorf("unknown event %q", eventName)
	}

	impact := m.matrix.Impact(eventName, indicator)
	lag := m.matrix.Lag(eventName, indicator)
	onset := event.Date.AddDate(0, lag, 0)

	months := monthsBetween(windowStart, windowEnd) + 1
	curve := Curve{Start: windowStart, Values: make([]float64, months)}
	onsetIdx := monthsBetween(windowStart, onset)

	switch effectType {
	case EffectStep:
		for i := maxInt(onsetIdx, 0); i < months; i++ {
			curve.Values[i] = impact
		}
	case EffectGradual:
		for i := maxInt(onsetIdx, 0); i < months; i++ {
			elapsed := i - onsetIdx
			if elapsed < rampMonths {
				curve.Values[i] = impact * float64(elapsed+1) / float64(rampMonths)
			} else {
				curve.Values[i] = impact
			}
		}
	case EffectPulse:
		for i := maxInt(onsetIdx, 0); i < months && i < onsetIdx+rampMonths; i++ {
			curve.Values[i] = impact
		}
	default:
		return Curve{}, fmt.Errorf("unknown effect type %q", effectType)
	}

	return curve, nil
}

// CumulativeEffect sums the gradual effect curves of every evidenced
// (event, indicator) pair into one monthly series.
func (m *Modeler) CumulativeEffect(ctx context.Context) (Curve, error) {
	months := monthsBetween(windowStart, windowEnd) + 1
	total := Curve{Start: windowStart, Values: make([]float64, months)}

	for _, event := range m.matrix.Events() {
		for _, indicator := range m.matrix.Indicators() {
			if m.matrix.Impact(event, indicator) == 0 {
				continue
			}
			curve, err := m.ModelEventEffect(event, indicator, EffectGradual)
			if err != nil {
				return Curve{}, fmt.Errorf("model effect for %s on %s: %w", event, indicator, err)
			}
			for i := range total.Values {
				total.Values[i] += curve.Values[i]
			}
		}
	}

	m.logger.DebugContext(ctx, "computed cumulative effect curve",
		"months", months,
		"relationships", m.matrix.NonZeroCount(),
	)
	return total, nil
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
