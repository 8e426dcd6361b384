package association

import (
	"context"
	"log/slog"

	"fincast/internal/dataset"
)

// Default impact values in percentage points, applied when a link carries
// no numeric estimate. These are part of the external model contract.
const (
	ImpactHigh         = 15.0
	ImpactMedium       = 8.0
	ImpactLow          = 3.0
	ImpactUnrecognized = 5.0

	// DefaultLagMonths applies when an (event, indicator) pair has no
	// evidenced lag.
	DefaultLagMonths = 12
)

// DefaultIndicatorMapping maps impact-link indicator codes to the display
// names used throughout the enriched dataset.
func DefaultIndicatorMapping() map[string]string {
	return map[string]string{
		"ACC_OWNERSHIP":       "Account Ownership Rate",
		"ACC_MM_ACCOUNT":      "Mobile Money Account Rate",
		"USG_DIGITAL_PAYMENT": "Digital Payment Usage Rate",
		"ACC_4G_COV":          "4G Population Coverage",
		"AFF_DATA_INCOME":     "Data Affordability Index",
		"USG_P2P_COUNT":       "P2P Transaction Count",
		"GEN_GAP_ACC":         "Account Ownership Gender Gap",
	}
}

// Builder constructs association matrices from an event table and an
// impact-link table. Build is a single pass with no partial state: the
// returned matrix and evidence store are complete and never mutated after.
type Builder struct {
	events []dataset.Event
	links  []dataset.ImpactLink
	logger *slog.Logger
}

// NewBuilder creates a builder over the given event and link tables
func NewBuilder(events []dataset.Event, links []dataset.ImpactLink, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{events: events, links: links, logger: logger}
}

// Build constructs the matrix using the given code-to-name mapping
// (DefaultIndicatorMapping when nil). Links whose event or indicator
// cannot be resolved are skipped: a missing join marks a relationship
// outside the modeled set, not an error. When the same (event, indicator)
// pair appears in multiple links the last one wins.
func (b *Builder) Build(ctx context.Context, mapping map[string]string) *Matrix {
	if mapping == nil {
		mapping = DefaultIndicatorMapping()
	}

	eventsByID := make(map[string]dataset.Event, len(b.events))
	rowOrder := make([]string, 0, len(b.events))
	seen := make(map[string]bool, len(b.events))
	for _, e := range b.events {
		eventsByID[e.RecordID] = e
		if !seen[e.Name] {
			seen[e.Name] = true
			rowOrder = append(rowOrder, e.Name)
		}
	}

	indicators := make([]string, 0, len(mapping))
	mapped := make(map[string]bool, len(mapping))
	for _, name := range mapping {
		if !mapped[name] {
			mapped[name] = true
			indicators = append(indicators, name)
		}
	}

	m := &Matrix{
		events:     rowOrder,
		indicators: indicators,
		cells:      make(map[Key]float64),
		evidence:   make(map[Key]Evidence),
	}

	resolved, skipped := 0, 0
	for _, link := range b.links {
		event, ok := eventsByID[link.ParentID]
		if !ok {
			skipped++
			continue
		}
		indicator, ok := mapping[link.RelatedIndicator]
		if !ok {
			skipped++
			continue
		}

		impact := quantifyImpact(link)
		key := Key{Event: event.Name, Indicator: indicator}
		m.cells[key] = impact
		m.evidence[key] = Evidence{
			ImpactValue:       impact,
			Direction:         link.Direction,
			Magnitude:         link.Magnitude,
			LagMonths:         link.LagMonths,
			EvidenceBasis:     link.EvidenceBasis,
			ComparableCountry: link.ComparableCountry,
			Confidence:        link.Confidence,
		}
		resolved++
	}

	b.logger.InfoContext(ctx, "built association matrix",
		"events", len(rowOrder),
		"indicators", len(indicators),
		"links_resolved", resolved,
		"links_skipped", skipped,
	)

	return m
}

// quantifyImpact converts a link's qualitative assertion into a signed
// percentage-point value. A numeric estimate takes precedence over the
// magnitude class.
func quantifyImpact(link dataset.ImpactLink) float64 {
	var value float64
	if link.Estimate != nil {
		value = *link.Estimate
	} else {
		switch link.Magnitude {
		case dataset.MagnitudeHigh:
			value = ImpactHigh
		case dataset.MagnitudeMedium:
			value = ImpactMedium
		case dataset.MagnitudeLow:
			value = ImpactLow
		default:
			value = ImpactUnrecognized
		}
	}

	// Anything other than an explicit increase counts as a decrease.
	if link.Direction == dataset.DirectionIncrease {
		return value
	}
	return -value
}
