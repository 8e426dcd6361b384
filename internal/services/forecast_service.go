// Package services orchestrates the batch forecasting pipeline across all
// configured indicators and assembles the report consumed by the CLI and
// the HTTP API.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fincast/internal/association"
	"fincast/internal/dataset"
	"fincast/internal/forecast"
	"fincast/internal/impact"
	"fincast/internal/scenario"
	"fincast/internal/target"
)

// KeyIndicator pairs a forecastable indicator with its NFIS pillar label
type KeyIndicator struct {
	Name   string `json:"name"`
	Pillar string `json:"pillar"`
}

// DefaultKeyIndicators returns the indicators forecast by the batch run
func DefaultKeyIndicators() []KeyIndicator {
	return []KeyIndicator{
		{Name: "Account Ownership Rate", Pillar: "Access"},
		{Name: "Mobile Money Account Rate", Pillar: "Access"},
		{Name: "Digital Payment Usage Rate", Pillar: "Usage"},
	}
}

// DefaultValidationEvents returns the major events with enough observed
// history to back-test the impact model.
func DefaultValidationEvents() []string {
	return []string{"Telebirr Launch", "M-Pesa Ethiopia Launch"}
}

// DefaultValidationIndicators returns the indicators used for back-testing
func DefaultValidationIndicators() []string {
	return []string{"Account Ownership Rate", "Mobile Money Account Rate"}
}

// SummaryRow is one row of the flattened cross-indicator summary export
type SummaryRow struct {
	Year                int     `json:"year"`
	Indicator           string  `json:"indicator"`
	Pillar              string  `json:"pillar"`
	LatestHistorical    float64 `json:"latest_historical"`
	BaseForecast        float64 `json:"base_forecast"`
	OptimisticForecast  float64 `json:"optimistic_forecast"`
	PessimisticForecast float64 `json:"pessimistic_forecast"`
	BaseRange           string  `json:"base_range"`
	Growth              string  `json:"growth"`
}

// Failure marks one indicator the batch could not forecast
type Failure struct {
	Indicator string `json:"indicator"`
	Reason    string `json:"reason"`
}

// Report is the complete output of one batch forecasting run
type Report struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	Years       []int                       `json:"years"`
	Forecasts   []forecast.IndicatorForecast `json:"forecasts"`
	Failures    []Failure                   `json:"failures"`
	Summary     []SummaryRow                `json:"summary"`
	Growth      []scenario.GrowthRow        `json:"growth"`
	Drivers     []scenario.Driver           `json:"drivers"`
	Validation  []impact.ValidationResult   `json:"validation"`
	PassRate    float64                     `json:"pass_rate"`
	TargetGap   target.GapAnalysis          `json:"target_gap"`
	Milestones  []target.Milestone          `json:"milestones"`
	Uncertainty scenario.Uncertainty        `json:"uncertainty"`
}

// ForecastOf returns the report entry for one indicator
func (r *Report) ForecastOf(indicator string) (forecast.IndicatorForecast, bool) {
	for _, f := range r.Forecasts {
		if f.Indicator == indicator {
			return f, true
		}
	}
	return forecast.IndicatorForecast{}, false
}

// ForecastService runs the full pipeline: association matrix, per-indicator
// scenario forecasts, back-validation, growth analysis and target tracking.
type ForecastService struct {
	data        *dataset.Dataset
	matrix      *association.Matrix
	forecaster  *forecast.Forecaster
	modeler     *impact.Modeler
	logger      *slog.Logger
	indicators  []KeyIndicator
	concurrency int

	targetValue float64
	targetYear  int
}

// Option configures a ForecastService
type Option func(*ForecastService)

// WithIndicators overrides the default key indicator set
func WithIndicators(indicators []KeyIndicator) Option {
	return func(s *ForecastService) { s.indicators = indicators }
}

// WithConcurrency bounds the per-indicator parallelism
func WithConcurrency(n int) Option {
	return func(s *ForecastService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTarget overrides the policy target value and year
func WithTarget(value float64, year int) Option {
	return func(s *ForecastService) {
		s.targetValue = value
		s.targetYear = year
	}
}

// NewForecastService wires the pipeline over an already-loaded dataset and
// impact-link table. The association matrix is built once here and shared
// read-only by everything downstream.
func NewForecastService(ctx context.Context, data *dataset.Dataset, links []dataset.ImpactLink, logger *slog.Logger, opts ...Option) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}

	matrix := association.NewBuilder(data.Events, links, logger).Build(ctx, nil)

	s := &ForecastService{
		data:        data,
		matrix:      matrix,
		forecaster:  forecast.New(data, matrix, logger),
		modeler:     impact.NewModeler(data, matrix, logger),
		logger:      logger,
		indicators:  DefaultKeyIndicators(),
		concurrency: 4,
		targetValue: target.NFISTargetValue,
		targetYear:  target.NFISTargetYear,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Matrix exposes the shared association matrix
func (s *ForecastService) Matrix() *association.Matrix {
	return s.matrix
}

// Data exposes the normalized dataset
func (s *ForecastService) Data() *dataset.Dataset {
	return s.data
}

// Scenarios forecasts one indicator's scenario table
func (s *ForecastService) Scenarios(ctx context.Context, indicator string, years []int) (forecast.ScenarioTable, error) {
	return s.forecaster.Scenarios(ctx, indicator, years)
}

// Run executes the whole batch. Indicators are independent and forecast in
// parallel; a failure on one indicator becomes a failure marker and never
// aborts the rest.
func (s *ForecastService) Run(ctx context.Context, years []int) (*Report, error) {
	if len(years) == 0 {
		years = forecast.DefaultYears()
	}

	start := time.Now()
	s.logger.InfoContext(ctx, "starting batch forecast",
		"indicators", len(s.indicators),
		"years", years,
	)

	var (
		mu       sync.Mutex
		results  []forecast.IndicatorForecast
		failures []Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, ki := range s.indicators {
		g.Go(func() error {
			table, err := s.forecaster.Scenarios(gctx, ki.Name, years)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if !errors.Is(err, forecast.ErrInsufficientData) {
					s.logger.ErrorContext(gctx, "forecast failed",
						"indicator", ki.Name,
						"error", err,
					)
				}
				failures = append(failures, Failure{Indicator: ki.Name, Reason: err.Error()})
				return nil // per-indicator failures never abort the batch
			}

			latest, hasLatest := s.data.LatestValue(ki.Name)
			results = append(results, forecast.IndicatorForecast{
				Indicator:        ki.Name,
				Pillar:           ki.Pillar,
				LatestHistorical: latest,
				HasHistorical:    hasLatest,
				Table:            table,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch forecast: %w", err)
	}

	// Restore the configured indicator order after parallel collection
	order := make(map[string]int, len(s.indicators))
	for i, ki := range s.indicators {
		order[ki.Name] = i
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].Indicator] < order[results[j].Indicator]
	})
	sort.Slice(failures, func(i, j int) bool {
		return order[failures[i].Indicator] < order[failures[j].Indicator]
	})

	validation := s.modeler.ValidateHistoricalImpacts(ctx, DefaultValidationEvents(), DefaultValidationIndicators())

	indicatorNames := make([]string, len(s.indicators))
	for i, ki := range s.indicators {
		indicatorNames[i] = ki.Name
	}

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Years:       years,
		Forecasts:   results,
		Failures:    failures,
		Summary:     s.buildSummary(results),
		Growth:      scenario.GrowthTable(results),
		Drivers:     scenario.KeyDrivers(s.matrix, indicatorNames),
		Validation:  validation,
		PassRate:    impact.PassRate(validation),
		Uncertainty: scenario.AssessUncertainty(),
	}
	s.applyTargetAnalysis(report)

	s.logger.InfoContext(ctx, "batch forecast completed",
		"duration", time.Since(start),
		"forecasted", len(results),
		"failed", len(failures),
		"validation_pass_rate", report.PassRate,
	)

	return report, nil
}

// buildSummary flattens all scenario tables into the cross-indicator
// summary rows, with the base band and growth preformatted the way the
// dashboard displays them.
func (s *ForecastService) buildSummary(results []forecast.IndicatorForecast) []SummaryRow {
	var rows []SummaryRow
	for _, result := range results {
		for _, p := range result.Table.Points {
			row := SummaryRow{
				Year:                p.Year,
				Indicator:           result.Indicator,
				Pillar:              result.Pillar,
				LatestHistorical:    result.LatestHistorical,
				BaseForecast:        p.Base,
				OptimisticForecast:  p.Optimistic,
				PessimisticForecast: p.Pessimistic,
				BaseRange:           fmt.Sprintf("%.1f-%.1f", p.BaseLower, p.BaseUpper),
				Growth:              "N/A",
			}
			if result.HasHistorical {
				row.Growth = fmt.Sprintf("%+.1fpp", p.Base-result.LatestHistorical)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// applyTargetAnalysis fills the NFIS target gap and milestone crossings
// from the account-ownership base forecast.
func (s *ForecastService) applyTargetAnalysis(report *Report) {
	const ownershipIndicator = "Account Ownership Rate"

	ownership, ok := report.ForecastOf(ownershipIndicator)
	if !ok {
		return
	}

	series := make([]dataset.YearValue, len(ownership.Table.Points))
	for i, p := range ownership.Table.Points {
		series[i] = dataset.YearValue{Year: p.Year, Value: p.Base}
	}
	report.Milestones = target.Milestones(series, target.DefaultMilestones())

	point, ok := ownership.Table.PointAt(s.targetYear)
	if !ok {
		return
	}
	report.TargetGap = target.AnalyzeTargetGap(ownership.LatestHistorical, point.Base, s.targetValue)
}
